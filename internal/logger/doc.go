// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder and a shared atomic level,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing for the --log-level flag and the config file,
//   - convenience functions (Infof, WarnKV, ErrorKV, etc.).
//
// Every long-lived task of the daemon (render loop, pollers, registries)
// receives a context and logs through the logger stored in it, so log lines
// carry the component name that produced them.
package logger
