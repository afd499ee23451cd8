// Package jenkins polls Jenkins build servers, reduces the per-host job
// colours into a single LED pattern and pushes a matching notification
// whenever the aggregate status changes.
package jenkins
