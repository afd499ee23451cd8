package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings of the build TV daemon and its control CLI.
type Config struct {
	// ControlAddress is the gRPC address of the control API.
	ControlAddress string `yaml:"control_addr"`
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
	// LED configures the strip and the render loop.
	LED LED `yaml:"led"`
	// Jenkins configures the build-server status poller.
	Jenkins Jenkins `yaml:"jenkins"`
	// Standup configures the daily standup producer.
	Standup Standup `yaml:"standup"`
	// Notifications configures the notification registry and display.
	Notifications Notifications `yaml:"notifications"`
}

// LED configures the strip output.
type LED struct {
	// Pixels is the number of LEDs on the strip.
	Pixels int `yaml:"pixels"`
	// FrameInterval is the target time between two frames.
	FrameInterval time.Duration `yaml:"frame_interval"`
	// Output selects the strip implementation: "terminal" or "log".
	Output string `yaml:"output"`
	// StopWarnAfter is how long a render loop may take to stop before a warning is logged.
	StopWarnAfter time.Duration `yaml:"stop_warn_after"`
}

// Jenkins configures the status poller.
type Jenkins struct {
	// PollRateMs is the interval between two poll cycles in milliseconds.
	PollRateMs int64 `yaml:"poll_rate_ms"`
	// MaxBufferBytes caps the size of a host response body.
	MaxBufferBytes int64 `yaml:"max_buffer_bytes"`
	// Timeout bounds a single host query, connect and read included.
	Timeout time.Duration `yaml:"timeout"`
	// Hosts lists the build servers to poll.
	Hosts []Host `yaml:"hosts"`
}

// Host is a single build server entry.
type Host struct {
	// Name identifies the host in logs.
	Name string `yaml:"name"`
	// URL is the base URL of the server.
	URL string `yaml:"url"`
	// Jobs restricts polling to these jobs; empty means all jobs.
	Jobs []string `yaml:"jobs"`
}

// Standup configures the daily standup ritual.
type Standup struct {
	// Enabled turns the producer on.
	Enabled bool `yaml:"enabled"`
	// At is the local start time in HH:MM format.
	At string `yaml:"at"`
	// Duration is how long the standup pattern is shown.
	Duration time.Duration `yaml:"duration"`
	// Weekdays lists the days the standup happens on (mon, tue, ...). Empty means Monday to Friday.
	Weekdays []string `yaml:"weekdays"`
}

// Notifications configures the notification registry.
type Notifications struct {
	// RefreshInterval is how often expiry is re-evaluated without new input.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	// MQTT publishes notifications to a broker when Broker is set.
	MQTT MQTT `yaml:"mqtt"`
}

// MQTT configures the broker used by the remote notification display.
type MQTT struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker string `yaml:"broker"`
	// Topic is where notifications are published.
	Topic string `yaml:"topic"`
	// ClientID identifies this daemon at the broker.
	ClientID string `yaml:"client_id"`
}

const (
	// DefaultConfigFilename is the default filename for daemon settings.
	DefaultConfigFilename = "build-tv-settings.yaml"

	// DefaultControlAddress is where the control API listens when unset.
	DefaultControlAddress = "127.0.0.1:50071"

	// DefaultTimeout is the default bound for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFrameInterval renders roughly thirty frames per second.
	DefaultFrameInterval = 33 * time.Millisecond

	// DefaultPixels is the strip length used when unset.
	DefaultPixels = 60

	// DefaultStopWarnAfter is the default render-loop stop warning threshold.
	DefaultStopWarnAfter = 2 * time.Second

	// DefaultRefreshInterval is the default notification expiry tick.
	DefaultRefreshInterval = time.Second

	// DefaultStandupDuration is the default standup window.
	DefaultStandupDuration = 15 * time.Minute

	// DefaultMQTTTopic is the default notification topic.
	DefaultMQTTTopic = "build-tv/notification"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// OutputTerminal renders the strip as coloured blocks on stdout.
	OutputTerminal = "terminal"
	// OutputLog writes every frame to the debug log.
	OutputLog = "log"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errPollRateRequired is returned when the poll rate is missing or not positive.
	errPollRateRequired = errors.New("jenkins.poll_rate_ms must be greater than zero")
	// errBufferRequired is returned when the buffer cap is missing or not positive.
	errBufferRequired = errors.New("jenkins.max_buffer_bytes must be greater than zero")
	// errHostsRequired is returned when no build server is configured.
	errHostsRequired = errors.New("jenkins.hosts must list at least one host")
	// errHostName is returned when a host entry has no name.
	errHostName = errors.New("host name must be provided")
	// errUnknownOutput is returned for an unsupported led.output value.
	errUnknownOutput = errors.New("unknown led output")
	// errNegativePixels is returned when led.pixels is negative.
	errNegativePixels = errors.New("led.pixels must not be negative")
	// errStandupTime is returned when standup.at is not HH:MM.
	errStandupTime = errors.New("standup.at must use HH:MM format")
	// errUnknownWeekday is returned for an unrecognised weekday name.
	errUnknownWeekday = errors.New("unknown weekday")
)

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid settings %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills defaults for optional ones.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ControlAddress == "" {
		cfg.ControlAddress = DefaultControlAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ControlAddress); err != nil {
		return fmt.Errorf("invalid control address: %w", err)
	}

	if err := validateLED(&cfg.LED); err != nil {
		return err
	}

	if err := validateJenkins(&cfg.Jenkins); err != nil {
		return err
	}

	if err := validateStandup(&cfg.Standup); err != nil {
		return err
	}

	if cfg.Notifications.RefreshInterval <= 0 {
		cfg.Notifications.RefreshInterval = DefaultRefreshInterval
	}

	mqtt := &cfg.Notifications.MQTT
	if mqtt.Broker != "" {
		if _, err := url.Parse(mqtt.Broker); err != nil {
			return fmt.Errorf("invalid mqtt broker: %w", err)
		}

		if mqtt.Topic == "" {
			mqtt.Topic = DefaultMQTTTopic
		}
	}

	return nil
}

// validateLED fills strip defaults and rejects unknown outputs.
func validateLED(led *LED) error {
	if led.Pixels < 0 {
		return errNegativePixels
	}

	if led.Pixels == 0 {
		led.Pixels = DefaultPixels
	}

	if led.FrameInterval <= 0 {
		led.FrameInterval = DefaultFrameInterval
	}

	if led.StopWarnAfter <= 0 {
		led.StopWarnAfter = DefaultStopWarnAfter
	}

	switch led.Output {
	case "":
		led.Output = OutputTerminal
	case OutputTerminal, OutputLog:
	default:
		return fmt.Errorf("%w: %q", errUnknownOutput, led.Output)
	}

	return nil
}

// validateJenkins checks the poller settings; none of them has a default.
func validateJenkins(jenkins *Jenkins) error {
	if jenkins.PollRateMs <= 0 {
		return errPollRateRequired
	}

	if jenkins.MaxBufferBytes <= 0 {
		return errBufferRequired
	}

	if len(jenkins.Hosts) == 0 {
		return errHostsRequired
	}

	if jenkins.Timeout <= 0 {
		jenkins.Timeout = DefaultTimeout
	}

	for i, host := range jenkins.Hosts {
		if host.Name == "" {
			return fmt.Errorf("jenkins.hosts[%d]: %w", i, errHostName)
		}

		if _, err := url.ParseRequestURI(host.URL); err != nil {
			return fmt.Errorf("jenkins.hosts[%d] %s: invalid url: %w", i, host.Name, err)
		}
	}

	return nil
}

// validateStandup checks the standup window when the producer is enabled.
func validateStandup(standup *Standup) error {
	if !standup.Enabled {
		return nil
	}

	if _, _, err := ParseClock(standup.At); err != nil {
		return err
	}

	if standup.Duration <= 0 {
		standup.Duration = DefaultStandupDuration
	}

	if _, err := ParseWeekdays(standup.Weekdays); err != nil {
		return err
	}

	return nil
}

// PollRate returns the poll interval as a duration.
func (j *Jenkins) PollRate() time.Duration {
	return time.Duration(j.PollRateMs) * time.Millisecond
}

// ParseClock parses an HH:MM time of day.
func ParseClock(s string) (int, int, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", errStandupTime, s)
	}

	return parsed.Hour(), parsed.Minute(), nil
}

// ParseWeekdays converts short or long weekday names. Empty input means Monday to Friday.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	if len(names) == 0 {
		return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}, nil
	}

	days := make([]time.Weekday, 0, len(names))

	for _, name := range names {
		day, ok := weekdayByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", errUnknownWeekday, name)
		}

		days = append(days, day)
	}

	return days, nil
}

// weekdayByName matches the first three letters of an English weekday name.
func weekdayByName(name string) (time.Weekday, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) < 3 {
		return 0, false
	}

	for day := time.Sunday; day <= time.Saturday; day++ {
		if strings.HasPrefix(strings.ToLower(day.String()), name[:3]) {
			return day, true
		}
	}

	return 0, false
}
