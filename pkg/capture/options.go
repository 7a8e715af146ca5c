package capture

import (
	"fmt"
	"time"
)

// Driver names accepted by Options.Driver.
const (
	DriverRod      = "rod"
	DriverChromedp = "chromedp"
)

// Options contains the options for a capture run.
type Options struct {
	Driver                   string        `yaml:"driver"`                     // Browser driver (rod or chromedp)
	Timeout                  time.Duration `yaml:"timeout"`                    // Navigation timeout per page
	IdleTime                 time.Duration `yaml:"idle_time"`                  // Quiet window that counts as network idle
	DelayBeforeCapture       time.Duration `yaml:"delay_before_capture"`       // Delay between idle and screenshot
	DelayBetweenCapture      time.Duration `yaml:"delay_between_capture"`      // Delay between pages
	UserAgent                string        `yaml:"user_agent"`                 // User agent
	RespectCertificateErrors bool          `yaml:"respect_certificate_errors"` // Respect certificate errors
	UseHTTP2                 bool          `yaml:"use_http2"`                  // Use HTTP2
	Stealth                  bool          `yaml:"stealth"`                    // Apply stealth evasions to pages (rod only)
	RemoteURL                string        `yaml:"remote_url"`                 // DevTools endpoint of an existing Chrome
	BrowserBin               string        `yaml:"browser_bin"`                // Chrome binary, looked up when empty
}

// NewOptions returns an Options struct initialized with default values.
func NewOptions() Options {
	return Options{
		Driver:   DriverRod,
		Timeout:  30 * time.Second,
		IdleTime: 500 * time.Millisecond,
	}
}

func (o *Options) applyDefaults() {
	defaults := NewOptions()
	if o.Driver == "" {
		o.Driver = defaults.Driver
	}
	if o.Timeout <= 0 {
		o.Timeout = defaults.Timeout
	}
	if o.IdleTime <= 0 {
		o.IdleTime = defaults.IdleTime
	}
}

// Validate reports option values that cannot start a run.
func (o Options) Validate() error {
	switch o.Driver {
	case DriverRod, DriverChromedp:
	default:
		return fmt.Errorf("capture: unknown driver %q", o.Driver)
	}
	if o.Stealth && o.Driver != DriverRod {
		return fmt.Errorf("capture: stealth requires the %s driver", DriverRod)
	}
	return nil
}
