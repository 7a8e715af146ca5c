package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/root4loot/goutils/log"
	"github.com/root4loot/sitecapture/pkg/capture"
)

const (
	author  = "@danielantonsen"
	version = "0.1.0"
	usage   = `USAGE:
  capture [options] <url> <output_dir>

  Captures full-page desktop (1920x1080) and mobile (390x844 @2x) screenshots of
  every page listed in <output_dir>/sitemap.json, or of the home page when no
  sitemap exists. Files are named <site>_<page>_<viewport>.png.

EXAMPLE:
  capture https://example.com ./screenshots

CONFIGURATIONS:
  -c,   --config                 load options from a YAML file
  -d,   --driver                 browser driver (rod, chromedp)                          (Default: rod)
  -to,  --timeout                navigation timeout (seconds)                            (Default: 30)
  -it,  --idle-time              network quiet window counted as idle (milliseconds)     (Default: 500)
  -dc,  --delay-capture          delay between network idle and capture (seconds)        (Default: 0)
  -dbc, --delay-between-capture  delay between pages (seconds)                           (Default: 0)
  -ua,  --user-agent             specify user agent                                      (Default: browser UA)
  -uh,  --use-http2              use HTTP2                                               (Default: false)
  -rce, --respect-cert-err       respect certificate errors                              (Default: false)
  -st,  --stealth                apply stealth evasions to pages (rod only)              (Default: false)
  -r,   --remote                 DevTools URL of a running browser instead of launching
  -b,   --browser-bin            path to the browser binary                              (Default: auto)

OUTPUT:
        --debug                  enable debug mode
        --version                display version
`
)

var (
	errUsage   = errors.New("missing arguments")
	errHelp    = errors.New("help requested")
	errVersion = errors.New("version requested")
)

type cli struct {
	*capture.Capturer
	TargetURL string
	OutputDir string
	Debug     bool
}

func NewCLI() *cli {
	return &cli{Capturer: capture.NewCapturer(capture.NewOptions())}
}

func init() {
	log.Init("capture")
}

func main() {
	cli := NewCLI()

	err := cli.parseFlags(os.Args[1:])
	switch {
	case errors.Is(err, errHelp):
		fmt.Print(usage)
		os.Exit(0)
	case errors.Is(err, errVersion):
		fmt.Println("capture", version, "by", author)
		os.Exit(0)
	case errors.Is(err, errUsage):
		fmt.Print(usage)
		os.Exit(1)
	case err != nil:
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := cli.Run(ctx, cli.TargetURL, cli.OutputDir)
	if err != nil {
		stop()
		log.Fatalf("%v", err)
	}

	summarize(report)
}

// summarize logs the outcome of a run. Failed pages do not change the exit
// status.
func summarize(report *capture.Report) {
	if failed := report.Failed(); failed > 0 {
		log.Warnf("%d of %d capture(s) failed", failed, len(report.Results))
	}
	log.Resultf("%d screenshot(s) written to %s", report.Succeeded(), report.OutputDir)
}

func (cli *cli) parseFlags(args []string) error {
	var help, ver bool
	var configFile, driver, userAgent, remote, bin string
	var timeout, idleTime, delayCapture, delayBetween int
	var useHTTP2, respectCertErr, stealth bool

	defaults := capture.NewOptions()

	fs := flag.NewFlagSet("capture", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// CONFIGURATIONS
	fs.StringVar(&configFile, "config", "", "")
	fs.StringVar(&configFile, "c", "", "")
	fs.StringVar(&driver, "driver", defaults.Driver, "")
	fs.StringVar(&driver, "d", defaults.Driver, "")
	fs.IntVar(&timeout, "timeout", int(defaults.Timeout/time.Second), "")
	fs.IntVar(&timeout, "to", int(defaults.Timeout/time.Second), "")
	fs.IntVar(&idleTime, "idle-time", int(defaults.IdleTime/time.Millisecond), "")
	fs.IntVar(&idleTime, "it", int(defaults.IdleTime/time.Millisecond), "")
	fs.IntVar(&delayCapture, "delay-capture", 0, "")
	fs.IntVar(&delayCapture, "dc", 0, "")
	fs.IntVar(&delayBetween, "delay-between-capture", 0, "")
	fs.IntVar(&delayBetween, "dbc", 0, "")
	fs.StringVar(&userAgent, "user-agent", "", "")
	fs.StringVar(&userAgent, "ua", "", "")
	fs.BoolVar(&useHTTP2, "use-http2", false, "")
	fs.BoolVar(&useHTTP2, "uh", false, "")
	fs.BoolVar(&respectCertErr, "respect-cert-err", false, "")
	fs.BoolVar(&respectCertErr, "rce", false, "")
	fs.BoolVar(&stealth, "stealth", false, "")
	fs.BoolVar(&stealth, "st", false, "")
	fs.StringVar(&remote, "remote", "", "")
	fs.StringVar(&remote, "r", "", "")
	fs.StringVar(&bin, "browser-bin", "", "")
	fs.StringVar(&bin, "b", "", "")

	// OUTPUT
	fs.BoolVar(&cli.Debug, "debug", false, "")
	fs.BoolVar(&help, "help", false, "")
	fs.BoolVar(&help, "h", false, "")
	fs.BoolVar(&ver, "version", false, "")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	if cli.Debug {
		log.SetLevel(log.DebugLevel)
	}

	if help {
		return errHelp
	}

	if ver {
		return errVersion
	}

	if fs.NArg() < 2 {
		return errUsage
	}
	cli.TargetURL = fs.Arg(0)
	cli.OutputDir = fs.Arg(1)

	options := defaults
	if configFile != "" {
		var err error
		options, err = capture.LoadConfigFile(configFile)
		if err != nil {
			return err
		}
		log.Debugf("Loaded options from %s", configFile)
	}

	// Flags given on the command line win over the config file.
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	isSet := func(long, short string) bool { return set[long] || set[short] }

	if isSet("driver", "d") {
		options.Driver = driver
	}
	if isSet("timeout", "to") {
		options.Timeout = time.Duration(timeout) * time.Second
	}
	if isSet("idle-time", "it") {
		options.IdleTime = time.Duration(idleTime) * time.Millisecond
	}
	if isSet("delay-capture", "dc") {
		options.DelayBeforeCapture = time.Duration(delayCapture) * time.Second
	}
	if isSet("delay-between-capture", "dbc") {
		options.DelayBetweenCapture = time.Duration(delayBetween) * time.Second
	}
	if isSet("user-agent", "ua") {
		options.UserAgent = userAgent
	}
	if isSet("use-http2", "uh") {
		options.UseHTTP2 = useHTTP2
	}
	if isSet("respect-cert-err", "rce") {
		options.RespectCertificateErrors = respectCertErr
	}
	if isSet("stealth", "st") {
		options.Stealth = stealth
	}
	if isSet("remote", "r") {
		options.RemoteURL = remote
	}
	if isSet("browser-bin", "b") {
		options.BrowserBin = bin
	}

	if err := options.Validate(); err != nil {
		return err
	}

	cli.Options = options
	return nil
}
