package capture

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/root4loot/goutils/log"
)

// streamTypes are requests that may never finish and are excluded from the
// network idle wait.
var streamTypes = []proto.NetworkResourceType{
	proto.NetworkResourceTypeWebSocket,
	proto.NetworkResourceTypeEventSource,
}

type rodBrowser struct {
	opts     Options
	launcher *launcher.Launcher
	browser  *rod.Browser
}

type rodSession struct {
	opts    Options
	context *rod.Browser
	page    *rod.Page
}

func launchRod(ctx context.Context, opts Options) (Browser, error) {
	r := &rodBrowser{opts: opts}

	controlURL := opts.RemoteURL
	if controlURL == "" {
		bin := opts.BrowserBin
		if bin == "" {
			bin, _ = launcher.LookPath()
		}

		l := launcher.New().
			Context(ctx).
			Headless(true).
			NoSandbox(true)

		if bin != "" {
			l = l.Bin(bin)
		}

		if !opts.RespectCertificateErrors {
			l = l.Set("ignore-certificate-errors", "true")
		}

		if !opts.UseHTTP2 {
			l = l.Set("disable-http2", "true")
		}

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		controlURL = u
		r.launcher = l
		log.Debugf("Launched local browser at %s", controlURL)
	} else {
		log.Debugf("Connecting to remote browser at %s", controlURL)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		if r.launcher != nil {
			r.launcher.Kill()
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	r.browser = b

	return r, nil
}

func (r *rodBrowser) NewSession(vp Viewport) (Session, error) {
	incognito, err := r.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("browser: new context: %w", err)
	}

	var page *rod.Page
	if r.opts.Stealth {
		page, err = stealth.Page(incognito)
	} else {
		page, err = incognito.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		incognito.Close()
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	viewport := &proto.EmulationSetDeviceMetricsOverride{
		Width:             vp.Width,
		Height:            vp.Height,
		DeviceScaleFactor: float64(vp.DeviceScaleFactor),
		Mobile:            vp.Mobile,
	}
	if err := page.SetViewport(viewport); err != nil {
		incognito.Close()
		return nil, fmt.Errorf("browser: set %s viewport: %w", vp.Name, err)
	}

	if r.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.opts.UserAgent}); err != nil {
			incognito.Close()
			return nil, fmt.Errorf("browser: set user agent: %w", err)
		}
	}

	return &rodSession{opts: r.opts, context: incognito, page: page}, nil
}

// Close shuts down a launched browser. A remote browser is left running.
func (r *rodBrowser) Close() error {
	if r.launcher == nil {
		return nil
	}

	err := r.browser.Close()
	r.launcher.Cleanup()
	return err
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx)

	// Listen before navigating so requests fired during load are tracked.
	// Images, fonts and media count towards idle; long-lived streams do not.
	wait := page.WaitRequestIdle(s.opts.IdleTime, nil, nil, streamTypes)

	if err := page.Navigate(url); err != nil {
		return err
	}

	if err := page.WaitLoad(); err != nil {
		return err
	}

	wait()
	return ctx.Err()
}

func (s *rodSession) Screenshot(ctx context.Context) ([]byte, error) {
	return s.page.Context(ctx).Screenshot(true, nil)
}

func (s *rodSession) Close() error {
	return s.context.Close()
}
