package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/root4loot/goutils/log"
)

// LaunchFunc starts a browser for a run.
type LaunchFunc func(ctx context.Context, opts Options) (Browser, error)

// Capturer captures every page of a site at every viewport.
type Capturer struct {
	Options  Options
	Progress *Progress
	Launch   LaunchFunc
}

func init() {
	log.Init("capture")
}

// NewCapturer returns a Capturer that launches a real browser and prints
// progress to stdout.
func NewCapturer(opts Options) *Capturer {
	opts.applyDefaults()
	return &Capturer{
		Options:  opts,
		Progress: NewProgress(os.Stdout),
		Launch:   Launch,
	}
}

// Run normalizes rawURL, resolves the pages from outputDir and captures them.
func (c *Capturer) Run(ctx context.Context, rawURL, outputDir string) (*Report, error) {
	baseURL, err := NormalizeBaseURL(rawURL)
	if err != nil {
		return nil, err
	}

	siteSlug, err := SiteSlug(baseURL)
	if err != nil {
		return nil, err
	}

	pages, err := ResolvePages(outputDir)
	if err != nil {
		return nil, err
	}
	log.Debugf("Resolved %d page(s) for %s", len(pages), baseURL)

	report, err := c.CapturePages(ctx, baseURL, pages, outputDir, siteSlug)
	if err != nil {
		return report, err
	}

	c.progress().Finish(report)
	return report, nil
}

// CapturePages opens one browser and captures pages at each viewport in
// order. Page failures are recorded in the report; the returned error is
// only set when the run itself cannot continue.
func (c *Capturer) CapturePages(ctx context.Context, baseURL string, pages []PageEntry, outputDir, siteSlug string) (*Report, error) {
	c.Options.applyDefaults()

	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("capture: create output dir: %w", err)
	}

	launch := c.Launch
	if launch == nil {
		launch = Launch
	}

	browser, err := launch(ctx, c.Options)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := browser.Close(); err != nil {
			log.Warnf("Could not close browser: %v", err)
		}
	}()

	report := &Report{OutputDir: outputDir}
	for _, vp := range Viewports {
		if err := c.capturePass(ctx, browser, vp, baseURL, pages, outputDir, siteSlug, report); err != nil {
			return report, err
		}
	}

	return report, nil
}

func (c *Capturer) capturePass(ctx context.Context, browser Browser, vp Viewport, baseURL string, pages []PageEntry, outputDir, siteSlug string, report *Report) error {
	c.progress().viewport(vp)

	session, err := browser.NewSession(vp)
	if err != nil {
		return fmt.Errorf("capture: %s pass: %w", vp.Name, err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warnf("Could not close %s context: %v", vp.Name, err)
		}
	}()

	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}

		if i > 0 && c.Options.DelayBetweenCapture > 0 {
			if err := sleep(ctx, c.Options.DelayBetweenCapture); err != nil {
				return err
			}
		}

		target := Target{Page: page, Viewport: vp}
		c.progress().start(target)
		result := c.captureTarget(ctx, session, target, baseURL, outputDir, siteSlug)
		c.progress().done(result)

		report.Results = append(report.Results, result)
	}

	return nil
}

func (c *Capturer) captureTarget(ctx context.Context, session Session, target Target, baseURL, outputDir, siteSlug string) Result {
	result := Result{Target: target, URL: target.URL(baseURL)}

	log.Debugf("Attempting capture on %s (%s)", result.URL, target.Viewport.Name)

	navCtx, cancel := context.WithTimeout(ctx, c.Options.Timeout)
	defer cancel()

	if err := session.Navigate(navCtx, result.URL); err != nil {
		if IsTimeout(err) {
			result.Error = fmt.Errorf("timed out after %v: %w", c.Options.Timeout, err)
		} else {
			result.Error = rootCause(err)
		}
		log.Debugf("Navigation to %s failed: %v", result.URL, err)
		return result
	}

	if c.Options.DelayBeforeCapture > 0 {
		if err := sleep(ctx, c.Options.DelayBeforeCapture); err != nil {
			result.Error = err
			return result
		}
	}

	image, err := session.Screenshot(ctx)
	if err != nil {
		result.Error = fmt.Errorf("screenshot: %w", err)
		return result
	}

	path := target.Path(outputDir, siteSlug)
	if err := writeImage(path, image); err != nil {
		result.Error = fmt.Errorf("write %s: %w", path, err)
		return result
	}

	result.Path = path
	return result
}

func (c *Capturer) progress() *Progress {
	if c.Progress == nil {
		c.Progress = NewProgress(nil)
	}
	return c.Progress
}

// writeImage replaces path with data. The image is written to a temporary
// file first so a failed write never leaves a partial PNG behind.
func writeImage(path string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty image")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".capture-*.png")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
