package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/root4loot/goutils/log"
)

type chromedpBrowser struct {
	opts        Options
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

type chromedpSession struct {
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc
	idle   *idleTracker
}

func launchChromedp(ctx context.Context, opts Options) (Browser, error) {
	var allocCtx context.Context
	var allocCancel context.CancelFunc

	if opts.RemoteURL != "" {
		log.Debugf("Connecting to remote browser at %s", opts.RemoteURL)
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, opts.RemoteURL)
	} else {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], execFlags(opts)...)
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, allocOpts...)
	}

	browserCtx, cancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("browser: launch: %w", err)
	}
	log.Debugf("Started chromedp browser")

	return &chromedpBrowser{opts: opts, ctx: browserCtx, cancel: cancel, allocCancel: allocCancel}, nil
}

// execFlags returns exec allocator options based on the run options.
func execFlags(opts Options) []chromedp.ExecAllocatorOption {
	flags := []chromedp.ExecAllocatorOption{chromedp.NoSandbox}

	if opts.BrowserBin != "" {
		flags = append(flags, chromedp.ExecPath(opts.BrowserBin))
	}

	if !opts.RespectCertificateErrors {
		flags = append(flags, chromedp.Flag("ignore-certificate-errors", true))
	}

	if !opts.UseHTTP2 {
		flags = append(flags, chromedp.Flag("disable-http2", true))
	}

	return flags
}

func (b *chromedpBrowser) NewSession(vp Viewport) (Session, error) {
	tabCtx, cancel := chromedp.NewContext(b.ctx, chromedp.WithNewBrowserContext())

	idle := &idleTracker{inflight: make(map[network.RequestID]struct{})}
	chromedp.ListenTarget(tabCtx, idle.handle)

	emulateOpts := []chromedp.EmulateViewportOption{chromedp.EmulateScale(float64(vp.DeviceScaleFactor))}
	if vp.Mobile {
		emulateOpts = append(emulateOpts, chromedp.EmulateMobile)
	}

	tasks := chromedp.Tasks{
		network.Enable(),
		chromedp.EmulateViewport(int64(vp.Width), int64(vp.Height), emulateOpts...),
	}

	if b.opts.UserAgent != "" {
		tasks = append(tasks, emulation.SetUserAgentOverride(b.opts.UserAgent))
	}

	if err := chromedp.Run(tabCtx, tasks); err != nil {
		cancel()
		return nil, fmt.Errorf("browser: new %s context: %w", vp.Name, err)
	}

	return &chromedpSession{opts: b.opts, ctx: tabCtx, cancel: cancel, idle: idle}, nil
}

func (b *chromedpBrowser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	b.allocCancel()
	return err
}

// bind derives a context from the tab that honours the deadline and
// cancellation of ctx.
func (s *chromedpSession) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	var runCtx context.Context
	var cancel context.CancelFunc

	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(s.ctx, deadline)
	} else {
		runCtx, cancel = context.WithCancel(s.ctx)
	}

	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (s *chromedpSession) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := s.bind(ctx)
	defer cancel()

	s.idle.reset()

	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return err
	}

	return s.idle.wait(runCtx, s.opts.IdleTime)
}

func (s *chromedpSession) Screenshot(ctx context.Context) ([]byte, error) {
	runCtx, cancel := s.bind(ctx)
	defer cancel()

	var buf []byte
	// Quality 100 yields PNG.
	if err := chromedp.Run(runCtx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *chromedpSession) Close() error {
	s.cancel()
	return nil
}

// idleTracker counts in-flight requests of a tab from its network events.
type idleTracker struct {
	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	last     time.Time
}

func (t *idleTracker) handle(ev interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		if e.Type == network.ResourceTypeEventSource {
			return
		}
		t.inflight[e.RequestID] = struct{}{}
	case *network.EventLoadingFinished:
		delete(t.inflight, e.RequestID)
	case *network.EventLoadingFailed:
		delete(t.inflight, e.RequestID)
	default:
		return
	}
	t.last = time.Now()
}

func (t *idleTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight = make(map[network.RequestID]struct{})
	t.last = time.Now()
}

func (t *idleTracker) idleFor(quiet time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight) == 0 && time.Since(t.last) >= quiet
}

// wait blocks until no request has been in flight for quiet.
func (t *idleTracker) wait(ctx context.Context, quiet time.Duration) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if t.idleFor(quiet) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
