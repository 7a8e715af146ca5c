package capture

import (
	"context"
	"errors"
	"strings"
)

// Browser is a running browser shared by every viewport pass of a run.
type Browser interface {
	// NewSession opens an isolated browsing context holding a single page
	// that emulates vp. The page is reused for every navigation.
	NewSession(vp Viewport) (Session, error)
	Close() error
}

// Session is one isolated browsing context with one page.
type Session interface {
	// Navigate loads url and returns once the network has been idle for the
	// configured quiet window. ctx bounds the whole wait.
	Navigate(ctx context.Context, url string) error
	// Screenshot captures the full scrollable page as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Launch starts the browser selected by opts.Driver.
func Launch(ctx context.Context, opts Options) (Browser, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if opts.Driver == DriverChromedp {
		return launchChromedp(ctx, opts)
	}
	return launchRod(ctx, opts)
}

// IsTimeout reports whether err was caused by an expired deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errMessage := err.Error()
	return strings.Contains(errMessage, "context deadline exceeded") ||
		strings.Contains(errMessage, "net::ERR_TIMED_OUT")
}

// rootCause returns the innermost error in the chain.
func rootCause(err error) error {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err
		}
		err = unwrapped
	}
}
