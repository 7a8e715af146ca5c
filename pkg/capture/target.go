package capture

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/root4loot/goutils/urlutil"
)

// Target is one page captured at one viewport.
type Target struct {
	Page     PageEntry
	Viewport Viewport
}

// URL returns the address to navigate to for the target.
func (t Target) URL(baseURL string) string {
	return baseURL + t.Page.Path
}

// Filename returns the output file name, <siteSlug>_<pageSlug>_<viewport>.png.
func (t Target) Filename(siteSlug string) string {
	return siteSlug + "_" + t.Page.Slug + "_" + t.Viewport.Name + ".png"
}

// Path returns the output file path inside dir.
func (t Target) Path(dir, siteSlug string) string {
	return filepath.Join(dir, t.Filename(siteSlug))
}

// NormalizeBaseURL trims whitespace and trailing slashes, lowercases the
// scheme and adds an https scheme when none is given.
func NormalizeBaseURL(raw string) (string, error) {
	target := strings.TrimSpace(raw)

	// "https://" without a host still carries a scheme.
	if !urlutil.HasScheme(target) && !strings.Contains(target, "://") {
		target = "https://" + target
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("capture: invalid url %q: %w", raw, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("capture: invalid url %q: missing host", raw)
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SiteSlug returns the first label of the base URL's host name, e.g.
// "example" for https://example.com/foo.
func SiteSlug(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("capture: invalid url %q: %w", baseURL, err)
	}

	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("capture: invalid url %q: missing host", baseURL)
	}

	label, _, _ := strings.Cut(host, ".")
	return label, nil
}
