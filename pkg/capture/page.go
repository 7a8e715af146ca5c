package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SitemapFile is the name of the optional page list inside the output directory.
const SitemapFile = "sitemap.json"

// PageEntry is a single page to capture, relative to the base URL.
type PageEntry struct {
	Slug   string  `json:"slug"`
	Title  string  `json:"title"`
	Path   string  `json:"path"`
	Parent *string `json:"parent"`
	Depth  int     `json:"depth"`
}

// Sitemap is the on-disk page list.
type Sitemap struct {
	Pages []PageEntry `json:"pages"`
}

// DefaultPages returns the page list used when no sitemap is present.
func DefaultPages() []PageEntry {
	return []PageEntry{{Slug: "home", Title: "Home", Path: "/", Parent: nil, Depth: 0}}
}

// Slugify converts a URL path to a filename-safe slug.
func Slugify(path string) string {
	if path == "" || path == "/" {
		return "home"
	}
	return strings.ReplaceAll(strings.Trim(path, "/"), "/", "-")
}

// ResolvePages returns the pages listed in outputDir/sitemap.json, or the
// default single home page when the file does not exist.
func ResolvePages(outputDir string) ([]PageEntry, error) {
	sitemapPath := filepath.Join(outputDir, SitemapFile)

	sitemap, err := LoadSitemap(sitemapPath)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultPages(), nil
	}
	if err != nil {
		return nil, err
	}

	return sitemap.Pages, nil
}

// LoadSitemap reads and parses a sitemap file. A file without a pages array,
// or with a page lacking a slug or path, is rejected.
func LoadSitemap(path string) (*Sitemap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("capture: parse %s: %w", path, err)
	}

	pages, ok := raw["pages"]
	if !ok || string(pages) == "null" {
		return nil, fmt.Errorf("capture: parse %s: missing \"pages\" field", path)
	}

	var sitemap Sitemap
	if err := json.Unmarshal(pages, &sitemap.Pages); err != nil {
		return nil, fmt.Errorf("capture: parse %s: pages: %w", path, err)
	}

	for i, page := range sitemap.Pages {
		if page.Slug == "" || page.Path == "" {
			return nil, fmt.Errorf("capture: parse %s: pages[%d]: missing slug/path", path, i)
		}
	}

	return &sitemap, nil
}
