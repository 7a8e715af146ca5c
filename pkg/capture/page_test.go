package capture

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"":             "home",
		"/":            "home",
		"/pricing":     "pricing",
		"/about/team/": "about-team",
		"docs/api/v2":  "docs-api-v2",
		"/blog/":       "blog",
	}

	for path, want := range tests {
		if got := Slugify(path); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestResolvePagesWithoutSitemap(t *testing.T) {
	pages, err := ResolvePages(t.TempDir())
	if err != nil {
		t.Fatalf("ResolvePages returned error: %v", err)
	}

	if len(pages) != 1 {
		t.Fatalf("Expected 1 default page, got %d", len(pages))
	}

	page := pages[0]
	if page.Slug != "home" || page.Title != "Home" || page.Path != "/" || page.Depth != 0 || page.Parent != nil {
		t.Errorf("Unexpected default page: %+v", page)
	}
}

func TestResolvePagesWithSitemap(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, SitemapFile), `{
		"pages": [
			{"slug": "home", "title": "Home", "path": "/", "parent": null, "depth": 0},
			{"slug": "pricing", "title": "Pricing", "path": "/pricing", "parent": "home", "depth": 1}
		]
	}`)

	pages, err := ResolvePages(dir)
	if err != nil {
		t.Fatalf("ResolvePages returned error: %v", err)
	}

	if len(pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(pages))
	}

	if pages[0].Slug != "home" || pages[1].Slug != "pricing" {
		t.Errorf("Pages out of order: %q, %q", pages[0].Slug, pages[1].Slug)
	}

	if pages[1].Parent == nil || *pages[1].Parent != "home" {
		t.Errorf("Expected parent home for pricing, got %v", pages[1].Parent)
	}

	if pages[1].Depth != 1 {
		t.Errorf("Expected depth 1, got %d", pages[1].Depth)
	}
}

func TestResolvePagesMalformedSitemap(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `{"pages": [`},
		{"missing pages", `{"urls": []}`},
		{"null pages", `{"pages": null}`},
		{"pages not a list", `{"pages": {"slug": "home"}}`},
		{"not an object", `[1, 2, 3]`},
		{"missing slug and path", `{"pages": [{"title": "About"}]}`},
		{"missing slug", `{"pages": [{"title": "About", "path": "/about"}]}`},
		{"missing path", `{"pages": [{"slug": "home", "path": "/"}, {"slug": "about", "title": "About"}]}`},
		{"page not an object", `{"pages": ["/about"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, SitemapFile), tt.content)

			if _, err := ResolvePages(dir); err == nil {
				t.Fatalf("Expected error for %s", tt.name)
			}
		})
	}
}

func TestResolvePagesEmptyList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, SitemapFile), `{"pages": []}`)

	pages, err := ResolvePages(dir)
	if err != nil {
		t.Fatalf("ResolvePages returned error: %v", err)
	}

	if len(pages) != 0 {
		t.Errorf("Expected no pages, got %d", len(pages))
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}
