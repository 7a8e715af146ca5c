package capture

import (
	"fmt"
	"io"
)

// Result contains the outcome of capturing one target.
type Result struct {
	Target Target
	URL    string
	Path   string // written file, empty on failure
	Error  error
}

// OK reports whether the target was written.
func (r Result) OK() bool {
	return r.Error == nil
}

// Report collects the results of a run in capture order.
type Report struct {
	OutputDir string
	Results   []Result
}

// Succeeded returns the number of targets written.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of targets skipped because of an error.
func (r *Report) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// Progress prints human readable progress lines for the operator.
type Progress struct {
	w io.Writer
}

// NewProgress returns a Progress writing to w. A nil writer discards output.
func NewProgress(w io.Writer) *Progress {
	if w == nil {
		w = io.Discard
	}
	return &Progress{w: w}
}

func (p *Progress) viewport(vp Viewport) {
	fmt.Fprintf(p.w, "\nCapturing %s screenshots (%dx%d @%dx)...\n", vp.Name, vp.Width, vp.Height, vp.DeviceScaleFactor)
}

func (p *Progress) start(t Target) {
	fmt.Fprintf(p.w, "  → %s... ", t.Page.Slug)
}

func (p *Progress) done(res Result) {
	if res.OK() {
		fmt.Fprintln(p.w, "✓")
		return
	}
	fmt.Fprintf(p.w, "✗ %v\n", res.Error)
}

// Finish prints the completion line.
func (p *Progress) Finish(report *Report) {
	fmt.Fprintf(p.w, "\nDone! Screenshots saved to %s\n", report.OutputDir)
}
