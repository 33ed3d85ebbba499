// Package synctex resolves source locations to rendered-page coordinates
// by invoking the synctex forward-search binary.
package synctex

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/time/rate"
)

// DefaultExecutable is the synctex binary name looked up on PATH.
const DefaultExecutable = "synctex"

// ErrToolUnavailable indicates the synctex binary could not be found.
// Reported once at the pipeline level; individual lookups degrade to the
// no-mapping sentinel.
var ErrToolUnavailable = errors.New("synctex executable not found in PATH")

// Coordinate is a position on a rendered page as reported by a forward
// search: 1-based page number, horizontal and vertical offsets in PDF
// points with a top-left origin.
type Coordinate struct {
	Page int     `json:"page"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// NoMapping is the sentinel for a failed or empty lookup.
var NoMapping = Coordinate{}

// IsMapped reports whether c carries a real page position.
func (c Coordinate) IsMapped() bool {
	return c.Page >= 1
}

// Resolver maps (source file, line, column) to a Coordinate for one PDF.
type Resolver interface {
	// Resolve returns the best candidate coordinate for a source location,
	// or NoMapping. A missing tool, missing synchronization data, or an
	// empty candidate set are all normal no-mapping outcomes, never errors.
	Resolve(ctx context.Context, sourceFile string, line, column int) Coordinate
}

// ViewResolver shells out to `synctex view`. Invocations are throttled by
// a shared limiter so parallel resolution cannot flood the system with
// subprocesses.
type ViewResolver struct {
	pdfPath string
	exe     string
	limiter *rate.Limiter
}

// Option configures a ViewResolver.
type Option func(*ViewResolver)

// WithExecutable overrides the synctex binary name or path.
func WithExecutable(exe string) Option {
	return func(r *ViewResolver) {
		if exe != "" {
			r.exe = exe
		}
	}
}

// WithRateLimit bounds subprocess spawns per second. Zero or negative
// disables throttling.
func WithRateLimit(perSecond float64) Option {
	return func(r *ViewResolver) {
		if perSecond > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			r.limiter = nil
		}
	}
}

// NewViewResolver creates a resolver for the given rendered PDF.
// Returns ErrToolUnavailable when the binary is not on PATH, so callers
// can report tool absence once instead of per occurrence.
func NewViewResolver(pdfPath string, opts ...Option) (*ViewResolver, error) {
	r := &ViewResolver{
		pdfPath: pdfPath,
		exe:     DefaultExecutable,
		limiter: rate.NewLimiter(rate.Limit(64), 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	if _, err := exec.LookPath(r.exe); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrToolUnavailable, r.exe)
	}
	return r, nil
}

// Resolve invokes `synctex view -i line:column:file -o pdf` and picks the
// best candidate: smallest page number, then smallest (topmost) vertical
// offset. Forward-search tools order candidates loosely; the first
// rendered instance is the semantically relevant one.
func (r *ViewResolver) Resolve(ctx context.Context, sourceFile string, line, column int) Coordinate {
	if column < 1 {
		column = 1
	}
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return NoMapping
		}
	}

	cmd := exec.CommandContext(ctx, r.exe, "view",
		"-i", fmt.Sprintf("%d:%d:%s", line, column, sourceFile),
		"-o", r.pdfPath)
	out, err := cmd.Output()
	if err != nil {
		// synctex exits non-zero when the .synctex(.gz) data is absent or
		// unreadable; that is an expected no-mapping outcome.
		return NoMapping
	}

	return pickCandidate(parseViewOutput(string(out)))
}

// parseViewOutput extracts every Page/x/y candidate record from synctex
// view output. A record starts at a "Page:" line; "x:" and "y:" lines fill
// in the offsets.
func parseViewOutput(out string) []Coordinate {
	var cands []Coordinate
	var cur *Coordinate

	flush := func() {
		if cur != nil && cur.Page >= 1 {
			cands = append(cands, *cur)
		}
		cur = nil
	}

	for _, raw := range strings.Split(out, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "Page:"):
			flush()
			if p, err := strconv.Atoi(strings.TrimSpace(line[len("Page:"):])); err == nil {
				cur = &Coordinate{Page: p}
			}
		case strings.HasPrefix(line, "x:"):
			if cur != nil {
				cur.X, _ = strconv.ParseFloat(strings.TrimSpace(line[len("x:"):]), 64)
			}
		case strings.HasPrefix(line, "y:"):
			if cur != nil {
				cur.Y, _ = strconv.ParseFloat(strings.TrimSpace(line[len("y:"):]), 64)
			}
		}
	}
	flush()
	return cands
}

// pickCandidate selects the smallest-page, then topmost candidate.
func pickCandidate(cands []Coordinate) Coordinate {
	best := NoMapping
	for _, c := range cands {
		if !best.IsMapped() ||
			c.Page < best.Page ||
			(c.Page == best.Page && c.Y < best.Y) {
			best = c
		}
	}
	return best
}
