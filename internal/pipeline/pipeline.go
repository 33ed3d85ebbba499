// Package pipeline orchestrates the location-resolution stages: source
// walk, citation extraction, bibliography parse, coordinate resolution,
// line projection, and aggregation.
//
// Stages run strictly in order and each fully consumes its predecessor's
// output. Coordinate resolution and line projection fan out across
// occurrences, but results are slotted by occurrence index so the output
// never depends on completion order.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/matsen/refcollect/internal/bibtex"
	"github.com/matsen/refcollect/internal/cite"
	"github.com/matsen/refcollect/internal/pagelines"
	"github.com/matsen/refcollect/internal/report"
	"github.com/matsen/refcollect/internal/synctex"
	"github.com/matsen/refcollect/internal/texsource"
)

// DefaultParallelism bounds concurrent synctex lookups.
const DefaultParallelism = 4

// Options configures a pipeline run. TexPath is required; everything else
// has derived defaults.
type Options struct {
	TexPath string
	// BibPath defaults to TexPath with a .bib extension.
	BibPath string
	// PDFPath defaults to TexPath with a .pdf extension.
	PDFPath string
	// Sort selects record ordering; empty means first-occurrence order.
	Sort report.SortMode
	// SynctexExe overrides the synctex binary name.
	SynctexExe string
	// RateLimit bounds synctex subprocess spawns per second; zero keeps
	// the resolver default.
	RateLimit float64
	// Parallelism bounds concurrent lookups; zero means DefaultParallelism.
	Parallelism int
	// Logger receives debug logging; nil means slog.Default().
	Logger *slog.Logger
}

// Result is the full pipeline output handed to renderers and stores.
type Result struct {
	Records   []*report.Record  `json:"records"`
	Warnings  []report.Warning  `json:"warnings,omitempty"`
	Artifacts report.Artifacts  `json:"artifacts"`
	// SourceFiles lists walked files in traversal order.
	SourceFiles []string `json:"source_files"`
	// OccurrenceCount is the total number of extracted occurrences.
	OccurrenceCount int `json:"occurrence_count"`
}

// Run executes the pipeline. Only an unreadable root source file is an
// error; every other failure degrades to warnings and unmapped states.
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	bibPath := opts.BibPath
	if bibPath == "" {
		bibPath = replaceExt(opts.TexPath, ".bib")
	}
	pdfPath := opts.PDFPath
	if pdfPath == "" {
		pdfPath = replaceExt(opts.TexPath, ".pdf")
	}

	// Stage 1: source graph walk.
	walk, err := texsource.NewWalker().Walk(opts.TexPath)
	if err != nil {
		return nil, err
	}
	res := &Result{Artifacts: report.Artifacts{TexRoot: true}}
	for _, f := range walk.Files {
		res.SourceFiles = append(res.SourceFiles, f.Path)
	}
	for _, m := range walk.Missing {
		res.Warnings = append(res.Warnings, report.Warning{
			Kind:    report.WarnMissingInclude,
			Message: fmt.Sprintf("%s:%d: included file not found: %s", m.Parent, m.Line, m.Target),
		})
	}
	log.Debug("source walk complete", "files", len(walk.Files), "missing", len(walk.Missing))

	// Stage 2: citation extraction.
	occs := cite.Extract(walk.Files)
	res.OccurrenceCount = len(occs)
	log.Debug("citations extracted", "occurrences", len(occs))

	// Stage 3: bibliography index. A missing or unreadable bib file is a
	// normal state; every key then aggregates as unknown.
	var ix *bibtex.Index
	if _, statErr := os.Stat(bibPath); statErr == nil {
		parsed, parseErr := bibtex.ParseFile(bibPath)
		if parseErr != nil {
			res.Warnings = append(res.Warnings, report.Warning{
				Kind:    report.WarnBibUnreadable,
				Message: fmt.Sprintf("bibliography not readable: %v", parseErr),
			})
			log.Debug("bibliography unreadable", "path", bibPath, "err", parseErr)
		} else {
			ix = parsed
			res.Artifacts.Bib = true
			for _, d := range ix.Duplicates {
				res.Warnings = append(res.Warnings, report.Warning{
					Kind:    report.WarnDuplicateKey,
					Message: fmt.Sprintf("bibliography key %q declared more than once; later declaration wins", d.Key),
				})
			}
			log.Debug("bibliography parsed", "entries", ix.Len(), "duplicates", len(ix.Duplicates))
		}
	}

	// Stages 4-5: coordinate resolution and line projection.
	locs, warns := resolveLocations(ctx, opts, pdfPath, occs, &res.Artifacts, log)
	res.Warnings = append(res.Warnings, warns...)

	// Stage 6: aggregation.
	records, aggWarns := report.Aggregate(occs, ix, locs, opts.Sort)
	res.Records = records
	res.Warnings = append(res.Warnings, aggWarns...)
	return res, nil
}

// resolveLocations maps every occurrence to its printed location. All
// degradation paths land here: no PDF or no synctex tool leaves everything
// fully unmapped; missing page fragments leave pages page-only.
func resolveLocations(ctx context.Context, opts Options, pdfPath string, occs []cite.Occurrence, arts *report.Artifacts, log *slog.Logger) ([]pagelines.Location, []report.Warning) {
	var warnings []report.Warning
	locs := make([]pagelines.Location, len(occs))

	if _, err := os.Stat(pdfPath); err != nil {
		log.Debug("no rendered pdf; skipping location resolution", "path", pdfPath)
		return locs, warnings
	}
	arts.PDF = true
	arts.SyncTeXData = syncDataPresent(pdfPath)

	resolverOpts := []synctex.Option{synctex.WithExecutable(opts.SynctexExe)}
	if opts.RateLimit > 0 {
		resolverOpts = append(resolverOpts, synctex.WithRateLimit(opts.RateLimit))
	}
	resolver, err := synctex.NewViewResolver(pdfPath, resolverOpts...)
	if err != nil {
		// Reported once at the pipeline level, not per occurrence.
		warnings = append(warnings, report.Warning{
			Kind:    report.WarnToolUnavailable,
			Message: err.Error(),
		})
		return locs, warnings
	}
	arts.SyncTeXTool = true

	coords := resolveCoordinates(ctx, resolver, occs, opts.Parallelism)

	// Page fragment bands are computed once per page and shared.
	lineIndex := buildLineIndex(pdfPath, coords, log)
	for i, c := range coords {
		locs[i] = pagelines.Project(c, lineIndex[c.Page])
	}
	return locs, warnings
}

// resolveCoordinates fans synctex lookups out across occurrences with
// results keyed by occurrence index.
func resolveCoordinates(ctx context.Context, resolver synctex.Resolver, occs []cite.Occurrence, parallelism int) []synctex.Coordinate {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	coords := make([]synctex.Coordinate, len(occs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, occ := range occs {
		g.Go(func() error {
			coords[i] = resolver.Resolve(gctx, occ.File, occ.Line, occ.Column)
			return nil
		})
	}
	// Workers only write their own slot and never return errors.
	_ = g.Wait()
	return coords
}

// buildLineIndex extracts and bands fragments for every page that has at
// least one coordinate candidate. An unopenable PDF or fragment-less page
// simply yields no bands, downgrading those pages to page-only.
func buildLineIndex(pdfPath string, coords []synctex.Coordinate, log *slog.Logger) map[int][]pagelines.PageLine {
	index := make(map[int][]pagelines.PageLine)

	extractor, err := pagelines.OpenPDF(pdfPath)
	if err != nil {
		log.Debug("pdf text extraction unavailable", "path", pdfPath, "err", err)
		return index
	}
	defer extractor.Close()

	for _, c := range coords {
		if !c.IsMapped() {
			continue
		}
		if _, done := index[c.Page]; done {
			continue
		}
		frags, err := extractor.FragmentsForPage(c.Page)
		if err != nil {
			log.Debug("no fragments for page", "page", c.Page, "err", err)
			index[c.Page] = nil
			continue
		}
		index[c.Page] = pagelines.BuildLines(c.Page, frags)
	}
	return index
}

// CheckArtifacts probes for the build side-files and the synctex tool
// without running the pipeline. Empty bibPath and pdfPath derive from
// texPath the same way Run does.
func CheckArtifacts(texPath, bibPath, pdfPath, synctexExe string) report.Artifacts {
	if bibPath == "" {
		bibPath = replaceExt(texPath, ".bib")
	}
	if pdfPath == "" {
		pdfPath = replaceExt(texPath, ".pdf")
	}
	if synctexExe == "" {
		synctexExe = synctex.DefaultExecutable
	}

	var arts report.Artifacts
	if _, err := os.Stat(texPath); err == nil {
		arts.TexRoot = true
	}
	if _, err := os.Stat(bibPath); err == nil {
		arts.Bib = true
	}
	if _, err := os.Stat(pdfPath); err == nil {
		arts.PDF = true
		arts.SyncTeXData = syncDataPresent(pdfPath)
	}
	if _, err := exec.LookPath(synctexExe); err == nil {
		arts.SyncTeXTool = true
	}
	return arts
}

// syncDataPresent checks for the synchronization side-file next to the PDF.
func syncDataPresent(pdfPath string) bool {
	base := strings.TrimSuffix(pdfPath, ".pdf")
	for _, ext := range []string{".synctex.gz", ".synctex"} {
		if _, err := os.Stat(base + ext); err == nil {
			return true
		}
	}
	return false
}

// replaceExt swaps a path's extension.
func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
