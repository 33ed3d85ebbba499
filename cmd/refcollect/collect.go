package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/refcollect/internal/config"
	"github.com/matsen/refcollect/internal/pipeline"
	"github.com/matsen/refcollect/internal/render"
	"github.com/matsen/refcollect/internal/report"
	"github.com/matsen/refcollect/internal/storage"
)

var (
	collectTex  string
	collectBib  string
	collectPDF  string
	collectOut  string
	collectSort string
)

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.Flags().StringVar(&collectTex, "tex", "", "Root .tex source file")
	collectCmd.Flags().StringVar(&collectBib, "bib", "", "Bibliography file (default: root with .bib extension)")
	collectCmd.Flags().StringVar(&collectPDF, "pdf", "", "Rendered PDF (default: root with .pdf extension)")
	collectCmd.Flags().StringVar(&collectOut, "out", "", "HTML report path (default: references.html next to the root)")
	collectCmd.Flags().StringVar(&collectSort, "sort", "", "Record order: occurrence, year, or bib")
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run the full pipeline and write the HTML report",
	Long: `Run the full location-resolution pipeline: walk the source tree,
extract citations, parse the bibliography, resolve printed locations, and
write an interactive HTML report plus the query cache.

Missing artifacts degrade the result instead of failing it: without a PDF
or the synctex tool every occurrence is reported unmapped.`,
	RunE: runCollect,
}

// CollectResult is the response for the collect command.
type CollectResult struct {
	Status      string           `json:"status"`
	HTML        string           `json:"html"`
	Records     int              `json:"records"`
	Occurrences int              `json:"occurrences"`
	Artifacts   report.Artifacts `json:"artifacts"`
	Warnings    []report.Warning `json:"warnings,omitempty"`
}

func runCollect(cmd *cobra.Command, args []string) error {
	texPath, err := resolveTexPath(collectTex)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	sortMode, err := report.ParseSortMode(defaultSort(collectSort))
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	res, err := pipeline.Run(cmd.Context(), pipeline.Options{
		TexPath:     texPath,
		BibPath:     collectBib,
		PDFPath:     collectPDF,
		Sort:        sortMode,
		SynctexExe:  config.GetSynctexExe(),
		RateLimit:   config.GetSynctexRateLimit(),
		Parallelism: config.GetParallelism(),
	})
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	html, err := render.GenerateHTML(filepath.Base(texPath), res)
	if err != nil {
		exitWithError(ExitError, "rendering report: %v", err)
	}

	outPath := collectOut
	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(texPath), "references.html")
	}
	if err := os.WriteFile(outPath, []byte(html), 0644); err != nil {
		exitWithError(ExitError, "writing report: %v", err)
	}

	if err := writeCache(texPath, res.Records); err != nil {
		fmt.Fprintf(os.Stderr, "warning: report cache not written: %v\n", err)
	}

	if humanOutput {
		outputHuman("Wrote %s: %d citation keys, %d occurrences\n", outPath, len(res.Records), res.OccurrenceCount)
		for _, w := range res.Warnings {
			outputHuman("warning (%s): %s\n", w.Kind, w.Message)
		}
	} else {
		outputJSON(CollectResult{
			Status:      "collected",
			HTML:        outPath,
			Records:     len(res.Records),
			Occurrences: res.OccurrenceCount,
			Artifacts:   res.Artifacts,
			Warnings:    res.Warnings,
		})
	}
	return nil
}

// defaultSort applies the configured default when no --sort flag is given.
func defaultSort(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return config.GetDefaultSort()
}

// writeCache rebuilds the project report database. The project root is the
// enclosing .refcollect project, created next to the root source file when
// none exists.
func writeCache(texPath string, records []*report.Record) error {
	texDir := filepath.Dir(texPath)
	projRoot, err := config.FindProject(texDir)
	if err != nil {
		projRoot = texDir
	}
	if err := config.EnsureProject(projRoot); err != nil {
		return err
	}

	db, err := storage.OpenDB(config.DBPath(projRoot))
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Rebuild(records)
	return err
}
