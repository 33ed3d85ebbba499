package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/refcollect/internal/cite"
	"github.com/matsen/refcollect/internal/texsource"
)

var scanTex string

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanTex, "tex", "", "Root .tex source file")
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Walk the source tree and list citation occurrences",
	Long: `Walk the \input/\include graph from the root source file and extract
citation occurrences in document traversal order, without touching the PDF
or the bibliography.`,
	RunE: runScan,
}

// ScanResult is the response for the scan command.
type ScanResult struct {
	Files       []string                   `json:"files"`
	Missing     []texsource.MissingInclude `json:"missing,omitempty"`
	Occurrences []cite.Occurrence          `json:"occurrences"`
}

func runScan(cmd *cobra.Command, args []string) error {
	texPath, err := resolveTexPath(scanTex)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	walk, err := texsource.NewWalker().Walk(texPath)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	occs := cite.Extract(walk.Files)

	if humanOutput {
		for _, f := range walk.Files {
			outputHuman("file: %s\n", f.Path)
		}
		for _, m := range walk.Missing {
			outputHuman("missing: %s (included at %s:%d)\n", m.Target, m.Parent, m.Line)
		}
		for _, o := range occs {
			outputHuman("%s:%d:%d %s\n", o.File, o.Line, o.Column, o.Key)
		}
		return nil
	}

	result := ScanResult{Missing: walk.Missing, Occurrences: occs}
	for _, f := range walk.Files {
		result.Files = append(result.Files, f.Path)
	}
	return outputJSON(result)
}
