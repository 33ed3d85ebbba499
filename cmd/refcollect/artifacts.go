package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/refcollect/internal/config"
	"github.com/matsen/refcollect/internal/pipeline"
)

var (
	artifactsTex string
	artifactsBib string
	artifactsPDF string
)

func init() {
	rootCmd.AddCommand(artifactsCmd)
	artifactsCmd.Flags().StringVar(&artifactsTex, "tex", "", "Root .tex source file")
	artifactsCmd.Flags().StringVar(&artifactsBib, "bib", "", "Bibliography file (default: root with .bib extension)")
	artifactsCmd.Flags().StringVar(&artifactsPDF, "pdf", "", "Rendered PDF (default: root with .pdf extension)")
}

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Report which build artifacts and tools are present",
	Long: `Probe for the root source file, bibliography, rendered PDF, synctex
side-file, and the synctex tool, and report what a collect run would have
to work with.`,
	RunE: runArtifacts,
}

func runArtifacts(cmd *cobra.Command, args []string) error {
	texPath, err := resolveTexPath(artifactsTex)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	arts := pipeline.CheckArtifacts(texPath, artifactsBib, artifactsPDF, config.GetSynctexExe())

	if humanOutput {
		outputHuman("tex root:     %s\n", presence(arts.TexRoot))
		outputHuman("bibliography: %s\n", presence(arts.Bib))
		outputHuman("rendered pdf: %s\n", presence(arts.PDF))
		outputHuman("synctex data: %s\n", presence(arts.SyncTeXData))
		outputHuman("synctex tool: %s\n", presence(arts.SyncTeXTool))
		return nil
	}
	return outputJSON(arts)
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "missing"
}
