// Package main provides the refcollect CLI entry point.
package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/refcollect/internal/config"
)

var errNoTexRoot = errors.New("no --tex flag given and no tex_root in project config")

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "refcollect",
	Short: "Locate citations in rendered LaTeX documents",
	Long: `refcollect maps every citation in a LaTeX source tree to its printed
location in the compiled PDF.

It walks the \input/\include graph, extracts citation occurrences, resolves
each to a (page, x, y) coordinate via the synctex tool, projects coordinates
onto printed line numbers from PDF text fragments, and aggregates the result
into a per-citation-key report. All commands output JSON by default for easy
integration with other tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	_ = godotenv.Load()
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// resolveTexPath returns the root source file to operate on: the --tex flag
// if given, otherwise the tex_root from the enclosing project config.
func resolveTexPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if root := os.Getenv("REFCOLLECT_ROOT"); root != "" {
		cwd = root
	}

	projRoot, err := config.FindProject(cwd)
	if err != nil {
		return "", err
	}
	cfg, err := config.Load(projRoot)
	if err != nil {
		return "", err
	}
	if cfg.TexRoot == "" {
		return "", errNoTexRoot
	}
	return joinProject(projRoot, cfg.TexRoot), nil
}

// joinProject resolves a config path relative to the project root, leaving
// absolute paths untouched.
func joinProject(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
