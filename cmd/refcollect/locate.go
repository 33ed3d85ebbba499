package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/refcollect/internal/config"
	"github.com/matsen/refcollect/internal/pagelines"
	"github.com/matsen/refcollect/internal/synctex"
)

var (
	locateTex string
	locatePDF string
)

func init() {
	rootCmd.AddCommand(locateCmd)
	locateCmd.Flags().StringVar(&locateTex, "tex", "", "Root .tex source file")
	locateCmd.Flags().StringVar(&locatePDF, "pdf", "", "Rendered PDF (default: root with .pdf extension)")
}

var locateCmd = &cobra.Command{
	Use:   "locate FILE:LINE[:COL]",
	Short: "Resolve one source location to its printed position",
	Long: `Resolve a single source location to its rendered-PDF coordinate and
printed line number. The column defaults to 1 when omitted.`,
	Args: cobra.ExactArgs(1),
	RunE: runLocate,
}

// LocateResult is the response for the locate command.
type LocateResult struct {
	File    string  `json:"file"`
	SrcLine int     `json:"src_line"`
	SrcCol  int     `json:"src_col"`
	Mapped  bool    `json:"mapped"`
	Page    int     `json:"page,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	PDFLine int     `json:"pdf_line,omitempty"`
}

func runLocate(cmd *cobra.Command, args []string) error {
	texPath, err := resolveTexPath(locateTex)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	file, line, col, err := parseLocator(args[0])
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	pdfPath := locatePDF
	if pdfPath == "" {
		pdfPath = strings.TrimSuffix(texPath, filepath.Ext(texPath)) + ".pdf"
	}

	opts := []synctex.Option{synctex.WithExecutable(config.GetSynctexExe())}
	if rl := config.GetSynctexRateLimit(); rl > 0 {
		opts = append(opts, synctex.WithRateLimit(rl))
	}
	resolver, err := synctex.NewViewResolver(pdfPath, opts...)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	coord := resolver.Resolve(cmd.Context(), file, line, col)
	result := LocateResult{File: file, SrcLine: line, SrcCol: col}
	if coord.IsMapped() {
		result.Mapped = true
		result.Page = coord.Page
		result.X = coord.X
		result.Y = coord.Y
		result.PDFLine = projectLine(pdfPath, coord)
	}

	if humanOutput {
		if !result.Mapped {
			outputHuman("%s:%d:%d -> unmapped\n", file, line, col)
		} else {
			outputHuman("%s:%d:%d -> %s (x=%.2f y=%.2f)\n",
				file, line, col, formatLocation(result.Page, result.PDFLine), result.X, result.Y)
		}
		return nil
	}
	return outputJSON(result)
}

// projectLine maps a coordinate to a printed line number, or 0 when the
// page's text fragments are unavailable.
func projectLine(pdfPath string, coord synctex.Coordinate) int {
	extractor, err := pagelines.OpenPDF(pdfPath)
	if err != nil {
		return 0
	}
	defer extractor.Close()

	frags, err := extractor.FragmentsForPage(coord.Page)
	if err != nil {
		return 0
	}
	loc := pagelines.Project(coord, pagelines.BuildLines(coord.Page, frags))
	return loc.Line
}

// parseLocator splits a FILE:LINE[:COL] argument. The file part may itself
// contain colons; the numeric suffix wins.
func parseLocator(s string) (file string, line, col int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return "", 0, 0, errors.New("locator must be FILE:LINE[:COL]")
	}

	col = 1
	last := parts[len(parts)-1]
	secondLast := parts[len(parts)-2]

	if len(parts) >= 3 {
		if l, lerr := strconv.Atoi(secondLast); lerr == nil {
			if c, cerr := strconv.Atoi(last); cerr == nil {
				file = strings.Join(parts[:len(parts)-2], ":")
				return file, l, c, validateLocator(file, l, c)
			}
		}
	}

	l, lerr := strconv.Atoi(last)
	if lerr != nil {
		return "", 0, 0, fmt.Errorf("invalid line number %q", last)
	}
	file = strings.Join(parts[:len(parts)-1], ":")
	return file, l, col, validateLocator(file, l, col)
}

func validateLocator(file string, line, col int) error {
	if file == "" {
		return errors.New("locator has an empty file part")
	}
	if line < 1 || col < 1 {
		return errors.New("line and column must be positive")
	}
	return nil
}
