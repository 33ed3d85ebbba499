package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/refcollect/internal/bibtex"
)

var bibPath string

func init() {
	rootCmd.AddCommand(bibCmd)
	bibCmd.Flags().StringVar(&bibPath, "bib", "", "Bibliography file")
	bibCmd.MarkFlagRequired("bib")
}

var bibCmd = &cobra.Command{
	Use:   "bib",
	Short: "Parse a bibliography file and list its entries",
	Long: `Parse a BibTeX file and list its entries in declaration order with
cleaned display fields. Re-declared keys keep the later declaration and
its position.`,
	RunE: runBib,
}

// BibEntry is one entry in the bib command output.
type BibEntry struct {
	Key     string   `json:"key"`
	Type    string   `json:"type"`
	Title   string   `json:"title,omitempty"`
	Authors []string `json:"authors,omitempty"`
	Year    int      `json:"year,omitempty"`
	DOI     string   `json:"doi,omitempty"`
	URL     string   `json:"url,omitempty"`
}

// BibResult is the response for the bib command.
type BibResult struct {
	Entries    []BibEntry `json:"entries"`
	Duplicates []string   `json:"duplicates,omitempty"`
}

func runBib(cmd *cobra.Command, args []string) error {
	ix, err := bibtex.ParseFile(bibPath)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	var result BibResult
	for _, e := range ix.Entries() {
		result.Entries = append(result.Entries, BibEntry{
			Key:     e.Key,
			Type:    e.Type,
			Title:   bibtex.CleanField(e.Get("title")),
			Authors: bibtex.SplitAuthors(e.Get("author")),
			Year:    e.Year(),
			DOI:     e.DOI(),
			URL:     e.URL(),
		})
	}
	for _, d := range ix.Duplicates {
		result.Duplicates = append(result.Duplicates, d.Key)
	}

	if humanOutput {
		for i, e := range result.Entries {
			if e.Year > 0 {
				outputHuman("%d. %s (%d)\n", i+1, e.Key, e.Year)
			} else {
				outputHuman("%d. %s\n", i+1, e.Key)
			}
			if e.Title != "" {
				outputHuman("   %s\n", truncateString(e.Title, TitleMaxLen))
			}
			if len(e.Authors) > 0 {
				outputHuman("   %s\n", formatAuthorsShort(e.Authors, 3))
			}
		}
		for _, d := range result.Duplicates {
			outputHuman("duplicate key: %s\n", d)
		}
		return nil
	}
	return outputJSON(result)
}
