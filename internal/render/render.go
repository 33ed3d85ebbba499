// Package render produces the self-contained interactive HTML report.
//
// The core pipeline hands over plain records; everything presentational
// (card markup, view toggling, client-side sorting) lives here.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/matsen/refcollect/internal/pipeline"
	"github.com/matsen/refcollect/internal/report"
)

// compiledTemplate is parsed at init time to fail fast on template errors.
var compiledTemplate *template.Template

func init() {
	compiledTemplate = template.Must(template.New("report").Parse(htmlTemplate))
}

// card is the JSON payload for one citation card in the report page.
type card struct {
	Key      string   `json:"key"`
	Unknown  bool     `json:"unknown,omitempty"`
	Title    string   `json:"title,omitempty"`
	Authors  []string `json:"authors,omitempty"`
	Year     int      `json:"year,omitempty"`
	DOI      string   `json:"doi,omitempty"`
	URL      string   `json:"url,omitempty"`
	Abstract string   `json:"abstract,omitempty"`

	Occurrences []cardOccurrence `json:"occurrences"`
	OrderNum    int              `json:"orderNum"`
	FirstSeq    int              `json:"firstSeq"`
	BibIndex    int              `json:"bibIndex"`
}

// cardOccurrence is one occurrence row: the source position always, the
// printed position when resolved. Page and line are pointers so absent
// mappings serialize as null rather than zero.
type cardOccurrence struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Page    *int   `json:"pdfPage"`
	PDFLine *int   `json:"pdfLineno"`
	Snippet string `json:"snippet,omitempty"`
}

// templateData holds data for the HTML template.
type templateData struct {
	PageTitle   string
	CardsJSON   template.JS
	DefaultView string
	Artifacts   report.Artifacts
}

// GenerateHTML renders a pipeline result into a standalone HTML page.
// The page defaults to the printed-location view when page mapping was
// possible at all, and to the source view otherwise.
func GenerateHTML(title string, res *pipeline.Result) (string, error) {
	if res == nil {
		return "", fmt.Errorf("result cannot be nil")
	}

	cards := buildCards(res.Records)
	payload, err := json.Marshal(cards)
	if err != nil {
		return "", err
	}

	view := "tex"
	if res.Artifacts.PDF && res.Artifacts.SyncTeXTool {
		view = "pdf"
	}

	data := templateData{
		PageTitle:   title,
		CardsJSON:   template.JS(escapeForScript(payload)),
		DefaultView: view,
		Artifacts:   res.Artifacts,
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// buildCards converts records to their card payloads.
func buildCards(records []*report.Record) []card {
	cards := make([]card, 0, len(records))
	for _, rec := range records {
		c := card{
			Key:      rec.Key,
			Unknown:  rec.Unknown,
			Title:    rec.Title,
			Authors:  rec.Authors,
			Year:     rec.Year,
			DOI:      rec.DOI,
			URL:      rec.URL,
			Abstract: rec.Abstract,
			OrderNum: rec.OrderNum,
			FirstSeq: rec.FirstSeq,
		}
		if rec.Entry != nil {
			c.BibIndex = rec.Entry.OrderIndex
		} else {
			c.BibIndex = -1
		}
		for _, p := range rec.Occurrences {
			occ := cardOccurrence{
				File:    p.Occurrence.File,
				Line:    p.Occurrence.Line,
				Snippet: p.Occurrence.Snippet,
			}
			if p.Location.HasPage() {
				page := p.Location.Page
				occ.Page = &page
			}
			if p.Location.HasLine() {
				line := p.Location.Line
				occ.PDFLine = &line
			}
			c.Occurrences = append(c.Occurrences, occ)
		}
		cards = append(cards, c)
	}
	return cards
}

// escapeForScript keeps embedded JSON from terminating the script tag.
func escapeForScript(b []byte) string {
	s := strings.ReplaceAll(string(b), "</", `<\/`)
	return strings.ReplaceAll(s, "<!--", `<\!--`)
}
