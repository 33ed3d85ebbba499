package bibtex

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Best-effort LaTeX macro replacements for display fields. Longer and more
// specific patterns come first; plain string replacement, applied in order.
var latexReplacements = []struct{ from, to string }{
	{`\textquotedblleft`, "“"}, {`\textquotedblright`, "”"},
	{`\textquoteleft`, "‘"}, {`\textquoteright`, "’"},
	{`\textendash`, "–"}, {`\textemdash`, "—"},
	{`\textellipsis`, "…"}, {`\ldots`, "…"}, {`\dots`, "…"},
	{`\textbackslash`, `\`}, {`\backslash`, `\`},
	{`\textregistered`, "®"}, {`\texttrademark`, "™"},
	{`\textdegree`, "°"}, {`\textbullet`, "•"},
	{`\textsection`, "§"}, {`\textparagraph`, "¶"},
	{`\guillemotleft`, "«"}, {`\guillemotright`, "»"},

	{`\&`, "&"}, {`\%`, "%"}, {`\_`, "_"}, {`\$`, "$"}, {`\#`, "#"},
	{`---`, "—"}, {`--`, "–"},
	{"``", "“"}, {`''`, "”"},

	{`\varepsilon`, "ε"}, {`\vartheta`, "ϑ"}, {`\varphi`, "ϕ"},
	{`\alpha`, "α"}, {`\beta`, "β"}, {`\gamma`, "γ"},
	{`\delta`, "δ"}, {`\epsilon`, "ε"}, {`\zeta`, "ζ"},
	{`\eta`, "η"}, {`\theta`, "θ"}, {`\iota`, "ι"},
	{`\kappa`, "κ"}, {`\lambda`, "λ"}, {`\mu`, "μ"},
	{`\nu`, "ν"}, {`\xi`, "ξ"}, {`\pi`, "π"},
	{`\rho`, "ρ"}, {`\sigma`, "σ"}, {`\tau`, "τ"},
	{`\upsilon`, "υ"}, {`\phi`, "φ"}, {`\chi`, "χ"},
	{`\psi`, "ψ"}, {`\omega`, "ω"},
	{`\Gamma`, "Γ"}, {`\Delta`, "Δ"}, {`\Theta`, "Θ"},
	{`\Lambda`, "Λ"}, {`\Xi`, "Ξ"}, {`\Pi`, "Π"},
	{`\Sigma`, "Σ"}, {`\Upsilon`, "Υ"}, {`\Phi`, "Φ"},
	{`\Psi`, "Ψ"}, {`\Omega`, "Ω"},

	{`\approx`, "≈"}, {`\propto`, "∝"}, {`\equiv`, "≡"},
	{`\rightarrow`, "→"}, {`\leftarrow`, "←"}, {`\to`, "→"},
	{`\times`, "×"}, {`\cdot`, "⋅"}, {`\pm`, "±"},
	{`\leq`, "≤"}, {`\geq`, "≥"}, {`\neq`, "≠"},
	{`\infty`, "∞"}, {`\sim`, "∼"}, {`\circ`, "∘"},
	{`\degree`, "°"},

	{`\ae`, "æ"}, {`\AE`, "Æ"}, {`\oe`, "œ"}, {`\OE`, "Œ"},
	{`\aa`, "å"}, {`\AA`, "Å"}, {`\ss`, "ß"},

	{`\,`, " "}, {`\;`, " "}, {`\:`, " "}, {`\!`, ""},
}

// accentMarks maps accent command characters to combining marks.
var accentMarks = map[byte]rune{
	'"':  '̈', // diaeresis
	'\'': '́', // acute
	'`':  '̀', // grave
	'^':  '̂', // circumflex
	'~':  '̃', // tilde
	'H':  '̋', // double acute
	'c':  '̧', // cedilla
	'k':  '̨', // ogonek
	'r':  '̊', // ring above
	'v':  '̌', // caron
	'=':  '̄', // macron
	'.':  '̇', // dot above
	'u':  '̆', // breve
	'b':  '̱', // macron below
}

var (
	accentRegex     = regexp.MustCompile("\\\\([\"'`^~Hckrv=.ub])\\s*\\{?\\s*([A-Za-zıȷ])\\s*\\}?")
	dotlessRegex    = regexp.MustCompile(`\\([ij])\b`)
	inlineMathRegex = regexp.MustCompile(`\$(?:\\\$|[^$])*\$`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	inlineComment   = regexp.MustCompile(`(^|[^\\])%.*`)
	andSplitRegex   = regexp.MustCompile(`\s+and\s+`)
	yearRegex       = regexp.MustCompile(`\d{4}`)
)

// CleanField converts a raw BibTeX field value to display text: common
// macros are substituted, accents become combined Unicode, inline math and
// protective braces are dropped, and whitespace is collapsed. Output is
// NFC-normalized so accented names compare and render consistently.
//
// Macro substitution must run before accent rewriting: the letter-named
// accent commands (\b, \c, \k, \r, \u, \v, \H) are prefixes of macros like
// \beta, \circ, \kappa, \rho, \upsilon and \varepsilon.
func CleanField(s string) string {
	if s == "" {
		return s
	}
	s = inlineComment.ReplaceAllString(s, "$1")
	for _, r := range latexReplacements {
		s = strings.ReplaceAll(s, r.from, r.to)
	}
	s = replaceAccents(s)
	s = strings.ReplaceAll(s, "~", " ") // unprotected ties; \~ is gone by now
	s = inlineMathRegex.ReplaceAllString(s, "")
	s = strings.NewReplacer("{", "", "}", "").Replace(s)
	s = strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
	return norm.NFC.String(s)
}

// replaceAccents rewrites \'{e}-style accent commands into the base letter
// plus a combining mark. Dotless \i and \j are substituted first so they
// can carry accents; the word boundary keeps \iota and \infty intact.
func replaceAccents(s string) string {
	s = dotlessRegex.ReplaceAllStringFunc(s, func(m string) string {
		if m == `\i` {
			return "ı"
		}
		return "ȷ"
	})
	return accentRegex.ReplaceAllStringFunc(s, func(m string) string {
		sub := accentRegex.FindStringSubmatch(m)
		mark, ok := accentMarks[sub[1][0]]
		if !ok {
			return m
		}
		return sub[2] + string(mark)
	})
}

// SplitAuthors splits a BibTeX author field on the "and" separator and
// cleans each name for display.
func SplitAuthors(field string) []string {
	if strings.TrimSpace(field) == "" {
		return nil
	}
	var out []string
	for _, part := range andSplitRegex.Split(field, -1) {
		if name := CleanField(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Year extracts a four-digit year from the entry's year field.
// Returns 0 when no parseable year is present.
func (e *Entry) Year() int {
	raw := e.Get("year")
	m := yearRegex.FindString(raw)
	if m == "" {
		return 0
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return y
}

// DOI returns the entry's DOI normalized for linking: resolver-URL
// prefixes and doi: labels stripped, surrounding braces removed.
func (e *Entry) DOI() string {
	doi := strings.TrimSpace(e.Get("doi"))
	doi = strings.TrimFunc(doi, func(r rune) bool {
		return r == '{' || r == '}' || unicode.IsSpace(r)
	})
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "doi.org/", "DOI:", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return doi
}

// URL returns the entry's url field trimmed, or "".
func (e *Entry) URL() string {
	return strings.TrimSpace(e.Get("url"))
}
