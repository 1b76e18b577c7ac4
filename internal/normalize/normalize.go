// Package normalize canonicalizes titles into grouping keys.
//
// Keys are only ever compared for equality and never shown to users.
package normalize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// separators are removed from keys entirely and tolerated anywhere inside a marker.
const separators = `\s\-‐‑‒–—―_.。・`

var bracketPairs = [][2]string{
	{"[", "]"},
	{"(", ")"},
	{"{", "}"},
	{"<", ">"},
	{"［", "］"},
	{"（", "）"},
	{"【", "】"},
	{"〔", "〕"},
	{"「", "」"},
	{"《", "》"},
}

var markerWords = []string{
	"complete", "completed", "full", "full text", "proofread", "proofreading",
	"finished", "unabridged", "final", "revised",
	"完结", "完本", "全本", "全集", "精校", "精校版", "校对版", "完整版", "全文", "完",
}

var (
	foldedMarkers   = buildMarkerPattern(false)
	anyCaseMarkers  = buildMarkerPattern(true)
	separatorRunsRe = regexp.MustCompile(`[` + separators + `]+`)
)

func buildMarkerPattern(ignoreCase bool) *regexp.Regexp {
	sep := `[` + separators + `]*`

	words := append([]string(nil), markerWords...)
	sort.SliceStable(words, func(i, j int) bool {
		return utf8.RuneCountInString(words[i]) > utf8.RuneCountInString(words[j])
	})

	alts := make([]string, 0, len(words))
	for _, word := range words {
		var b strings.Builder
		first := true
		for _, r := range word {
			if unicode.IsSpace(r) {
				continue
			}
			if !first {
				b.WriteString(sep)
			}
			b.WriteString(regexp.QuoteMeta(string(r)))
			first = false
		}
		alts = append(alts, b.String())
	}
	body := sep + `(?:` + strings.Join(alts, "|") + `)` + sep

	pairs := make([]string, 0, len(bracketPairs))
	for _, pair := range bracketPairs {
		pairs = append(pairs, regexp.QuoteMeta(pair[0])+body+regexp.QuoteMeta(pair[1]))
	}

	pattern := `(?:` + strings.Join(pairs, "|") + `)`
	if ignoreCase {
		pattern = `(?i)` + pattern
	}
	return regexp.MustCompile(pattern)
}

// Key returns the canonical grouping key for title: NFKC, Unicode case folding,
// marker removal, then removal of whitespace, dashes, underscores and periods.
// Key is idempotent.
func Key(title string) string {
	key := title
	// Composition after removing characters can expose new foldable runes, so
	// iterate to a fixed point. Each pass can only shorten or recompose.
	for range 4 {
		next := keyPass(key)
		if next == key {
			break
		}
		key = next
	}
	return key
}

func keyPass(s string) string {
	s = norm.NFKC.String(s)
	// A Caser is stateful and must not be shared across goroutines.
	s = cases.Fold().String(s)
	s = norm.NFKC.String(s)
	s = stripAll(foldedMarkers, s)
	return collapse(s)
}

// StripMarkers removes completion and edition markers while keeping the
// original case, then trims and squeezes inner whitespace.
func StripMarkers(title string) string {
	stripped := stripAll(anyCaseMarkers, title)
	return strings.Join(strings.Fields(stripped), " ")
}

// AuthorKey returns the comparison form of an author name.
func AuthorKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func stripAll(re *regexp.Regexp, s string) string {
	for {
		next := re.ReplaceAllString(s, "")
		if next == s {
			return s
		}
		s = next
	}
}

func collapse(s string) string {
	return separatorRunsRe.ReplaceAllString(s, "")
}
