package normalize

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// table is a header-driven view over a delimited export: column order is
// irrelevant, lookup goes through canonical header keys.
type table struct {
	columns map[string]int
	rows    [][]string
}

var keyFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldKey canonicalizes a header or vocabulary key: lower-case, diacritics
// stripped, inner whitespace collapsed.
func foldKey(s string) string {
	s = strings.ToLower(SanitizeString(s))
	if folded, _, err := transform.String(keyFolder, s); err == nil {
		s = folded
	}
	return strings.ReplaceAll(s, "ς", "σ")
}

// readTable parses the delimited input and resolves each synonym set to a
// column index. Synonyms map canonical name -> accepted header spellings.
func readTable(r io.Reader, source string, synonyms map[string][]string, required []string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	if len(records) == 0 {
		return &table{columns: map[string]int{}}, nil
	}

	byHeader := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		byHeader[foldKey(h)] = i
	}

	columns := make(map[string]int, len(synonyms))
	for name, accepted := range synonyms {
		for _, spelling := range accepted {
			if idx, ok := byHeader[foldKey(spelling)]; ok {
				columns[name] = idx
				break
			}
		}
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%s: required column %q not found in header", source, name)
		}
	}

	return &table{columns: columns, rows: records[1:]}, nil
}

// field returns the named column of a row, or "" when the column is absent
// from this export or the row is short.
func (t *table) field(row []string, name string) string {
	idx, ok := t.columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}
