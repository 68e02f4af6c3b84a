package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Payer names arrive as messy free text: uppercase legal names, Greek and
// Latin script mixed, honorifics, company-form suffixes. Canonicalization
// folds everything to an unaccented Latin token set so that
// "ΜΠΑΚΑΛΗΣ ΕΣΤΙΑΤΟΡΙΟ ΙΚΕ" and "Bakalis" land on comparable tokens.

// Greek phonetic digraphs, applied before single-letter transliteration
// (names like Μπακαλής romanize as Bakalis, not Mpakalis).
var greekDigraphs = strings.NewReplacer(
	"ΜΠ", "B",
	"ΝΤ", "D",
	"ΟΥ", "OU",
)

var greekLetters = map[rune]string{
	'Α': "A", 'Β': "V", 'Γ': "G", 'Δ': "D", 'Ε': "E", 'Ζ': "Z", 'Η': "I",
	'Θ': "TH", 'Ι': "I", 'Κ': "K", 'Λ': "L", 'Μ': "M", 'Ν': "N", 'Ξ': "X",
	'Ο': "O", 'Π': "P", 'Ρ': "R", 'Σ': "S", 'Τ': "T", 'Υ': "Y", 'Φ': "F",
	'Χ': "X", 'Ψ': "PS", 'Ω': "O",
}

// noiseTokens are honorifics and company-form suffixes that carry no
// identity signal.
var noiseTokens = map[string]struct{}{
	"MR": {}, "MRS": {}, "MS": {}, "DR": {}, "KOS": {}, "KA": {},
	"IKE": {}, "EPE": {}, "LTD": {}, "INC": {}, "GMBH": {},
	"AE": {}, "OE": {}, "EE": {},
	"ESTIATORIO": {}, "ZAXAROPLASTEIO": {}, "ESTIASI": {}, "CATERING": {},
}

var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// CanonicalName folds a free-text name to its canonical Latin form:
// uppercase, diacritics stripped, Greek transliterated, punctuation and
// noise tokens removed.
func CanonicalName(name string) string {
	return strings.Join(NameTokens(name), " ")
}

// NameTokens returns the canonical token set of a name, dropping noise
// tokens and tokens too short to carry signal. Order is preserved,
// duplicates removed.
func NameTokens(name string) []string {
	name = strings.ToUpper(strings.TrimSpace(name))
	if folded, _, err := transform.String(diacriticFolder, name); err == nil {
		name = folded
	}
	name = greekDigraphs.Replace(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			if latin, ok := greekLetters[r]; ok {
				b.WriteString(latin)
			} else {
				b.WriteByte(' ')
			}
		}
	}

	seen := make(map[string]struct{})
	var tokens []string
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) <= 2 {
			continue
		}
		if _, noise := noiseTokens[tok]; noise {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	return tokens
}

// nameKey is the order-insensitive identity of a token set, used for the
// full-token-set equality pass.
func nameKey(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return strings.Join(sorted, "|")
}
