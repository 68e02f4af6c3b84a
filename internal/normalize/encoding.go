package normalize

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// The legacy payment exports are produced as Windows-1252 documents; when a
// UTF-8 Greek export is run through that pipeline the text arrives
// mis-decoded ("ΠΑΠΑΔΟΠΟΥΛΟΣ" becomes "Î Î‘Î Î‘Î”ÎŸÎ ÎŸÎ¥Î›ÎŸÎ£"). The repair
// reverses the reinterpretation: re-encode the garbled runes as
// Windows-1252 bytes and decode those bytes as UTF-8.

// mojibake lead bytes of UTF-8 Greek read as Windows-1252.
const mojibakeLeads = "ÎÏÃÂ"

// LooksMisdecoded reports whether the string shows the byte-reinterpretation
// signature of Greek UTF-8 decoded as Windows-1252.
func LooksMisdecoded(s string) bool {
	return strings.ContainsAny(s, mojibakeLeads)
}

// RepairText attempts to undo the mis-decoding. It returns the repaired
// string and true on success; on failure it returns the input unchanged and
// false, so the caller can tag the record encoding-suspect instead of
// propagating garbage into matching.
func RepairText(s string) (string, bool) {
	if !LooksMisdecoded(s) {
		return s, true
	}
	raw, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil {
		return s, false
	}
	if !utf8.ValidString(raw) {
		return s, false
	}
	if LooksMisdecoded(raw) {
		// Double-encoded input; one more pass would be guesswork.
		return s, false
	}
	return raw, true
}
