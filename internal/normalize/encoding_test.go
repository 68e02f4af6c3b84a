package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/text/encoding/charmap"
)

// misdecode reproduces the legacy pipeline's corruption: UTF-8 bytes read
// back as Windows-1252.
func misdecode(t *testing.T, s string) string {
	t.Helper()
	garbled, err := charmap.Windows1252.NewDecoder().String(s)
	require.NoError(t, err)
	return garbled
}

func TestLooksMisdecoded(t *testing.T) {
	garbled := misdecode(t, "ΠΑΠΑΔΟΠΟΥΛΟΣ")
	assert.True(t, LooksMisdecoded(garbled))
	assert.False(t, LooksMisdecoded("ΠΑΠΑΔΟΠΟΥΛΟΣ"))
	assert.False(t, LooksMisdecoded("Papadopoulos"))
}

func TestRepairTextRoundTrip(t *testing.T) {
	original := "ΜΠΑΚΑΛΗΣ ΕΣΤΙΑΤΟΡΙΟ"
	repaired, ok := RepairText(misdecode(t, original))
	require.True(t, ok)
	assert.Equal(t, original, repaired)
}

func TestRepairTextLeavesCleanTextAlone(t *testing.T) {
	repaired, ok := RepairText("Taverna Bakalis")
	assert.True(t, ok)
	assert.Equal(t, "Taverna Bakalis", repaired)
}
