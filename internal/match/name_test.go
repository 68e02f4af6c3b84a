package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalNameTransliteratesGreek(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Μπακαλής", "BAKALIS"},
		{"ΜΠΑΚΑΛΗΣ ΕΣΤΙΑΤΟΡΙΟ ΙΚΕ", "BAKALIS"},
		{"Ντίνος Παπαδόπουλος", "DINOS PAPADOPOULOS"},
		{"Γιώργος Αλεξίου", "GIORGOS ALEXIOU"},
		{"Maria Papadopoulou", "MARIA PAPADOPOULOU"},
		{"TAVERNA OUZERI LTD", "TAVERNA OUZERI"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanonicalName(c.in), "input %q", c.in)
	}
}

func TestNameTokensDropNoiseAndDuplicates(t *testing.T) {
	tokens := NameTokens("Mr. Nikos NIKOS Catering A.E.")
	assert.Equal(t, []string{"NIKOS"}, tokens)

	assert.Empty(t, NameTokens(""))
	assert.Empty(t, NameTokens("κα."))
}

func TestNameKeyIsOrderInsensitive(t *testing.T) {
	a := NameTokens("Nikos Papadopoulos")
	b := NameTokens("Papadopoulos Nikos")
	assert.Equal(t, nameKey(a), nameKey(b))
	assert.Equal(t, "", nameKey(nil))
}

func TestTokenScore(t *testing.T) {
	assert.Equal(t, 1.0, tokenScore("BAKALIS", "BAKALIS"))
	assert.Equal(t, 0.8, tokenScore("BAKAL", "BAKALIS"))  // substring
	assert.Equal(t, 0.8, tokenScore("BAKALIS", "BAKALHS")) // single edit
	assert.Equal(t, 0.0, tokenScore("ANA", "ANASTASIA"))   // too short to compare
	assert.Equal(t, 0.0, tokenScore("BAKALIS", "PAPPAS"))
}
