package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeEmbedsAllSections(t *testing.T) {
	got := Compose(Input{
		Departments: "Logistics\nOperations",
		Regulation:  "Article 7: supply duties",
		Feedback:    "- input: 'Request X' -> department: 'Operations'\n",
		Query:       "Request X",
	})

	for _, want := range []string{
		"[Department list]\nLogistics\nOperations",
		"[Regulation]\nArticle 7: supply duties",
		"[Past corrections]\n- input: 'Request X' -> department: 'Operations'",
		"[Legislative data request]\nRequest X",
		`"predictions": [`,
		`{"rank": 1, "department": "department name", "reason": "reason"}`,
		"JSON only",
	} {
		assert.Contains(t, got, want)
	}
	assert.NotContains(t, got, "{{")
}

func TestComposeDoesNotExpandPlaceholdersInInput(t *testing.T) {
	got := Compose(Input{Departments: "{{query}}", Query: "secret"})
	assert.Contains(t, got, "[Department list]\n{{query}}")
	assert.Equal(t, 1, strings.Count(got, "secret"))
}

func TestComposeEmptyInputs(t *testing.T) {
	got := Compose(Input{})
	assert.Contains(t, got, "[Legislative data request]\n\n")
}
