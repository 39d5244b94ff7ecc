package testutil

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
)

// AssertJSONEqual asserts that two JSON strings are semantically equal.
func AssertJSONEqual(t *testing.T, expected, actual string) {
	t.Helper()

	var expectedJSON, actualJSON interface{}
	if err := json.Unmarshal([]byte(expected), &expectedJSON); err != nil {
		t.Fatalf("failed to parse expected JSON: %v", err)
	}
	if err := json.Unmarshal([]byte(actual), &actualJSON); err != nil {
		t.Fatalf("failed to parse actual JSON: %v", err)
	}
	assert.Equal(t, expectedJSON, actualJSON)
}

// AssertLines asserts that text consists of exactly the expected lines.
func AssertLines(t *testing.T, expected []string, text string) {
	t.Helper()
	assert.Equal(t, expected, strings.Split(strings.TrimSuffix(text, "\n"), "\n"))
}

// AssertContainsLine asserts that one line of text equals line.
func AssertContainsLine(t *testing.T, text, line string) {
	t.Helper()
	for _, l := range strings.Split(text, "\n") {
		if l == line {
			return
		}
	}
	t.Errorf("text does not contain line %q:\n%s", line, text)
}
