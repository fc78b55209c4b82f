package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyTable(t *testing.T) {
	cases := []struct {
		line string
		want Severity
	}{
		{"ERROR: disk full", SevError},
		{"error: disk full", SevError},
		{"Traceback (most recent call last):", SevError},
		{"unhandled Exception in worker", SevError},
		{"WARNING: low memory", SevWarn},
		{"deprecation warning issued", SevWarn},
		{"warn: retrying", SevWarn},
		{"GET / 200 -", SevOK},
		{"✓ patch applied", SevOK},
		{"everything is OK", SevOK},
		{"  → next step", SevTeal},
		{"\t→ queued", SevTeal},
		{"serving on http://127.0.0.1:5000", SevTeal},
		{"HTTP server listening", SevTeal},
		{"  nested detail line", SevAccent},
		{"[reviewer] verdict: approve", SevAccent},
		{"[git-ops] committed", SevAccent},
		{"plain progress message", SevInfo},
		{"[not a tag because of spaces] x", SevInfo},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.line), "line %q", tc.line)
	}
}

// Priority is part of the contract: earlier rules shadow later ones.
func TestClassifyPriority(t *testing.T) {
	// error beats warn, ok, teal, accent
	assert.Equal(t, SevError, Classify("  [tool] WARNING: http error 200"))
	// warn beats ok
	assert.Equal(t, SevWarn, Classify("warning: 200 responses were slow"))
	// ok beats teal and accent: "200 OK returned" is never accent
	assert.Equal(t, SevOK, Classify("200 OK returned"))
	assert.Equal(t, SevOK, Classify("  ✓ indented but still ok"))
	// teal beats accent
	assert.Equal(t, SevTeal, Classify("  → arrow wins over indent"))
	assert.Equal(t, SevTeal, Classify("[fetch] pulling http resource... "))
}

// Every rule must be individually reachable so the ordered table stays honest.
func TestRulesEnumerable(t *testing.T) {
	require.Len(t, Rules, 5)
	samples := map[string]string{
		"error-keywords":        "fatal error",
		"warn-keywords":         "some warning",
		"ok-markers":            "status 200",
		"url-or-arrow":          "visit http://localhost",
		"indent-or-tool-prefix": "[builder] start",
	}
	for _, r := range Rules {
		line, found := samples[r.Name]
		require.True(t, found, "no sample for rule %s", r.Name)
		assert.True(t, r.Match(line), "rule %s should match %q", r.Name, line)
	}
}
