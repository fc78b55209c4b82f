package event

import "strings"

// Rule pairs a predicate with the severity assigned when it matches.
// Rules are evaluated in order; the first match wins.
type Rule struct {
	Name     string
	Match    func(line string) bool
	Severity Severity
}

// Rules is the ordered classification table applied to every non-empty
// output line. Order is part of the contract: "200 OK returned" must hit
// the ok rule before the accent rule ever sees it.
var Rules = []Rule{
	{
		Name:     "error-keywords",
		Severity: SevError,
		Match: func(line string) bool {
			return containsFold(line, "error") || containsFold(line, "traceback") || containsFold(line, "exception")
		},
	},
	{
		Name:     "warn-keywords",
		Severity: SevWarn,
		Match: func(line string) bool {
			return containsFold(line, "warning") || containsFold(line, "warn")
		},
	},
	{
		Name:     "ok-markers",
		Severity: SevOK,
		Match: func(line string) bool {
			return strings.Contains(line, "200") || strings.Contains(line, "✓") || containsFold(line, "ok")
		},
	},
	{
		Name:     "url-or-arrow",
		Severity: SevTeal,
		Match: func(line string) bool {
			return strings.HasPrefix(line, "  →") || strings.HasPrefix(line, "\t→") || containsFold(line, "http")
		},
	},
	{
		Name:     "indent-or-tool-prefix",
		Severity: SevAccent,
		Match: func(line string) bool {
			return strings.HasPrefix(line, "  ") || hasBracketPrefix(line)
		},
	},
}

// Classify assigns a severity to one output line. Lines matching no rule
// are plain info.
func Classify(line string) Severity {
	for _, r := range Rules {
		if r.Match(line) {
			return r.Severity
		}
	}
	return SevInfo
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), sub)
}

// hasBracketPrefix reports whether the line opens with a tool-name tag such
// as "[reviewer]" or "[git]".
func hasBracketPrefix(line string) bool {
	if len(line) < 3 || line[0] != '[' {
		return false
	}
	end := strings.IndexByte(line, ']')
	if end <= 1 {
		return false
	}
	for _, c := range line[1:end] {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
