package command

import (
	"strings"
)

const arrow = "->"

// reservedGlobalKeys may not appear in page-specific input.
var reservedGlobalKeys = []string{"pages:", "layers:", "layerprefix:"}

// line is a non-blank, trimmed input line and its 1-indexed position among
// the non-blank lines.
type line struct {
	num  int
	text string
}

// DetectMode reports which grammar input is written in. It only looks for
// the "->" token and does not validate anything.
func DetectMode(input string) Mode {
	if strings.Contains(strings.TrimSpace(input), arrow) {
		return ModePageSpecific
	}
	return ModeGlobal
}

// Parse validates the whole input and returns its configuration. It has no
// side effects; on any error nothing has been produced.
func Parse(input string) (Config, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &ParseError{
			Kind:    KindEmpty,
			Message: "Command is empty. Enter a global or page-specific command",
		}
	}

	if DetectMode(input) == ModePageSpecific {
		lower := strings.ToLower(input)
		for _, key := range reservedGlobalKeys {
			if strings.Contains(lower, key) {
				return nil, &ParseError{
					Kind:    KindMixedSyntax,
					Message: "Do not mix global and page-specific syntax",
				}
			}
		}
		return parsePageSpecific(input)
	}
	return parseGlobal(input)
}

// splitLines trims every line and drops blank ones. Lines are numbered
// after blanks are removed.
func splitLines(input string) []line {
	var out []line
	for _, raw := range strings.Split(strings.TrimSpace(input), "\n") {
		t := strings.TrimSpace(raw)
		if t == "" {
			continue
		}
		out = append(out, line{num: len(out) + 1, text: t})
	}
	return out
}

// splitList splits a comma separated list, trimming items and dropping
// empty ones.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
