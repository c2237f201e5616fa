package command

import (
	"math"
	"strconv"
	"strings"
)

var radixPrefixes = map[byte]int{
	'x': 16, 'X': 16,
	'o': 8, 'O': 8,
	'b': 2, 'B': 2,
}

func parseGlobal(input string) (Config, error) {
	var (
		pages     []string
		layers    int
		hasPages  bool
		hasLayers bool
	)
	prefix := DefaultLayerPrefix

	for _, ln := range splitLines(input) {
		idx := strings.Index(ln.text, ":")
		if idx < 0 {
			return nil, syntaxErr(ln.num, "Invalid format, expected \"key: value\"")
		}
		key := strings.ToLower(strings.TrimSpace(ln.text[:idx]))
		value := strings.TrimSpace(ln.text[idx+1:])
		if key == "" || value == "" {
			return nil, syntaxErr(ln.num, "Both key and value are required")
		}

		switch key {
		case "pages":
			pages = splitList(value)
			if len(pages) == 0 {
				return nil, validationErr(ln.num, "At least one page name is required")
			}
			hasPages = true
		case "layers":
			n, ok := parsePositiveInt(value)
			if !ok {
				return nil, validationErr(ln.num, "Layers must be a positive integer")
			}
			layers = n
			hasLayers = true
		case "layerprefix":
			prefix = value
		default:
			// Unknown keys are accepted so newer commands still parse.
		}
	}

	if !hasPages {
		return nil, validationErr(0, "Pages are required (e.g. \"pages: Home, About\")")
	}
	if !hasLayers {
		return nil, validationErr(0, "Layers count is required (e.g. \"layers: 5\")")
	}
	return Global{Pages: pages, Layers: layers, LayerPrefix: prefix}, nil
}

// parsePositiveInt accepts any numeric literal that is a positive whole
// number, so "5", "5.0" and "0x5" all yield 5 while "5.5", "0", "-2" and
// "abc" fail. Unsigned 0x, 0o and 0b integer literals are accepted.
func parsePositiveInt(s string) (int, bool) {
	if len(s) > 2 && s[0] == '0' {
		if base, ok := radixPrefixes[s[1]]; ok {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil || n == 0 || n > math.MaxInt32 {
				return 0, false
			}
			return int(n), true
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f <= 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
