package command

import (
	"strings"
)

func parsePageSpecific(input string) (Config, error) {
	lines := splitLines(input)
	if len(lines) == 0 {
		return nil, syntaxErr(0, "Invalid page-specific format: expected lines like \"Page -> Layer 1, Layer 2\"")
	}

	cfg := PageSpecific{Pages: make([]PageSpec, 0, len(lines))}
	for _, ln := range lines {
		if !strings.Contains(ln.text, arrow) {
			return nil, syntaxErr(ln.num, "Missing \"->\" separator")
		}
		parts := strings.Split(ln.text, arrow)
		if len(parts) != 2 {
			return nil, syntaxErr(ln.num, "Invalid format, expected exactly one \"->\" per line")
		}

		name := strings.TrimSpace(parts[0])
		if name == "" {
			return nil, validationErr(ln.num, "Page name cannot be empty")
		}
		right := strings.TrimSpace(parts[1])
		if right == "" {
			return nil, validationErr(ln.num, "Layer names cannot be empty")
		}
		layers := splitList(right)
		if len(layers) == 0 {
			return nil, validationErr(ln.num, "At least one layer name is required")
		}

		cfg.Pages = append(cfg.Pages, PageSpec{Name: name, Layers: layers})
	}
	return cfg, nil
}
