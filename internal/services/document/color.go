package document

import (
	"fmt"
	"strconv"
	"strings"
)

type color struct {
	r, g, b int
}

// parseHexColor parses "#RRGGBB" or "RRGGBB". An empty string yields def.
func parseHexColor(s string, def color) (color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return def, nil
	}
	if len(s) != 6 {
		return color{}, fmt.Errorf("invalid colour %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color{r: int(v >> 16 & 0xFF), g: int(v >> 8 & 0xFF), b: int(v & 0xFF)}, nil
}

// parseOptionalColor returns nil for an empty string, meaning no fill.
func parseOptionalColor(s string) (*color, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	c, err := parseHexColor(s, color{})
	if err != nil {
		return nil, err
	}
	return &c, nil
}
