package plan

import "fmt"

// MaxColors bounds ColorsPerSatellite so every color renders as a single
// upper-case letter.
const MaxColors = 26

// Color is a zero-based frequency/polarization label, rendered as A, B, C...
type Color int

func (c Color) String() string {
	return string(rune('A' + int(c)))
}

// ParseColor converts a color letter back to a Color.
func ParseColor(s string) (Color, error) {
	if len(s) != 1 || s[0] < 'A' || s[0] > 'A'+MaxColors-1 {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	return Color(s[0] - 'A'), nil
}
