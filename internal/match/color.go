package match

import (
	"fmt"
	"strings"
)

// Color is one of the six team colors.
type Color int

const (
	ColorRed Color = iota
	ColorBlue
	ColorGreen
	ColorYellow
	ColorOrange
	ColorPurple
)

var Colors = [...]Color{ColorRed, ColorBlue, ColorGreen, ColorYellow, ColorOrange, ColorPurple}

func (c Color) String() string {
	switch c {
	case ColorRed:
		return "red"
	case ColorBlue:
		return "blue"
	case ColorGreen:
		return "green"
	case ColorYellow:
		return "yellow"
	case ColorOrange:
		return "orange"
	case ColorPurple:
		return "purple"
	}
	return fmt.Sprintf("Color(%d)", int(c))
}

// Hex is the primary color used for the team tag.
func (c Color) Hex() string {
	switch c {
	case ColorRed:
		return "CC3933"
	case ColorBlue:
		return "0094FF"
	case ColorGreen:
		return "4FCC33"
	case ColorYellow:
		return "D5CC59"
	case ColorOrange:
		return "E56F19"
	case ColorPurple:
		return "C126D9"
	}
	return "FFFFFF"
}

// SecondaryHex is the lighter shade used for member names.
func (c Color) SecondaryHex() string {
	switch c {
	case ColorRed:
		return "FE6C67"
	case ColorBlue:
		return "66BFFF"
	case ColorGreen:
		return "95E085"
	case ColorYellow:
		return "E0D985"
	case ColorOrange:
		return "F0A875"
	case ColorPurple:
		return "E093EC"
	}
	return "FFFFFF"
}

func ParseColor(raw string) (Color, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for _, c := range Colors {
		if c.String() == name {
			return c, nil
		}
	}
	return ColorRed, fmt.Errorf("unknown color %q", raw)
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
