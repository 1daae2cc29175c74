package criteria

import (
	"math"
	"strconv"
	"strings"

	"github.com/gorilla/css/scanner"
	"github.com/lucasb-eyer/go-colorful"
)

// declarations tokenizes an inline style attribute into property -> value.
// Whitespace inside function arguments is dropped so "rgb(0, 0, 0)" reads "rgb(0,0,0)".
func declarations(style string) map[string]string {
	out := make(map[string]string)
	s := scanner.New(style)

	var prop string
	var value strings.Builder
	inValue := false
	depth := 0

	flush := func() {
		if prop != "" {
			out[prop] = strings.TrimSpace(value.String())
		}
		prop = ""
		value.Reset()
		inValue = false
		depth = 0
	}

	for {
		tok := s.Next()
		if tok.Type == scanner.TokenEOF || tok.Type == scanner.TokenError {
			break
		}
		switch {
		case tok.Type == scanner.TokenChar && tok.Value == ";" && depth == 0:
			flush()
		case !inValue && tok.Type == scanner.TokenIdent && prop == "":
			prop = strings.ToLower(tok.Value)
		case !inValue && tok.Type == scanner.TokenChar && tok.Value == ":":
			inValue = true
		case inValue:
			switch {
			case tok.Type == scanner.TokenFunction:
				depth++
				value.WriteString(strings.ToLower(tok.Value))
			case tok.Type == scanner.TokenChar && tok.Value == ")":
				if depth > 0 {
					depth--
				}
				value.WriteString(")")
			case tok.Type == scanner.TokenS:
				if depth == 0 {
					value.WriteString(" ")
				}
			case tok.Type == scanner.TokenComment:
			default:
				value.WriteString(tok.Value)
			}
		}
	}
	flush()
	return out
}

var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#008000",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"gray":    "#808080",
	"grey":    "#808080",
	"silver":  "#c0c0c0",
	"maroon":  "#800000",
	"navy":    "#000080",
	"teal":    "#008080",
	"olive":   "#808000",
	"lime":    "#00ff00",
	"aqua":    "#00ffff",
	"cyan":    "#00ffff",
	"fuchsia": "#ff00ff",
	"magenta": "#ff00ff",
}

// parseColor reads an opaque CSS color: hex, rgb()/rgba() or a basic keyword.
// Translucent and unknown values report ok=false.
func parseColor(v string) (colorful.Color, bool) {
	v = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "!important")))
	if hex, ok := namedColors[v]; ok {
		v = hex
	}

	switch {
	case strings.HasPrefix(v, "#"):
		switch len(v) {
		case 5: // #rgba
			if v[4] != 'f' {
				return colorful.Color{}, false
			}
			v = v[:4]
		case 9: // #rrggbbaa
			if v[7:] != "ff" {
				return colorful.Color{}, false
			}
			v = v[:7]
		}
		c, err := colorful.Hex(v)
		return c, err == nil
	case strings.HasPrefix(v, "rgb(") || strings.HasPrefix(v, "rgba("):
		inner := v[strings.Index(v, "(")+1:]
		inner = strings.TrimSuffix(inner, ")")
		inner = strings.NewReplacer("/", ",", " ", ",").Replace(inner)
		var parts []string
		for _, p := range strings.Split(inner, ",") {
			if p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) != 3 && len(parts) != 4 {
			return colorful.Color{}, false
		}
		if len(parts) == 4 {
			if a, ok := channel(parts[3], 1); !ok || a < 0.999 {
				return colorful.Color{}, false
			}
		}
		var rgb [3]float64
		for i := 0; i < 3; i++ {
			f, ok := channel(parts[i], 255)
			if !ok {
				return colorful.Color{}, false
			}
			rgb[i] = f
		}
		return colorful.Color{R: rgb[0], G: rgb[1], B: rgb[2]}, true
	}
	return colorful.Color{}, false
}

// channel parses a number or percentage and scales it to [0,1]
func channel(s string, scale float64) (float64, bool) {
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return clamp01(f / 100), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return clamp01(f / scale), true
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

// backgroundColor extracts the color from background-color or the background shorthand
func backgroundColor(decls map[string]string) (colorful.Color, bool) {
	if v, ok := decls["background-color"]; ok {
		return parseColor(v)
	}
	if v, ok := decls["background"]; ok {
		for _, field := range strings.Fields(v) {
			if c, ok := parseColor(field); ok {
				return c, true
			}
		}
	}
	return colorful.Color{}, false
}

// relativeLuminance per WCAG 2.x on linearised sRGB
func relativeLuminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// contrastRatio returns (L1 + 0.05) / (L2 + 0.05) with L1 the lighter color
func contrastRatio(fg, bg colorful.Color) float64 {
	l1, l2 := relativeLuminance(fg), relativeLuminance(bg)
	if l2 > l1 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

// largeText applies the WCAG large-scale text rule to inline font declarations:
// at least 18pt (24px), or 14pt (18.66px) when bold.
func largeText(decls map[string]string) bool {
	px, ok := fontSizePx(decls["font-size"])
	if !ok {
		return false
	}
	bold := false
	switch w := strings.TrimSpace(decls["font-weight"]); w {
	case "bold", "bolder":
		bold = true
	default:
		if n, err := strconv.Atoi(w); err == nil && n >= 700 {
			bold = true
		}
	}
	if bold {
		return px >= 18.66
	}
	return px >= 24
}

func fontSizePx(v string) (float64, bool) {
	v = strings.TrimSpace(strings.ToLower(v))
	unit := 1.0
	switch {
	case strings.HasSuffix(v, "px"):
		v = strings.TrimSuffix(v, "px")
	case strings.HasSuffix(v, "pt"):
		v = strings.TrimSuffix(v, "pt")
		unit = 4.0 / 3.0
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f * unit, true
}
