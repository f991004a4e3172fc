package color

import (
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/justapithecus/monochrome/message"
)

// namedHex holds the single-letter base colors, the tab10 palette and a
// selection of CSS names.
var namedHex = map[string]string{
	"b": "#0000ff",
	"g": "#008000",
	"r": "#ff0000",
	"c": "#00bfbf",
	"m": "#bf00bf",
	"y": "#bfbf00",
	"k": "#000000",
	"w": "#ffffff",

	"tab:blue":   "#1f77b4",
	"tab:orange": "#ff7f0e",
	"tab:green":  "#2ca02c",
	"tab:red":    "#d62728",
	"tab:purple": "#9467bd",
	"tab:brown":  "#8c564b",
	"tab:pink":   "#e377c2",
	"tab:gray":   "#7f7f7f",
	"tab:grey":   "#7f7f7f",
	"tab:olive":  "#bcbd22",
	"tab:cyan":   "#17becf",

	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#008000",
	"lime":    "#00ff00",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"cyan":    "#00ffff",
	"aqua":    "#00ffff",
	"magenta": "#ff00ff",
	"fuchsia": "#ff00ff",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"pink":    "#ffc0cb",
	"brown":   "#a52a2a",
	"gray":    "#808080",
	"grey":    "#808080",
	"silver":  "#c0c0c0",
	"navy":    "#000080",
	"teal":    "#008080",
	"olive":   "#808000",
	"maroon":  "#800000",
	"gold":    "#ffd700",
	"violet":  "#ee82ee",
	"indigo":  "#4b0082",
	"crimson": "#dc143c",
	"coral":   "#ff7f50",
	"salmon":  "#fa8072",
	"khaki":   "#f0e68c",
}

// NameResolver resolves matplotlib-style color names, "#rgb", "#rrggbb" and
// "#rrggbbaa" hex strings, and gray levels given as a number string in
// [0, 1].
type NameResolver struct{}

func (NameResolver) Resolve(name string) (Resolution, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if hex, ok := namedHex[key]; ok {
		key = hex
	}

	if strings.HasPrefix(key, "#") {
		alpha := float32(1)
		if len(key) == 9 {
			a, err := strconv.ParseUint(key[7:], 16, 8)
			if err != nil {
				return Resolution{}, &UnknownColorError{Name: name}
			}
			alpha = float32(a) / 255
			key = key[:7]
		}
		c, err := colorful.Hex(key)
		if err != nil {
			return Resolution{}, &UnknownColorError{Name: name}
		}
		return Resolution{Color: message.Color{float32(c.R), float32(c.G), float32(c.B), alpha}}, nil
	}

	if level, err := strconv.ParseFloat(key, 32); err == nil && level >= 0 && level <= 1 {
		l := float32(level)
		return Resolution{Color: message.Color{l, l, l, 1}}, nil
	}

	return Resolution{}, &UnknownColorError{Name: name}
}
