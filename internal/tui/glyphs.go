package tui

import (
	"os"
	"strings"
	"sync"
)

// Box drawing and arrow glyphs have an ASCII fallback for fonts that render
// them badly (PLANLINE_TUI_GLYPHS=ascii).

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

func applyGlyphPreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("PLANLINE_TUI_GLYPHS"))) {
	case "", "unicode", "utf8":
		setGlyphs(glyphSetUnicode)
	case "ascii":
		setGlyphs(glyphSetASCII)
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	gs := currentGlyphs
	glyphsMu.RUnlock()
	return gs
}

// boxGlyphs are the corners and sides of a node frame.
type boxGlyphs struct {
	TL, TR, BL, BR, H, V rune
}

func glyphBox(heavy bool) boxGlyphs {
	if glyphs() == glyphSetASCII {
		if heavy {
			return boxGlyphs{'#', '#', '#', '#', '=', '#'}
		}
		return boxGlyphs{'+', '+', '+', '+', '-', '|'}
	}
	if heavy {
		return boxGlyphs{'┏', '┓', '┗', '┛', '━', '┃'}
	}
	return boxGlyphs{'╭', '╮', '╰', '╯', '─', '│'}
}

func glyphEdge() rune {
	if glyphs() == glyphSetASCII {
		return '.'
	}
	return '·'
}

// glyphPreview is the connect preview stroke; snapped previews are solid.
func glyphPreview(snapped bool) rune {
	if glyphs() == glyphSetASCII {
		if snapped {
			return '*'
		}
		return ':'
	}
	if snapped {
		return '•'
	}
	return '∙'
}

// glyphArrowHead points along (dx, dy).
func glyphArrowHead(dx, dy float64) rune {
	ascii := glyphs() == glyphSetASCII
	ax, ay := dx, dy
	if ax < 0 {
		ax = -ax
	}
	if ay < 0 {
		ay = -ay
	}
	switch {
	case ax >= ay && dx >= 0:
		if ascii {
			return '>'
		}
		return '▶'
	case ax >= ay:
		if ascii {
			return '<'
		}
		return '◀'
	case dy >= 0:
		if ascii {
			return 'v'
		}
		return '▼'
	default:
		if ascii {
			return '^'
		}
		return '▲'
	}
}

func glyphDone() string {
	if glyphs() == glyphSetASCII {
		return "[x]"
	}
	return "✓"
}

func glyphBarHandle() rune {
	if glyphs() == glyphSetASCII {
		return '|'
	}
	return '▐'
}

func glyphBarFill() rune {
	if glyphs() == glyphSetASCII {
		return '='
	}
	return ' '
}

func glyphDragHandle() string {
	if glyphs() == glyphSetASCII {
		return "::"
	}
	return "⠿"
}

func glyphHRule() string {
	if glyphs() == glyphSetASCII {
		return "-"
	}
	return "─"
}
