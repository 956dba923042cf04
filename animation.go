package progressbar

import (
	"fmt"
	"math"
	"strings"
)

// Style selects how the bar segment of a line is drawn.
type Style int

const (
	// StyleBlock fills with eighth-block glyphs. It is the default.
	StyleBlock Style = iota
	// StyleASCII fills with the digits 1-9 and '#'.
	StyleASCII
	// StyleClassic draws '#' up to and including the head and '.' after it.
	StyleClassic
	// StyleArrow draws "===>   ".
	StyleArrow
	// StyleFillUp fills each column from the bottom with vertical eighths.
	StyleFillUp
	// StyleFiraCode uses the progress ligatures of the Fira Code font.
	StyleFiraCode
	// StyleCustom uses the charset of the Animation.
	StyleCustom
)

var styleNames = map[string]Style{
	"block":    StyleBlock,
	"tqdm":     StyleBlock,
	"ascii":    StyleASCII,
	"classic":  StyleClassic,
	"arrow":    StyleArrow,
	"fillup":   StyleFillUp,
	"firacode": StyleFiraCode,
	"custom":   StyleCustom,
}

var (
	blockCharset  = []string{" ", "▏", "▎", "▍", "▌", "▋", "▊", "▉", "█"}
	asciiCharset  = []string{" ", "1", "2", "3", "4", "5", "6", "7", "8", "9", "#"}
	fillUpCharset = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}
)

// Fira Code progress glyphs (private use area).
const (
	firaStartEmpty  = "\uEE00"
	firaMidEmpty    = "\uEE01"
	firaEndEmpty    = "\uEE02"
	firaStartFilled = "\uEE03"
	firaMidFilled   = "\uEE04"
	firaEndFilled   = "\uEE05"
)

// pulseSpeed is how many columns per second the indefinite pulse travels.
const pulseSpeed = 12.0

// Animation describes the bar segment. The zero value is StyleBlock.
type Animation struct {
	Style Style

	// Charset is used by StyleCustom. Index 0 is the empty level and the
	// last entry is a full column, so len(Charset)-1 subdivisions exist.
	// Every glyph must be one column wide.
	Charset []string

	// Fill pads the unfilled columns. Defaults to Charset[0] or a space.
	Fill string
}

// ParseAnimation looks up a style by name ("block", "ascii", "classic",
// "arrow", "fillup", "firacode"). A charset given with "custom" must have
// at least two glyphs.
func ParseAnimation(name string, charset ...string) (Animation, error) {
	st, ok := styleNames[strings.ToLower(name)]
	if !ok {
		return Animation{}, fmt.Errorf("%w: %q", ErrUnknownAnimation, name)
	}
	a := Animation{Style: st}
	if st == StyleCustom {
		if len(charset) < 2 {
			return Animation{}, fmt.Errorf("%w: custom charset needs at least 2 glyphs", ErrUnknownAnimation)
		}
		a.Charset = charset
	}
	return a, nil
}

func (a Animation) charset() []string {
	switch a.Style {
	case StyleASCII:
		return asciiCharset
	case StyleFillUp:
		return fillUpCharset
	case StyleCustom:
		if len(a.Charset) >= 2 {
			return a.Charset
		}
	}
	return blockCharset
}

func (a Animation) fill() string {
	if a.Fill != "" {
		return a.Fill
	}
	return a.charset()[0]
}

// SpacesConsumed is the number of columns the frame around the bar takes.
func (a Animation) SpacesConsumed() int {
	if a.Style == StyleFiraCode {
		return 3
	}
	return 2
}

// Render draws progress (clamped into [0,1], NaN counts as 0) over exactly
// columns display columns, without the frame.
func (a Animation) Render(columns int, progress float64) string {
	if columns <= 0 {
		return ""
	}
	progress = clampProgress(progress)

	switch a.Style {
	case StyleClassic:
		return headed(columns, progress, "#", "#", ".")
	case StyleArrow:
		return headed(columns, progress, "=", ">", " ")
	case StyleFiraCode:
		filled := int(progress * float64(columns))
		return strings.Repeat(firaMidFilled, filled) + strings.Repeat(firaMidEmpty, columns-filled)
	}
	return eighths(columns, progress, a.charset(), a.fill())
}

// Frame wraps a rendered bar segment in the style's frame.
func (a Animation) Frame(bar string, progress float64) string {
	if a.Style != StyleFiraCode {
		return "|" + bar + "|"
	}
	start, end := firaStartEmpty, firaEndEmpty
	if progress > 0 {
		start = firaStartFilled
	}
	if progress >= 1 {
		end = firaEndFilled
	}
	return " " + start + bar + end
}

// Pulse draws the indefinite animation: a block a fifth of the bar wide
// sweeping left to right. It depends only on elapsed seconds and columns.
func (a Animation) Pulse(columns int, elapsed float64) string {
	if columns <= 0 {
		return ""
	}
	cs := a.charset()
	full, empty := cs[len(cs)-1], a.fill()
	if a.Style == StyleFiraCode {
		full, empty = firaMidFilled, firaMidEmpty
	}
	if a.Style == StyleClassic {
		full, empty = "#", "."
	}
	if a.Style == StyleArrow {
		full, empty = "=", " "
	}

	width := columns / 5
	if width < 1 {
		width = 1
	}
	period := columns + width
	if elapsed < 0 || math.IsNaN(elapsed) {
		elapsed = 0
	}
	head := int(elapsed*pulseSpeed) % period

	var sb strings.Builder
	for i := 0; i < columns; i++ {
		if i < head && i >= head-width {
			sb.WriteString(full)
		} else {
			sb.WriteString(empty)
		}
	}
	return sb.String()
}

// eighths fills columns with sub-column resolution: every column holds
// len(charset)-1 levels, charset[0] being empty and the last entry full.
func eighths(columns int, progress float64, charset []string, fill string) string {
	levels := len(charset) - 1
	total := int(math.Round(progress * float64(columns*levels)))
	full, rem := total/levels, total%levels

	var sb strings.Builder
	sb.WriteString(strings.Repeat(charset[levels], full))
	if full < columns {
		if rem == 0 {
			sb.WriteString(fill)
		} else {
			sb.WriteString(charset[rem])
		}
		sb.WriteString(strings.Repeat(fill, columns-full-1))
	}
	return sb.String()
}

func headed(columns int, progress float64, done, head, rest string) string {
	filled := int(progress * float64(columns))
	if filled >= columns {
		return strings.Repeat(done, columns)
	}
	return strings.Repeat(done, filled) + head + strings.Repeat(rest, columns-filled-1)
}

func clampProgress(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
