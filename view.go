package progressbar

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// meterFallback is the bar segment width used when the line width is not
// known, e.g. when output goes to a file. It takes the place of a fallback
// line width: the text around the segment is then not limited.
const meterFallback = 10

// Renderer produces the text of one repaint. Render is called with the
// bar locked, so it must not call methods of the bar itself.
type Renderer interface {
	Render(v *View) (string, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(v *View) (string, error)

// Render calls f(v).
func (f RendererFunc) Render(v *View) (string, error) {
	return f(v)
}

// View is a read-only snapshot of a bar at one instant. Its methods
// compute their values when called, so templates and renderers only pay
// for what they show.
type View struct {
	b     *Bar
	now   time.Time
	width int // 0 when unknown

	// template passes
	marker      bool
	animations  int // segments seen on the measuring pass
	animColumns int
}

func (b *Bar) view(now time.Time) *View {
	return &View{b: b, now: now, width: b.width(), animColumns: meterFallback}
}

// width resolves the line width: option, then environment, then terminal.
func (b *Bar) width() int {
	if b.config.width > 0 {
		return b.config.width
	}
	if b.state.envWidth > 0 {
		return b.state.envWidth
	}
	if b.term.plain {
		return 0
	}
	w, err := termWidth(b.config.writer)
	if err != nil || w <= 0 {
		return 0
	}
	return w
}

// renderLine produces the text for the next paint, without positioning.
func (b *Bar) renderLine(now time.Time) (string, error) {
	v := b.view(now)

	var line string
	var err error
	switch {
	case b.config.renderer != nil:
		line, err = b.config.renderer.Render(v)
	case b.tmpl != nil:
		line, err = b.renderTemplate(v)
	default:
		line = v.line()
	}
	if err != nil {
		return "", err
	}
	if b.config.colorCodes {
		line = b.colors.Color(line)
	}
	return truncate(line, v.width), nil
}

// line is the default layout:
//
//	desc:  50%|█████     | 5/10 [00:02<00:02, 2.50it/s, postfix]
func (v *View) line() string {
	if v.b.config.total == 0 {
		return v.indefiniteLine()
	}

	left := v.Desc()
	if left != "" {
		left += ": "
	}
	left += fmt.Sprintf("%3d%%", v.Percent())
	right := fmt.Sprintf(" %s/%s [%s<%s, %s%s]",
		v.Count(), v.Total(), v.Elapsed(), v.Remaining(), v.Rate(), v.postfixPart())

	columns := meterFallback
	if v.width > 0 {
		columns = v.width - displayWidth(left) - displayWidth(right) - v.b.config.animation.SpacesConsumed()
	}
	if columns <= 0 {
		return left + right
	}
	return left + v.Bar(columns) + right
}

// indefiniteLine is the layout for an unknown total:
//
//	desc: 42it [00:03, 13.91it/s, postfix]
func (v *View) indefiniteLine() string {
	left := v.Desc()
	if left != "" {
		left += ": "
	}
	return fmt.Sprintf("%s%s%s [%s, %s%s]",
		left, v.Count(), v.Unit(), v.Elapsed(), v.Rate(), v.postfixPart())
}

func (v *View) postfixPart() string {
	if p := v.Postfix(); p != "" {
		return ", " + p
	}
	return ""
}

// Desc is the description.
func (v *View) Desc() string {
	return v.b.config.description
}

// Postfix is the postfix text.
func (v *View) Postfix() string {
	return v.b.config.postfix
}

// Unit is what one iteration is called.
func (v *View) Unit() string {
	return v.b.config.unit
}

// Width is the resolved line width, 0 when unknown.
func (v *View) Width() int {
	return v.width
}

// Counter is the raw counter.
func (v *View) Counter() int64 {
	return v.b.state.counter
}

// TotalCount is the raw total, 0 when unknown.
func (v *View) TotalCount() int64 {
	return v.b.config.total
}

// Progress is the completed fraction in [0,1]; 1 for an unknown total.
func (v *View) Progress() float64 {
	total := v.b.config.total
	if total == 0 {
		return 1
	}
	return clampProgress(float64(v.b.state.counter) / float64(total))
}

// Percentage is Progress in percent.
func (v *View) Percentage() float64 {
	return v.Progress() * 100
}

// Percent is the whole percent done, rounded down. It is 100 only once
// the counter reaches the total.
func (v *View) Percent() int {
	counter, total := v.b.state.counter, v.b.config.total
	switch {
	case total == 0 || counter >= total:
		return 100
	case counter <= 0:
		return 0
	case counter <= math.MaxInt64/100:
		return int(counter * 100 / total)
	}
	return int(math.Min(math.Floor(v.Percentage()), 99))
}

// Count is the formatted counter.
func (v *View) Count() string {
	return v.formatCount(v.b.state.counter)
}

// Total is the formatted total, "?" when unknown.
func (v *View) Total() string {
	if v.b.config.total == 0 {
		return "?"
	}
	return v.formatCount(v.b.config.total)
}

func (v *View) formatCount(n int64) string {
	if v.b.config.unitScale {
		return FormatScaled(float64(n), v.b.config.unitDivisor)
	}
	return strconv.FormatInt(n, 10)
}

// ElapsedSeconds is the time since the bar started.
func (v *View) ElapsedSeconds() float64 {
	if !v.b.state.started {
		return 0
	}
	return v.now.Sub(v.b.state.startTime).Seconds()
}

// Elapsed is the formatted time since the bar started.
func (v *View) Elapsed() string {
	return FormatDuration(int64(v.ElapsedSeconds()), v.b.config.humanTime)
}

// RateValue is iterations per second since the start, NaN before any
// time has passed.
func (v *View) RateValue() float64 {
	elapsed := v.ElapsedSeconds()
	if elapsed <= 0 {
		return math.NaN()
	}
	return float64(v.b.state.counter-v.b.config.initial) / elapsed
}

// Rate is the formatted rate, "?it/s" before any time has passed. Slow
// rates without unit scaling print as seconds per iteration.
func (v *View) Rate() string {
	unit := v.Unit()
	rate := v.RateValue()
	switch {
	case math.IsNaN(rate):
		return "?" + unit + "/s"
	case v.b.config.unitScale:
		return FormatScaled(rate, v.b.config.unitDivisor) + unit + "/s"
	case rate > 0 && rate < 1:
		return fmt.Sprintf("%.2fs/%s", 1/rate, unit)
	}
	return fmt.Sprintf("%.2f%s/s", rate, unit)
}

// RemainingSeconds estimates the time to completion, +Inf when the total
// is unknown or nothing has been counted yet.
func (v *View) RemainingSeconds() float64 {
	total, counter := v.b.config.total, v.b.state.counter
	if total == 0 {
		return math.Inf(1)
	}
	if counter >= total {
		return 0
	}
	rate := v.RateValue()
	if counter-v.b.config.initial <= 0 || math.IsNaN(rate) || rate <= 0 {
		return math.Inf(1)
	}
	return float64(total-counter) / rate
}

// Remaining is the formatted estimate, "inf" when unknown.
func (v *View) Remaining() string {
	s := v.RemainingSeconds()
	if math.IsInf(s, 1) {
		return "inf"
	}
	return FormatDuration(int64(s), v.b.config.humanTime)
}

// Spinner is the spinner frame for the elapsed time.
func (v *View) Spinner() string {
	frames := spinners[v.b.config.spinnerType]
	return frames[int(v.ElapsedSeconds()*10)%len(frames)]
}

// Bar is the framed bar segment over columns columns, coloured when a
// colour is set. An unknown total draws the sweeping pulse.
func (v *View) Bar(columns int) string {
	if columns <= 0 {
		return ""
	}
	a := v.b.config.animation
	var seg string
	if v.b.config.total == 0 {
		seg = a.Frame(a.Pulse(columns, v.ElapsedSeconds()), 0)
	} else {
		p := v.Progress()
		seg = a.Frame(a.Render(columns, p), p)
	}
	if c := v.b.config.colour; c != "" {
		seg = v.b.colors.Color("[" + c + "]" + seg)
	}
	return seg
}

// Animation is the bar segment sized to whatever the rest of a template
// leaves of the line. A template showing it more than once splits that
// space evenly.
func (v *View) Animation() string {
	if v.marker {
		v.animations++
		return animationMarker
	}
	return v.Bar(v.animColumns)
}
