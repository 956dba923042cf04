package progressbar

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

type config struct {
	total       int64 // 0 if the total is not known
	initial     int64
	description string
	postfix     string
	unit        string
	unitScale   bool
	unitDivisor float64

	// minimum time to wait in between repaints
	minInterval time.Duration

	// minimum number of iterations in between repaints
	minIters int64

	// grow minIters while repaints are requested faster than minInterval
	dynamicMinIters bool

	// no repaint until this long after the start
	delay time.Duration

	// disabled doesn't render the bar at all, state still updates
	disabled bool

	// repaint on every update, ignoring the throttle
	forceRefresh bool

	// keep the final line on screen once finished
	leave bool

	// width of the whole line, 0 to ask the terminal
	width int

	// row below the cursor line this bar is printed on
	row int

	// rows and completion are handled by a Manager
	managed bool

	// colorstring style applied to the bar segment, e.g. "green"
	colour string

	// whether the description and template may contain colorstring codes
	colorCodes bool

	animation   Animation
	spinnerType int

	// print durations under a minute as "42s"
	humanTime bool

	template string
	renderer Renderer

	writer io.Writer
	plain  *bool

	// whether clearing should use the ANSI erase-line sequence
	useANSICodes bool

	renderWithBlankState bool
	onCompletion         func()

	input  io.Reader
	logger zerolog.Logger
	now    func() time.Time
}

func defaultConfig(total int64) config {
	return config{
		total:       total,
		unit:        "it",
		unitDivisor: 1000,
		minInterval: 100 * time.Millisecond,
		minIters:    1,
		leave:       true,
		spinnerType: 9,
		writer:      StderrSink(),
		logger:      zerolog.Nop(),
		now:         time.Now,
	}
}

// Option is the type all options need to adhere to.
type Option func(b *Bar)

// OptionDescription sets the description label shown before the bar.
func OptionDescription(s string) Option {
	return func(b *Bar) {
		b.config.description = s
	}
}

// OptionPostfix sets text appended inside the statistics brackets.
func OptionPostfix(s string) Option {
	return func(b *Bar) {
		b.config.postfix = s
	}
}

// OptionUnit sets what one iteration is called. The default is "it",
// which displays "it/s".
func OptionUnit(unit string) Option {
	return func(b *Bar) {
		b.config.unit = unit
	}
}

// OptionUnitScale prints counts and rates with K, M, G... suffixes.
func OptionUnitScale(enable bool) Option {
	return func(b *Bar) {
		b.config.unitScale = enable
	}
}

// OptionUnitDivisor sets the divisor used by OptionUnitScale (default 1000).
func OptionUnitDivisor(divisor int) Option {
	return func(b *Bar) {
		if divisor > 0 {
			b.config.unitDivisor = float64(divisor)
		}
	}
}

// OptionThrottle sets the minimum time between two repaints.
// Default is 100ms.
func OptionThrottle(duration time.Duration) Option {
	return func(b *Bar) {
		b.config.minInterval = duration
	}
}

// OptionMinIters sets the minimum number of iterations between repaints.
func OptionMinIters(n int64) Option {
	return func(b *Bar) {
		b.config.minIters = n
	}
}

// OptionDynamicMinIters makes the bar widen its iteration gate by itself
// while updates arrive faster than the throttle interval.
func OptionDynamicMinIters() Option {
	return func(b *Bar) {
		b.config.dynamicMinIters = true
	}
}

// OptionDelay suppresses repaints until the bar has run for d.
func OptionDelay(d time.Duration) Option {
	return func(b *Bar) {
		b.config.delay = d
	}
}

// OptionVisibility sets the visibility.
func OptionVisibility(visible bool) Option {
	return func(b *Bar) {
		b.config.disabled = !visible
	}
}

// OptionForceRefresh repaints on every update.
func OptionForceRefresh() Option {
	return func(b *Bar) {
		b.config.forceRefresh = true
	}
}

// OptionClearOnFinish erases the bar once it is closed instead of
// leaving the final line on screen.
func OptionClearOnFinish() Option {
	return func(b *Bar) {
		b.config.leave = false
	}
}

// OptionWidth fixes the width of the whole line. Zero asks the terminal.
func OptionWidth(width int) Option {
	return func(b *Bar) {
		b.config.width = width
	}
}

// OptionInitial starts the counter at n. Reset returns to it.
func OptionInitial(n int64) Option {
	return func(b *Bar) {
		b.config.initial = n
	}
}

// OptionPosition prints the bar row lines below the cursor line.
func OptionPosition(row int) Option {
	return func(b *Bar) {
		if row >= 0 {
			b.config.row = row
		}
	}
}

// OptionColour paints the bar segment with a colorstring style such as
// "green" or "light_blue".
func OptionColour(style string) Option {
	return func(b *Bar) {
		b.config.colour = style
	}
}

// OptionColorCodes enables or disables support for colorstring codes like
// "[red]" in the description, postfix and template.
func OptionColorCodes(enable bool) Option {
	return func(b *Bar) {
		b.config.colorCodes = enable
	}
}

// OptionAnimation sets the style of the bar segment.
func OptionAnimation(a Animation) Option {
	return func(b *Bar) {
		b.config.animation = a
	}
}

// OptionSpinnerType sets the spinner used by the Spinner template field.
// Unknown types fall back to 9.
func OptionSpinnerType(spinnerType int) Option {
	return func(b *Bar) {
		if _, ok := spinners[spinnerType]; ok {
			b.config.spinnerType = spinnerType
		}
	}
}

// OptionHumanTime prints durations under a minute as "42s".
func OptionHumanTime() Option {
	return func(b *Bar) {
		b.config.humanTime = true
	}
}

// OptionTemplate replaces the default layout with a text/template over a
// *View, e.g. "{{.Desc}} {{.Animation}} {{.Count}}/{{.Total}}". New
// reports templates that do not parse or do not execute.
func OptionTemplate(tmpl string) Option {
	return func(b *Bar) {
		b.config.template = tmpl
	}
}

// OptionRenderer replaces the line producer. Every other behaviour,
// throttling and positioning included, stays the same.
func OptionRenderer(r Renderer) Option {
	return func(b *Bar) {
		b.config.renderer = r
	}
}

// OptionWriter sets the output writer (defaults to os.Stderr).
func OptionWriter(w io.Writer) Option {
	return func(b *Bar) {
		b.config.writer = w
	}
}

// OptionPlain forces plain output: no colours, no cursor movement and
// one line per repaint. By default only files that are not terminals
// are plain.
func OptionPlain(enable bool) Option {
	return func(b *Bar) {
		b.config.plain = &enable
	}
}

// OptionUseANSICodes clears lines with the ANSI erase sequence instead of
// overwriting them with spaces.
func OptionUseANSICodes(enable bool) Option {
	return func(b *Bar) {
		b.config.useANSICodes = enable
	}
}

// OptionRenderBlankState sets whether or not to render a 0% bar on construction.
func OptionRenderBlankState(enable bool) Option {
	return func(b *Bar) {
		b.config.renderWithBlankState = enable
	}
}

// OptionOnCompletion provides a function that will be invoked once the
// bar first paints its complete state.
func OptionOnCompletion(cmpl func()) Option {
	return func(b *Bar) {
		b.config.onCompletion = cmpl
	}
}

// OptionInput sets where Input reads answers from (defaults to os.Stdin).
func OptionInput(r io.Reader) Option {
	return func(b *Bar) {
		b.config.input = r
	}
}

// OptionLogger attaches a logger for lifecycle events and write failures.
// Bars are silent by default.
func OptionLogger(l zerolog.Logger) Option {
	return func(b *Bar) {
		b.config.logger = l
	}
}

// optionClock replaces the clock, for tests.
func optionClock(now func() time.Time) Option {
	return func(b *Bar) {
		b.config.now = now
	}
}

func (b *Bar) logger() zerolog.Logger {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.config.logger
}
