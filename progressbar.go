package progressbar

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/mitchellh/colorstring"
)

// Bar is a thread-safe progress indicator. Methods of a Bar may be called
// from several goroutines; output of all bars is serialised.
type Bar struct {
	state  state
	config config
	lock   sync.Mutex

	term   terminal
	colors colorstring.Colorize
	tmpl   *template.Template
	input  *bufio.Reader
}

// State is the basic properties of the bar.
type State struct {
	Counter        int64
	Total          int64
	CurrentPercent float64 // 0..1, 1 for an unknown total
	SecondsSince   float64
	SecondsLeft    float64 // +Inf while unknown
	Rate           float64 // iterations per second, 0 while unknown
}

type state struct {
	counter int64
	started bool

	startTime          time.Time
	lastRepaint        time.Time
	lastRepaintCounter int64

	// effective iteration gate, grows in dynamic mode
	minIters int64

	// width from ColumnsEnv, read when the bar starts
	envWidth int

	renderedWidth int
	rendered      string

	finished bool
	closed   bool

	// set by a Manager while the bar has no row or has completed
	hidden bool
}

// spinner frames by type, for the Spinner template field.
var spinners = map[int][]string{
	9:  {"|", "/", "-", "\\"},
	14: {"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	59: {".  ", ".. ", "...", " ..", "  .", "   "},
}

// New constructs a bar counting up to total. A total of 0 means the final
// count is unknown. Configuration errors, such as a template that does
// not compile, are returned here rather than from later updates.
func New(total int64, options ...Option) (*Bar, error) {
	b := &Bar{config: defaultConfig(total)}
	for _, o := range options {
		o(b)
	}
	if b.config.total < 0 {
		b.config.total = 0
	}

	plain := isPlainSink(b.config.writer)
	if b.config.plain != nil {
		plain = *b.config.plain
	}
	b.term = terminal{
		w:            b.config.writer,
		plain:        plain,
		useANSICodes: b.config.useANSICodes,
	}
	b.colors = colorstring.Colorize{
		Colors:  colorstring.DefaultColors,
		Disable: plain,
		Reset:   true,
	}
	b.state = b.initialState()

	if b.config.template != "" {
		if err := b.compileTemplate(); err != nil {
			return nil, err
		}
	}

	if b.config.renderWithBlankState {
		if err := b.RenderBlank(); err != nil {
			return b, err
		}
	}
	return b, nil
}

// Default provides a bar with recommended defaults on stderr.
// Set total to 0 when it is not known.
func Default(total int64, description ...string) *Bar {
	desc := ""
	if len(description) > 0 {
		desc = description[0]
	}
	// without a template New only fails on a write error
	b, _ := New(total,
		OptionDescription(desc),
		OptionWriter(StderrSink()),
		OptionThrottle(65*time.Millisecond),
		OptionRenderBlankState(true),
	)
	return b
}

// DefaultBytes provides a bar measuring byte throughput with binary
// suffixes. Set total to 0 when it is not known.
func DefaultBytes(total int64, description ...string) *Bar {
	desc := ""
	if len(description) > 0 {
		desc = description[0]
	}
	b, _ := New(total,
		OptionDescription(desc),
		OptionWriter(StderrSink()),
		OptionUnit("B"),
		OptionUnitScale(true),
		OptionUnitDivisor(1024),
		OptionThrottle(65*time.Millisecond),
		OptionRenderBlankState(true),
	)
	return b
}

func (b *Bar) initialState() state {
	return state{
		counter:       b.config.initial,
		minIters:      b.config.minIters,
		renderedWidth: b.state.renderedWidth,
		hidden:        b.state.hidden,
	}
}

// String returns the most recent rendering of the bar.
func (b *Bar) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.state.rendered
}

// RenderBlank renders the current bar state, it can be used to render a 0% state on start.
func (b *Bar) RenderBlank() error {
	return b.Refresh()
}

// Add adds the specified amount to the bar's counter and repaints when
// the throttle allows it.
func (b *Bar) Add(n int) error {
	return b.Add64(int64(n))
}

// Add64 adds the specified amount to the bar's counter.
func (b *Bar) Add64(n int64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.add(n)
}

// Set sets the counter. It is the same as adding the difference.
func (b *Bar) Set(value int) error {
	return b.Set64(int64(value))
}

// Set64 sets the counter.
func (b *Bar) Set64(value int64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.add(value - b.state.counter)
}

// Refresh repaints the bar once regardless of the throttle.
func (b *Bar) Refresh() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.refresh()
}

func (b *Bar) refresh() error {
	force := b.config.forceRefresh
	b.config.forceRefresh = true
	err := b.add(0)
	b.config.forceRefresh = force
	return err
}

// Reset returns the counter to its initial value and restarts the clock.
// Whatever is on screen stays until the next repaint.
func (b *Bar) Reset() {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.state = b.initialState()
	b.config.logger.Debug().Str("desc", b.config.description).Msg("bar reset")
}

// ResetTotal resets the bar and replaces its total.
func (b *Bar) ResetTotal(total int64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if total < 0 {
		total = 0
	}
	b.config.total = total
	b.state = b.initialState()
	b.config.logger.Debug().Str("desc", b.config.description).Int64("total", total).Msg("bar reset")
}

func (b *Bar) add(n int64) error {
	now := b.config.now()
	if !b.state.started {
		b.start(now)
	}
	b.state.counter += n

	if !b.shouldRepaint(n, now) {
		return nil
	}
	return b.repaint(now)
}

func (b *Bar) start(now time.Time) {
	b.state.started = true
	b.state.startTime = now
	b.state.lastRepaint = now
	b.state.lastRepaintCounter = b.state.counter
	if w, ok := envColumns(); ok {
		b.state.envWidth = w
	}
	b.config.logger.Debug().
		Str("desc", b.config.description).
		Int64("total", b.config.total).
		Int("row", b.config.row).
		Msg("bar started")
}

// shouldRepaint is the throttle gate. Reaching the total always passes,
// once.
func (b *Bar) shouldRepaint(n int64, now time.Time) bool {
	if b.config.disabled || b.state.hidden {
		return false
	}
	if b.config.forceRefresh {
		return true
	}

	delayOK := now.Sub(b.state.startTime) >= b.config.delay
	intervalOK := now.Sub(b.state.lastRepaint) >= b.config.minInterval
	completion := b.config.total != 0 &&
		b.state.counter >= b.config.total &&
		b.state.lastRepaintCounter < b.config.total

	if b.config.dynamicMinIters && !intervalOK && n > 0 {
		b.state.minIters += n
	}
	itersOK := b.state.minIters <= 1 || crossesMultiple(b.state.counter-n, b.state.counter, b.state.minIters)

	return (intervalOK && itersOK && delayOK) || completion
}

// crossesMultiple reports whether a multiple of m lies in (from, to]. For
// steps of one it is to%m == 0.
func crossesMultiple(from, to, m int64) bool {
	if from > to {
		from, to = to, from
	}
	return floorDiv(to, m) > floorDiv(from, m)
}

func floorDiv(a, m int64) int64 {
	q := a / m
	if a%m != 0 && a < 0 {
		q--
	}
	return q
}

// repaint renders and writes the bar. It must be called with the lock held.
func (b *Bar) repaint(now time.Time) error {
	line, err := b.renderLine(now)
	if err != nil {
		return err
	}
	width := displayWidth(line)
	if err := b.term.paint(b.config.row, line, width, b.state.renderedWidth); err != nil {
		b.config.logger.Warn().Err(err).Str("desc", b.config.description).Msg("repaint failed")
		return err
	}

	b.state.rendered = line
	b.state.renderedWidth = width
	b.state.lastRepaint = now
	b.state.lastRepaintCounter = b.state.counter
	if b.config.dynamicMinIters {
		b.state.minIters = 0
	}

	if !b.state.finished && b.complete() {
		b.state.finished = true
		if b.config.onCompletion != nil {
			b.config.onCompletion()
		}
	}
	return nil
}

func (b *Bar) complete() bool {
	return b.config.total != 0 && b.state.counter >= b.config.total
}

// IsFinished returns true once the counter reached the total or the bar
// was closed.
func (b *Bar) IsFinished() bool {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.complete() || b.state.closed
}

// Clear erases the bar from its row.
func (b *Bar) Clear() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.clear()
}

func (b *Bar) clear() error {
	if err := b.term.clear(b.config.row, b.state.renderedWidth); err != nil {
		return err
	}
	b.state.renderedWidth = 0
	return nil
}

// Finish fills the bar to full and closes it.
func (b *Bar) Finish() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.config.total != 0 && b.state.counter < b.config.total {
		b.state.counter = b.config.total
	}
	return b.close()
}

// Close paints the final state. A bar that leaves its trace keeps the
// line (and moves to the next one when it sits on the cursor line), any
// other bar is erased.
func (b *Bar) Close() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.close()
}

func (b *Bar) close() error {
	if b.state.closed {
		return nil
	}
	b.state.closed = true
	if b.config.total != 0 && b.state.counter > b.config.total {
		// the final frame never shows more than 100%
		b.config.total = b.state.counter
	}
	if b.config.disabled || b.state.hidden || b.config.managed {
		return nil
	}

	if !b.config.leave {
		return b.clear()
	}
	if err := b.refresh(); err != nil {
		return err
	}
	if b.config.row == 0 && !b.term.plain {
		outputLock.Lock()
		defer outputLock.Unlock()
		if err := b.term.write("\n"); err != nil {
			return err
		}
		b.state.renderedWidth = 0
	}
	return nil
}

// SetDescription changes the description label of the bar.
func (b *Bar) SetDescription(s string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.config.description = s
	return b.refresh()
}

// SetPostfix changes the text shown after the statistics.
func (b *Bar) SetPostfix(s string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.config.postfix = s
	return b.refresh()
}

// Println prints a message on the cursor line, moving the bar out of the
// way and repainting it afterwards.
func (b *Bar) Println(a ...interface{}) error {
	return b.message(strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
}

// Printf is like Println with a format.
func (b *Bar) Printf(format string, a ...interface{}) error {
	return b.message(strings.TrimSuffix(fmt.Sprintf(format, a...), "\n"))
}

func (b *Bar) message(msg string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	prev := 0
	if b.config.row == 0 {
		prev = b.state.renderedWidth
	} else if err := b.clear(); err != nil {
		return err
	}
	if err := b.term.println(msg, prev); err != nil {
		return err
	}
	b.state.renderedWidth = 0
	if b.config.disabled || b.state.hidden || !b.state.started {
		return nil
	}
	return b.refresh()
}

// Input clears the bar, prints prompt and reads one line of input. The
// bar is painted again afterwards unless it clears on finish.
func (b *Bar) Input(prompt string) (string, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if err := b.clear(); err != nil {
		return "", err
	}
	outputLock.Lock()
	err := b.term.write("\r" + prompt)
	outputLock.Unlock()
	if err != nil {
		return "", err
	}

	if b.input == nil {
		in := b.config.input
		if in == nil {
			in = os.Stdin
		}
		b.input = bufio.NewReader(in)
	}
	line, err := b.input.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")

	if b.config.leave && !b.config.disabled && !b.state.hidden {
		if err := b.refresh(); err != nil {
			return line, err
		}
	}
	return line, nil
}

// State returns the current state.
func (b *Bar) State() State {
	b.lock.Lock()
	defer b.lock.Unlock()

	v := b.view(b.config.now())
	s := State{
		Counter:        b.state.counter,
		Total:          b.config.total,
		CurrentPercent: v.Percentage() / 100,
		SecondsSince:   v.ElapsedSeconds(),
		SecondsLeft:    v.RemainingSeconds(),
		Rate:           v.RateValue(),
	}
	if math.IsNaN(s.Rate) {
		s.Rate = 0
	}
	return s
}

// Reader is the progressbar io.Reader struct.
type Reader struct {
	io.Reader
	bar *Bar
}

// NewReader creates a new Reader with a given bar.
func NewReader(r io.Reader, bar *Bar) Reader {
	return Reader{
		Reader: r,
		bar:    bar,
	}
}

// Read reads buffer and adds the number of bytes to the bar.
func (r *Reader) Read(p []byte) (n int, err error) {
	n, err = r.Reader.Read(p)
	if addErr := r.bar.Add(n); err == nil {
		err = addErr
	}
	return
}

// Close closes the embedded reader if it implements io.Closer and fills the bar to full.
func (r *Reader) Close() (err error) {
	if closer, ok := r.Reader.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return err
		}
	}
	return r.bar.Finish()
}

// Write implements io.Writer.
func (b *Bar) Write(p []byte) (n int, err error) {
	n = len(p)
	return n, b.Add(n)
}

// Read implements io.Reader.
func (b *Bar) Read(p []byte) (n int, err error) {
	n = len(p)
	return n, b.Add(n)
}
