package progressbar

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

type rowState int

const (
	waitingForRow rowState = iota
	activeInRow
	completed
	removed
)

type managed struct {
	bar   *Bar
	state rowState
	row   int

	// disabled by the caller, as opposed to hidden for lack of a row
	disabled bool
}

func (e *managed) incomplete() bool {
	return (e.state == waitingForRow || e.state == activeInRow) && !e.disabled
}

// Manager shares a fixed number of terminal rows between any number of
// bars. Bars beyond the row count wait, hidden, and are promoted into rows
// as others complete, in the order they were appended.
//
// The cursor stays on the first row; row r is addressed r lines below it.
// Manager methods are safe for concurrent use. A managed bar may still be
// advanced directly, as long as Notify is called afterwards.
type Manager struct {
	mu    sync.Mutex
	nrows int
	bars  []*managed

	// acquired maps rows to the index of the bar holding them
	acquired map[int]int

	// widths holds the columns currently shown on each row, the row
	// after the last one being the place of the hidden-bars notice
	widths     []int
	noticeRow  int
	noticeText string

	writer io.Writer
	term   terminal
	logger zerolog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(m *Manager)

// WithWriter sets the sink of the manager and of every bar appended to it
// (defaults to os.Stderr).
func WithWriter(w io.Writer) ManagerOption {
	return func(m *Manager) {
		m.writer = w
	}
}

// WithLogger attaches a logger for row assignments and write failures.
func WithLogger(l zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a manager for nrows rows.
func NewManager(nrows int, opts ...ManagerOption) (*Manager, error) {
	if nrows <= 0 {
		return nil, ErrInvalidRows
	}
	m := &Manager{
		nrows:     nrows,
		acquired:  make(map[int]int),
		widths:    make([]int, nrows+1),
		noticeRow: -1,
		writer:    StderrSink(),
		logger:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(m)
	}
	m.term = terminal{w: m.writer, plain: isPlainSink(m.writer)}
	return m, nil
}

// Len returns the number of bars appended so far.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.bars)
}

// Get returns the bar at index, nil if there is none.
func (m *Manager) Get(index int) *Bar {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.bars) {
		return nil
	}
	return m.bars[index].bar
}

// Row returns the row of the bar at index and whether it has one.
func (m *Manager) Row(index int) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.bars) || m.bars[index].state != activeInRow {
		return 0, false
	}
	return m.bars[index].row, true
}

// Hidden returns the number of bars waiting for a row.
func (m *Manager) Hidden() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.hidden()
}

// Append adds b and returns its index. The bar gets the lowest free row
// and is painted at once, or waits hidden when all rows are taken.
func (m *Manager) Append(b *Bar) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b.lock.Lock()
	b.config.writer = m.writer
	b.term.w = m.writer
	b.term.plain = m.term.plain
	b.colors.Disable = m.term.plain
	b.config.managed = true
	disabled := b.config.disabled
	b.state.hidden = true
	b.lock.Unlock()

	e := &managed{bar: b, state: waitingForRow, row: -1, disabled: disabled}
	m.bars = append(m.bars, e)
	index := len(m.bars) - 1
	if disabled {
		return index, nil
	}

	if free := m.freeRows(); len(free) > 0 {
		m.syncWidths()
		m.assign(index, free[0])
		return index, m.paint(e)
	}
	m.logger.Debug().Int("index", index).Msg("bar waiting for a row")
	m.syncWidths()
	return index, m.drawNotice()
}

// Add advances the bar at index by n and notifies the manager.
func (m *Manager) Add(index int, n int64) error {
	b := m.Get(index)
	if b == nil {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if err := b.Add64(n); err != nil {
		return err
	}
	return m.Notify(index)
}

// Notify must be called after the bar at index was advanced. A completed
// bar leaves its final line above the rows (or is erased), and its row
// goes to the next waiting bar. When rows fall idle the remaining bars
// are packed to the top.
func (m *Manager) Notify(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.bars) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	m.syncWidths()

	e := m.bars[index]
	shifted := false
	if e.incomplete() && e.bar.IsFinished() {
		line, leave, err := e.bar.retire()
		if err != nil {
			return err
		}
		if e.state == activeInRow {
			if err := m.clearRow(e.row); err != nil {
				return err
			}
			delete(m.acquired, e.row)
		}
		if leave {
			if err := m.println(line); err != nil {
				return err
			}
			shifted = true
		}
		e.state = completed
		m.logger.Debug().Int("index", index).Bool("leave", leave).Msg("bar completed")
	}
	return m.rebalance(shifted)
}

// Remove drops the bar at index and returns its row to the pool.
func (m *Manager) Remove(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.bars) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	m.syncWidths()

	e := m.bars[index]
	if e.state == removed {
		return nil
	}
	if e.state == activeInRow {
		if err := m.clearRow(e.row); err != nil {
			return err
		}
		delete(m.acquired, e.row)
	}
	e.bar.setHidden(true)
	e.state = removed
	return m.rebalance(false)
}

// Println prints a message above the rows without corrupting them.
func (m *Manager) Println(a ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.syncWidths()
	if err := m.println(strings.TrimSuffix(fmt.Sprintln(a...), "\n")); err != nil {
		return err
	}
	return m.rebalance(true)
}

// Close moves the cursor below every row in use, so later output does not
// overwrite the bars.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.term.plain {
		return nil
	}
	m.syncWidths()
	used := 0
	for row, w := range m.widths {
		if w > 0 {
			used = row + 1
		}
	}
	if used == 0 {
		return nil
	}
	outputLock.Lock()
	defer outputLock.Unlock()
	err := m.term.write(strings.Repeat("\n", used))
	for row := range m.widths {
		m.widths[row] = 0
	}
	return err
}

// rebalance reassigns rows after a bar left, repaints what moved, clears
// rows nobody holds and updates the notice. shifted means every line moved
// up one row because a line was printed on the cursor line.
func (m *Manager) rebalance(shifted bool) error {
	moved := make(map[*managed]bool)

	remaining := 0
	for _, e := range m.bars {
		if e.incomplete() {
			remaining++
		}
	}

	if m.nrows > remaining {
		// rows are idle: pack in append order
		row := 0
		for _, e := range m.bars {
			if !e.incomplete() {
				continue
			}
			if e.state != activeInRow || e.row != row {
				moved[e] = true
			}
			e.state, e.row = activeInRow, row
			row++
		}
		m.rebuildAcquired()
	} else {
		// rows are the bottleneck: hand free rows to waiting bars
		for _, row := range m.freeRows() {
			next := m.nextWaiting()
			if next < 0 {
				break
			}
			m.assign(next, row)
			moved[m.bars[next]] = true
		}
	}

	occupied := make(map[int]bool)
	for i, e := range m.bars {
		if e.state != activeInRow {
			continue
		}
		occupied[e.row] = true
		if !shifted && !moved[e] {
			continue
		}
		m.logger.Debug().Int("index", i).Int("row", e.row).Msg("bar moved")
		if err := m.paint(e); err != nil {
			return err
		}
	}

	if err := m.drawNotice(); err != nil {
		return err
	}
	if m.noticeRow >= 0 {
		occupied[m.noticeRow] = true
	}
	for row := range m.widths {
		if !occupied[row] && m.widths[row] > 0 {
			if err := m.clearRow(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// drawNotice prints how many bars are hidden just below the last row in
// use, or forgets the notice when none are. An unchanged notice is not
// written again.
func (m *Manager) drawNotice() error {
	hidden := m.hidden()
	if hidden == 0 {
		m.noticeRow, m.noticeText = -1, ""
		return nil
	}
	row := 0
	for r := range m.acquired {
		if r+1 > row {
			row = r + 1
		}
	}
	text := fmt.Sprintf("... (+%d hidden)", hidden)
	width := displayWidth(text)
	if row == m.noticeRow && text == m.noticeText && m.widths[row] == width {
		return nil
	}
	if err := m.term.paint(row, text, width, m.widths[row]); err != nil {
		m.logger.Warn().Err(err).Msg("notice repaint failed")
		return err
	}
	m.widths[row] = width
	m.noticeRow, m.noticeText = row, text
	return nil
}

func (m *Manager) paint(e *managed) error {
	width, err := e.bar.paintAt(e.row, m.widths[e.row])
	m.widths[e.row] = width
	if err != nil {
		m.logger.Warn().Err(err).Int("row", e.row).Msg("bar repaint failed")
	}
	return err
}

func (m *Manager) clearRow(row int) error {
	if err := m.term.clear(row, m.widths[row]); err != nil {
		return err
	}
	m.widths[row] = 0
	return nil
}

// println prints s on the cursor line for good. Everything below moves up
// one row relative to the cursor.
func (m *Manager) println(s string) error {
	if err := m.term.println(s, m.widths[0]); err != nil {
		return err
	}
	if !m.term.plain {
		copy(m.widths, m.widths[1:])
		m.widths[len(m.widths)-1] = 0
	}
	return nil
}

// syncWidths picks up repaints bars did by themselves since the last call.
func (m *Manager) syncWidths() {
	for _, e := range m.bars {
		if e.state == activeInRow {
			m.widths[e.row] = e.bar.shownWidth()
		}
	}
}

func (m *Manager) assign(index, row int) {
	e := m.bars[index]
	if e.state == activeInRow {
		delete(m.acquired, e.row)
	}
	e.state, e.row = activeInRow, row
	m.acquired[row] = index
}

func (m *Manager) rebuildAcquired() {
	m.acquired = make(map[int]int)
	for i, e := range m.bars {
		if e.state == activeInRow {
			m.acquired[e.row] = i
		}
	}
}

// freeRows lists rows nobody holds, lowest first.
func (m *Manager) freeRows() []int {
	var free []int
	for row := 0; row < m.nrows; row++ {
		if _, ok := m.acquired[row]; !ok {
			free = append(free, row)
		}
	}
	sort.Ints(free)
	return free
}

// nextWaiting is the lowest index waiting for a row, -1 if none.
func (m *Manager) nextWaiting() int {
	for i, e := range m.bars {
		if e.state == waitingForRow && !e.disabled {
			return i
		}
	}
	return -1
}

func (m *Manager) hidden() int {
	n := 0
	for _, e := range m.bars {
		if e.state == waitingForRow && !e.disabled {
			n++
		}
	}
	return n
}

// paintAt moves the bar to row, where prevWidth columns are currently
// shown, and paints it once. It returns the width now shown.
func (b *Bar) paintAt(row, prevWidth int) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.config.row = row
	b.state.hidden = false
	b.state.renderedWidth = prevWidth
	err := b.refresh()
	return b.state.renderedWidth, err
}

// retire renders the final line of a completed bar and hides it from
// further repaints.
func (b *Bar) retire() (string, bool, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.config.total != 0 && b.state.counter > b.config.total {
		b.config.total = b.state.counter
	}
	if !b.state.started {
		b.start(b.config.now())
	}
	line, err := b.renderLine(b.config.now())
	if err != nil {
		return "", false, err
	}
	b.state.rendered = line
	b.state.hidden = true
	b.state.closed = true
	b.state.finished = true
	return line, b.config.leave, nil
}

func (b *Bar) setHidden(hidden bool) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.state.hidden = hidden
}

func (b *Bar) shownWidth() int {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.state.renderedWidth
}
