package progressbar

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	ansi "github.com/k0kubun/go-ansi"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
	"golang.org/x/term"
)

// ColumnsEnv names the environment variable that, when it holds an
// integer, fixes the width of every bar and disables terminal queries.
const ColumnsEnv = "PROGRESSBAR_COLUMNS"

// outputLock serialises writes of all bars in the process. A cursor
// movement sequence torn by another writer corrupts every later frame.
var outputLock sync.Mutex

// Regex matching ANSI escape codes.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// StdoutSink returns standard output. On Windows the writer translates
// escape sequences into console API calls.
func StdoutSink() io.Writer {
	return ansi.NewAnsiStdout()
}

// StderrSink returns standard error, see StdoutSink.
func StderrSink() io.Writer {
	return ansi.NewAnsiStderr()
}

// DiscardSink drops all output. State still updates, so String() works.
func DiscardSink() io.Writer {
	return io.Discard
}

// OpenSink resolves an output name: "stdout", "stderr", "null",
// "discard" or "file:<path>", the last one creating or truncating path.
func OpenSink(name string) (io.Writer, error) {
	switch strings.ToLower(name) {
	case "", "stderr":
		return StderrSink(), nil
	case "stdout":
		return StdoutSink(), nil
	case "null", "discard":
		return DiscardSink(), nil
	}
	if strings.HasPrefix(name, "file:") {
		return FileSink(strings.TrimPrefix(name, "file:"))
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSink, name)
}

// FileSink creates (or truncates) path for plain-text output.
func FileSink(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	return f, nil
}

// isPlainSink reports whether w is a file that is not a terminal. Such
// sinks get one uncoloured line per paint and no cursor movement.
func isPlainSink(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

// terminal positions bar lines on a sink relative to the cursor.
type terminal struct {
	w            io.Writer
	plain        bool
	useANSICodes bool
}

// paint writes line at row, blanking the row first when the previous
// content (prevWidth columns) was wider than the new one.
func (t terminal) paint(row int, line string, width, prevWidth int) error {
	outputLock.Lock()
	defer outputLock.Unlock()

	if t.plain {
		return t.write(stripANSI(line) + "\n")
	}
	var sb strings.Builder
	if width < prevWidth {
		sb.WriteString(t.blank(row, prevWidth))
	}
	sb.WriteString(printAt(row, line))
	return t.write(sb.String())
}

// clear erases width columns of row.
func (t terminal) clear(row, width int) error {
	if t.plain || width <= 0 {
		return nil
	}
	outputLock.Lock()
	defer outputLock.Unlock()
	return t.write(t.blank(row, width))
}

// println writes s at the cursor line followed by a real newline, which
// leaves it on screen and moves every row down by one.
func (t terminal) println(s string, prevWidth int) error {
	outputLock.Lock()
	defer outputLock.Unlock()

	if t.plain {
		return t.write(stripANSI(s) + "\n")
	}
	if w := displayWidth(s); w < prevWidth {
		s += strings.Repeat(" ", prevWidth-w)
	}
	return t.write("\r" + s + "\n")
}

func (t terminal) blank(row, width int) string {
	if t.useANSICodes {
		// the "clear entire line" sequence
		return printAt(row, "\x1b[2K") + "\r"
	}
	return printAt(row, strings.Repeat(" ", width)) + "\r"
}

func (t terminal) write(s string) error {
	if _, err := io.WriteString(t.w, s); err != nil {
		return err
	}
	if f, ok := t.w.(*os.File); ok && !t.plain {
		// ignore any errors in Sync(), as stdout
		// can't be synced on some operating systems
		// like Debian 9 (Stretch)
		f.Sync()
	}
	return nil
}

// printAt addresses a line row lines below the cursor: newlines move down,
// the text is written from column 0, and the cursor moves back up. Rows
// below the cursor must have been created once before, which the newlines
// themselves do on first use.
func printAt(row int, s string) string {
	if row <= 0 {
		return "\r" + s
	}
	return strings.Repeat("\n", row) + "\r" + s + fmt.Sprintf("\x1b[%dA", row)
}

func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// displayWidth is the number of terminal columns s occupies once escape
// sequences and carriage returns are removed.
func displayWidth(s string) int {
	return uniseg.StringWidth(stripANSI(strings.ReplaceAll(s, "\r", "")))
}

// truncate shortens an uncoloured line to width columns.
func truncate(s string, width int) string {
	if width <= 0 || strings.ContainsRune(s, '\x1b') || displayWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "")
}

// envColumns reads ColumnsEnv.
func envColumns() (int, bool) {
	v, ok := os.LookupEnv(ColumnsEnv)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// termWidth function returns the visible width of the terminal behind w,
// falling back to stdout and stderr, and can be redefined for testing.
var termWidth = func(w io.Writer) (width int, err error) {
	if f, ok := w.(*os.File); ok {
		width, _, err = term.GetSize(int(f.Fd()))
		if err == nil {
			return width, nil
		}
	}
	width, _, err = term.GetSize(int(os.Stdout.Fd()))
	if err == nil {
		return width, nil
	}
	width, _, err = term.GetSize(int(os.Stderr.Fd()))
	if err == nil {
		return width, nil
	}
	return 0, err
}
