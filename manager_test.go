package progressbar

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManagedBar(t *testing.T, total int64, desc string, opts ...Option) *Bar {
	t.Helper()
	opts = append([]Option{
		OptionDescription(desc),
		OptionWidth(40),
		OptionWriter(io.Discard),
	}, opts...)
	bar, err := New(total, opts...)
	require.NoError(t, err)
	return bar
}

func assertRow(t *testing.T, m *Manager, index, expected int) {
	t.Helper()
	row, ok := m.Row(index)
	require.True(t, ok, "bar %d has no row", index)
	assert.Equal(t, expected, row, "bar %d", index)
}

func TestNewManagerInvalidRows(t *testing.T) {
	_, err := NewManager(0)
	assert.ErrorIs(t, err, ErrInvalidRows)
	_, err = NewManager(-2)
	assert.ErrorIs(t, err, ErrInvalidRows)
}

func TestManagerPromotion(t *testing.T) {
	buf := bytes.Buffer{}
	m, err := NewManager(2, WithWriter(&buf))
	require.NoError(t, err)

	for _, desc := range []string{"A", "B", "C"} {
		_, err := m.Append(newManagedBar(t, 10, desc))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, m.Len())
	assertRow(t, m, 0, 0)
	assertRow(t, m, 1, 1)
	_, ok := m.Row(2)
	assert.False(t, ok)
	assert.Equal(t, 1, m.Hidden())
	assert.Contains(t, buf.String(), "... (+1 hidden)")

	// nothing painted for the waiting bar
	assert.Empty(t, m.Get(2).String())

	require.NoError(t, m.Add(0, 10))
	_, ok = m.Row(0)
	assert.False(t, ok)
	assertRow(t, m, 2, 0)
	assertRow(t, m, 1, 1)
	assert.Equal(t, 0, m.Hidden())

	// the completed bar was printed for good above the rows
	out := buf.String()
	assert.Contains(t, out, "\rA: 100%")
	assert.True(t, strings.HasPrefix(m.Get(2).String(), "C:"))
}

func TestManagerCompaction(t *testing.T) {
	buf := bytes.Buffer{}
	m, err := NewManager(3, WithWriter(&buf))
	require.NoError(t, err)

	for _, desc := range []string{"A", "B"} {
		_, err := m.Append(newManagedBar(t, 10, desc))
		require.NoError(t, err)
	}
	assertRow(t, m, 1, 1)

	require.NoError(t, m.Add(0, 10))
	assertRow(t, m, 1, 0)
	assert.Equal(t, 0, m.Hidden())
	assert.NotContains(t, buf.String(), "hidden")
}

func TestManagerClearOnFinish(t *testing.T) {
	buf := bytes.Buffer{}
	m, err := NewManager(1, WithWriter(&buf))
	require.NoError(t, err)

	_, err = m.Append(newManagedBar(t, 10, "A", OptionClearOnFinish()))
	require.NoError(t, err)
	_, err = m.Append(newManagedBar(t, 10, "B"))
	require.NoError(t, err)

	buf.Reset()
	require.NoError(t, m.Add(0, 10))
	assertRow(t, m, 1, 0)
	line := m.Get(0).String()
	assert.True(t, strings.HasPrefix(line, "A: 100%"))
	assert.NotContains(t, buf.String(), line+"\n")
}

func TestManagerNotifyWithoutCompletion(t *testing.T) {
	buf := bytes.Buffer{}
	m, err := NewManager(1, WithWriter(&buf))
	require.NoError(t, err)

	_, err = m.Append(newManagedBar(t, 10, "A"))
	require.NoError(t, err)
	_, err = m.Append(newManagedBar(t, 10, "B"))
	require.NoError(t, err)

	require.NoError(t, m.Add(0, 4))
	assertRow(t, m, 0, 0)
	assert.Equal(t, 1, m.Hidden())

	// a waiting bar advances without painting
	n := buf.Len()
	require.NoError(t, m.Add(1, 5))
	assert.Equal(t, n, buf.Len())
	assert.Equal(t, int64(5), m.Get(1).State().Counter)
}

func TestManagerWaitingBarCompletes(t *testing.T) {
	m, err := NewManager(1, WithWriter(&bytes.Buffer{}))
	require.NoError(t, err)

	_, err = m.Append(newManagedBar(t, 10, "A"))
	require.NoError(t, err)
	_, err = m.Append(newManagedBar(t, 10, "B"))
	require.NoError(t, err)

	// B finishes before it ever gets a row
	require.NoError(t, m.Add(1, 10))
	_, ok := m.Row(1)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Hidden())
	assertRow(t, m, 0, 0)
}

func TestManagerRemove(t *testing.T) {
	buf := bytes.Buffer{}
	m, err := NewManager(1, WithWriter(&buf))
	require.NoError(t, err)

	_, err = m.Append(newManagedBar(t, 10, "A"))
	require.NoError(t, err)
	_, err = m.Append(newManagedBar(t, 10, "B"))
	require.NoError(t, err)

	require.NoError(t, m.Remove(0))
	_, ok := m.Row(0)
	assert.False(t, ok)
	assertRow(t, m, 1, 0)

	require.NoError(t, m.Remove(0))
	assert.ErrorIs(t, m.Remove(5), ErrIndexOutOfRange)
	assert.ErrorIs(t, m.Notify(-1), ErrIndexOutOfRange)
	assert.ErrorIs(t, m.Add(7, 1), ErrIndexOutOfRange)
	assert.Nil(t, m.Get(7))
}

func TestManagerDisabledBar(t *testing.T) {
	m, err := NewManager(1, WithWriter(&bytes.Buffer{}))
	require.NoError(t, err)

	index, err := m.Append(newManagedBar(t, 10, "A", OptionVisibility(false)))
	require.NoError(t, err)
	_, ok := m.Row(index)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Hidden())

	index, err = m.Append(newManagedBar(t, 10, "B"))
	require.NoError(t, err)
	assertRow(t, m, index, 0)
}

func TestManagerPrintln(t *testing.T) {
	buf := bytes.Buffer{}
	m, err := NewManager(2, WithWriter(&buf))
	require.NoError(t, err)

	_, err = m.Append(newManagedBar(t, 10, "A"))
	require.NoError(t, err)

	buf.Reset()
	require.NoError(t, m.Println("checkpoint", 3))
	assert.True(t, strings.HasPrefix(buf.String(), "\rcheckpoint 3"))
	assert.Contains(t, buf.String(), "\n\rA:")
	assertRow(t, m, 0, 0)
}

func TestManagerClose(t *testing.T) {
	buf := bytes.Buffer{}
	m, err := NewManager(2, WithWriter(&buf))
	require.NoError(t, err)

	for _, desc := range []string{"A", "B"} {
		_, err := m.Append(newManagedBar(t, 10, desc))
		require.NoError(t, err)
	}
	buf.Reset()
	require.NoError(t, m.Close())
	assert.Equal(t, "\n\n", buf.String())
}

func TestManagedBarCloseIsSilent(t *testing.T) {
	buf := bytes.Buffer{}
	m, err := NewManager(1, WithWriter(&buf))
	require.NoError(t, err)

	index, err := m.Append(newManagedBar(t, 10, "A"))
	require.NoError(t, err)

	n := buf.Len()
	require.NoError(t, m.Get(index).Close())
	assert.Equal(t, n, buf.Len())

	// the manager retires it on the next notification
	require.NoError(t, m.Notify(index))
	_, ok := m.Row(index)
	assert.False(t, ok)
	assert.Greater(t, buf.Len(), n)
}
