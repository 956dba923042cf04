package progressbar

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate(t *testing.T) {
	bar, err := New(10,
		OptionDescription("copy"),
		OptionTemplate("{{.Desc}} {{.Count}}/{{.Total}} {{.Percentage | printf \"%.0f\"}}%"),
		OptionThrottle(0),
		OptionWriter(io.Discard))
	require.NoError(t, err)

	require.NoError(t, bar.Add(3))
	assert.Equal(t, "copy 3/10 30%", bar.String())
}

func TestTemplateInvalid(t *testing.T) {
	_, err := New(10, OptionTemplate("{{.Desc"), OptionWriter(io.Discard))
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	_, err = New(10, OptionTemplate("{{.NoSuchField}}"), OptionWriter(io.Discard))
	assert.ErrorIs(t, err, ErrInvalidTemplate)
}

func TestTemplateAnimationBudget(t *testing.T) {
	bar, err := New(10,
		OptionTemplate("[{{.Animation}}]"),
		OptionWidth(20),
		OptionThrottle(0),
		OptionWriter(io.Discard))
	require.NoError(t, err)

	require.NoError(t, bar.Add(5))
	assert.Equal(t, "[|████████        |]", bar.String())
	assert.Equal(t, 20, displayWidth(bar.String()))
}

func TestTemplateAnimationTwice(t *testing.T) {
	bar, err := New(10,
		OptionTemplate("{{.Animation}} {{.Animation}}"),
		OptionWidth(31),
		OptionThrottle(0),
		OptionWriter(io.Discard))
	require.NoError(t, err)

	require.NoError(t, bar.Add(5))
	seg := "|" + Animation{}.Render(13, 0.5) + "|"
	assert.Equal(t, seg+" "+seg, bar.String())
	assert.Equal(t, 31, displayWidth(bar.String()))
}

func TestTemplateAnimationUnknownWidth(t *testing.T) {
	bar, err := New(10, OptionTemplate("{{.Animation}}"), OptionThrottle(0), OptionWriter(io.Discard))
	require.NoError(t, err)

	require.NoError(t, bar.Add(10))
	assert.Equal(t, "|"+Animation{}.Render(meterFallback, 1)+"|", bar.String())
}

func TestTemplateFuncs(t *testing.T) {
	clk := newFakeClock()
	bar, err := New(0,
		OptionTemplate(`{{.ElapsedSeconds | clock}}{{prefix " | " .Postfix}} {{.ElapsedSeconds | human}}`),
		OptionWriter(io.Discard),
		optionClock(clk.Now))
	require.NoError(t, err)

	require.NoError(t, bar.Add(0))
	clk.Advance(75 * time.Second)
	require.NoError(t, bar.Refresh())
	assert.Equal(t, "01:15 1.25min", bar.String())

	require.NoError(t, bar.SetPostfix("ok"))
	assert.Equal(t, "01:15 | ok 1.25min", bar.String())
}

func TestTemplateColorCodes(t *testing.T) {
	bar, err := New(10,
		OptionDescription("copy"),
		OptionTemplate("[green]{{.Desc}}"),
		OptionColorCodes(true),
		OptionWriter(io.Discard))
	require.NoError(t, err)

	require.NoError(t, bar.Refresh())
	assert.Equal(t, "\x1b[32mcopy\x1b[0m", bar.String())
}

func TestRenderer(t *testing.T) {
	bar, err := New(10,
		OptionRenderer(RendererFunc(func(v *View) (string, error) {
			return fmt.Sprintf("%d of %d", v.Counter(), v.TotalCount()), nil
		})),
		OptionWriter(io.Discard))
	require.NoError(t, err)

	require.NoError(t, bar.Add(4))
	require.NoError(t, bar.Refresh())
	assert.Equal(t, "4 of 10", bar.String())
}

func TestRendererError(t *testing.T) {
	boom := fmt.Errorf("boom")
	bar, err := New(10,
		OptionRenderer(RendererFunc(func(*View) (string, error) {
			return "", boom
		})),
		OptionWriter(io.Discard))
	require.NoError(t, err)

	assert.ErrorIs(t, bar.Refresh(), boom)
}

func TestRate(t *testing.T) {
	clk := newFakeClock()
	bar, err := New(0, OptionTemplate("{{.Rate}}"), OptionWriter(io.Discard), optionClock(clk.Now))
	require.NoError(t, err)

	require.NoError(t, bar.Refresh())
	assert.Equal(t, "?it/s", bar.String())

	clk.Advance(4 * time.Second)
	require.NoError(t, bar.Add(1))
	require.NoError(t, bar.Refresh())
	assert.Equal(t, "4.00s/it", bar.String())
}

func TestRateScaled(t *testing.T) {
	clk := newFakeClock()
	bar, err := New(0,
		OptionTemplate("{{.Count}} {{.Rate}}"),
		OptionUnit("B"),
		OptionUnitScale(true),
		OptionUnitDivisor(1024),
		OptionWriter(io.Discard),
		optionClock(clk.Now))
	require.NoError(t, err)

	require.NoError(t, bar.Add(0))
	clk.Advance(time.Second)
	require.NoError(t, bar.Add(2048))
	assert.Equal(t, "2.00K 2.00KB/s", bar.String())
}

func TestRemaining(t *testing.T) {
	clk := newFakeClock()
	bar, err := New(100,
		OptionInitial(20),
		OptionTemplate("{{.Remaining}}"),
		OptionHumanTime(),
		OptionWriter(io.Discard),
		optionClock(clk.Now))
	require.NoError(t, err)

	require.NoError(t, bar.Refresh())
	assert.Equal(t, "inf", bar.String())

	clk.Advance(10 * time.Second)
	require.NoError(t, bar.Add(10))
	require.NoError(t, bar.Refresh())
	// 1 it/s counted from the initial value
	assert.Equal(t, "01:10", bar.String())
}

func TestSpinner(t *testing.T) {
	clk := newFakeClock()
	bar, err := New(0,
		OptionTemplate("{{.Spinner}}"),
		OptionSpinnerType(59),
		OptionWriter(io.Discard),
		optionClock(clk.Now))
	require.NoError(t, err)

	require.NoError(t, bar.Refresh())
	assert.Equal(t, ".  ", bar.String())
	clk.Advance(200 * time.Millisecond)
	require.NoError(t, bar.Refresh())
	assert.Equal(t, "...", bar.String())
}

func TestIndefinitePulse(t *testing.T) {
	clk := newFakeClock()
	bar, err := New(0, OptionTemplate("{{.Bar 10}}"), OptionWriter(io.Discard), optionClock(clk.Now))
	require.NoError(t, err)

	require.NoError(t, bar.Refresh())
	clk.Advance(500 * time.Millisecond)
	require.NoError(t, bar.Refresh())
	assert.Equal(t, "|    ██    |", bar.String())
}

func TestPercent(t *testing.T) {
	var tests = []struct {
		counter, total int64
		expected       int
	}{
		{0, 100, 0},
		{29, 100, 29},
		{57, 100, 57},
		{99, 100, 99},
		{100, 100, 100},
		{150, 100, 100},
		{1, 3, 33},
		{2, 3, 66},
		{999, 1000, 99},
		{7, 0, 100},
	}
	for _, test := range tests {
		bar, err := New(test.total, OptionWriter(io.Discard))
		require.NoError(t, err)
		bar.state.counter = test.counter
		assert.Equal(t, test.expected, bar.view(time.Now()).Percent(), "%d/%d", test.counter, test.total)
	}
}

func TestPercentInLine(t *testing.T) {
	bar, err := New(100, OptionWidth(60), OptionWriter(io.Discard))
	require.NoError(t, err)

	require.NoError(t, bar.Set(29))
	require.NoError(t, bar.Refresh())
	assert.True(t, strings.HasPrefix(bar.String(), " 29%|"), bar.String())

	require.NoError(t, bar.Set(57))
	require.NoError(t, bar.Refresh())
	assert.True(t, strings.HasPrefix(bar.String(), " 57%|"), bar.String())
}
