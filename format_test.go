package progressbar

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	var tests = []struct {
		seconds  int64
		human    bool
		expected string
	}{
		{0, false, "00:00"},
		{5, false, "00:05"},
		{5, true, "5s"},
		{59, true, "59s"},
		{60, true, "01:00"},
		{754, false, "12:34"},
		{3600, false, "1:00:00"},
		{3725, true, "1:02:05"},
		{-3, false, "00:00"},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, FormatDuration(test.seconds, test.human), "%d/%v", test.seconds, test.human)
	}
}

func TestFormatScaled(t *testing.T) {
	var tests = []struct {
		value    float64
		divisor  float64
		expected string
	}{
		{0, 1000, "0.00"},
		{9.99, 1000, "9.99"},
		{42.5, 1000, "42.5"},
		{999, 1000, "999"},
		{1000, 1000, "1.00K"},
		{12340000, 1000, "12.3M"},
		{1536, 1024, "1.50K"},
		{-2500, 1000, "-2.50K"},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, FormatScaled(test.value, test.divisor), "%v/%v", test.value, test.divisor)
	}
}

func TestFormatScaledBoundary(t *testing.T) {
	// 999.5 no longer fits three figures without a suffix
	assert.True(t, strings.HasSuffix(FormatScaled(999.5, 1000), "K"))
	assert.True(t, strings.HasSuffix(FormatScaled(999500, 1000), "M"))
	assert.Equal(t, "999K", FormatScaled(999000, 1000))
}

func TestFormatScaledOverflow(t *testing.T) {
	v := 1.0
	for i := 0; i < 8; i++ {
		v *= 1000
	}
	assert.Equal(t, "1.0Y", FormatScaled(v, 1000))
}

func TestFormatScaledMonotonic(t *testing.T) {
	// within one suffix, larger values never print smaller
	prev := -1.0
	for v := 1.0; v < 999; v += 7.3 {
		var got float64
		_, err := fmt.Sscanf(FormatScaled(v, 1000), "%g", &got)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, got, prev)
		assert.InDelta(t, v, got, 0.51)
		prev = got
	}
}

func TestFormatHumanDuration(t *testing.T) {
	assert.Equal(t, "12.50s", FormatHumanDuration(12.5))
	assert.Equal(t, "2.00min", FormatHumanDuration(120))
	assert.Equal(t, "1.50hr", FormatHumanDuration(5400))
	assert.Equal(t, "2.00days", FormatHumanDuration(2*86400))
}
