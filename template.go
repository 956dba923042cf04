package progressbar

import (
	"fmt"
	"io"
	"strings"
	"text/template"
)

// animationMarker stands in for the bar segment while a template line is
// measured. Its 11 columns are given back to the segment afterwards.
const animationMarker = "{animation}"

var templateAnimationOverhead = len(animationMarker)

func (b *Bar) templateFuncs() template.FuncMap {
	return template.FuncMap{
		// human prints seconds as "12.50s", "2.00min"...
		"human": FormatHumanDuration,
		// clock prints seconds as MM:SS
		"clock": func(seconds float64) string {
			return FormatDuration(int64(seconds), false)
		},
		// scale prints a number with the bar's unit divisor
		"scale": func(v float64) string {
			return FormatScaled(v, b.config.unitDivisor)
		},
		"prefix": func(p, s string) string {
			if s == "" {
				return ""
			}
			return p + s
		},
		"suffix": func(suf, s string) string {
			if s == "" {
				return ""
			}
			return s + suf
		},
	}
}

// compileTemplate parses the configured template and executes it once
// against the bar, so references to unknown fields fail here and not in
// the middle of an update loop.
func (b *Bar) compileTemplate() error {
	t, err := template.New("bar").Funcs(b.templateFuncs()).Parse(b.config.template)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	v := b.view(b.config.now())
	v.marker = true
	if err := t.Execute(io.Discard, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	b.tmpl = t
	return nil
}

// renderTemplate executes the template, twice when it shows the bar
// segment: first to measure the text around it, then with the segment
// sized to the columns left.
func (b *Bar) renderTemplate(v *View) (string, error) {
	var sb strings.Builder
	v.marker = true
	if err := b.tmpl.Execute(&sb, v); err != nil {
		return "", err
	}
	v.marker = false
	if v.animations == 0 {
		return sb.String(), nil
	}

	columns := meterFallback
	if v.width > 0 {
		n := v.animations
		text := displayWidth(sb.String()) - n*templateAnimationOverhead
		columns = (v.width - text - n*b.config.animation.SpacesConsumed()) / n
	}
	v.animColumns = columns

	sb.Reset()
	if err := b.tmpl.Execute(&sb, v); err != nil {
		return "", err
	}
	return sb.String(), nil
}
