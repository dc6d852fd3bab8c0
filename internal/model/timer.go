package model

import (
	"fmt"
	"strings"
)

// timerPlaceholder is the literal marker upstream embeds in step texts.
const timerPlaceholder = "<timer>"

// Format renders a timer into the display form used in instruction texts.
func (t StepTimer) Format() string {
	switch {
	case t.MinOrExact != nil && t.Max != nil:
		return fmt.Sprintf("%d–%d Min.", *t.MinOrExact, *t.Max)
	case t.MinOrExact != nil:
		return fmt.Sprintf("%d Min.", *t.MinOrExact)
	case t.Max != nil:
		return fmt.Sprintf("bis zu %d Min.", *t.Max)
	default:
		return ""
	}
}

// ExpandTimers substitutes each <timer> placeholder with the matching timer
// by position. Placeholders beyond the timer list collapse to nothing,
// surplus timers stay unused.
func ExpandTimers(text string, timers []StepTimer) string {
	var b strings.Builder
	idx := 0
	for {
		pos := strings.Index(text, timerPlaceholder)
		if pos < 0 {
			b.WriteString(text)
			break
		}
		b.WriteString(text[:pos])
		if idx < len(timers) {
			b.WriteString(timers[idx].Format())
		}
		idx++
		text = text[pos+len(timerPlaceholder):]
	}
	return b.String()
}

// Text renders the step instruction with all timers expanded.
func (s RecipeStep) Text() string {
	return ExpandTimers(s.Title.Fallback(), s.Timers)
}
