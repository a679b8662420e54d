package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// menuRows is how many hints fit in the header before wrapping to a new
// column.
const menuRows = 6

// Menu lays out the key hints of the current page in columns.
type Menu struct {
	*tview.TextView
	theme *Theme
}

func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)
	return &Menu{TextView: tv, theme: theme}
}

func (m *Menu) Update(hints []MenuHint) {
	m.Clear()
	_, _ = fmt.Fprint(m, m.layout(hints))
}

func (m *Menu) layout(hints []MenuHint) string {
	if len(hints) == 0 {
		return ""
	}
	cols := (len(hints) + menuRows - 1) / menuRows
	widths := make([]int, cols)
	for i, h := range hints {
		col := i / menuRows
		widths[col] = max(widths[col], len(h.Key)+len(h.Description)+3)
	}

	rows := min(len(hints), menuRows)
	var b strings.Builder
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := c*menuRows + r
			if i >= len(hints) {
				break
			}
			h := hints[i]
			kc := m.theme.MenuKeyColor
			if h.Numeric {
				kc = m.theme.NumericKeyColor
			}
			fmt.Fprintf(&b, "[%s::b]<%s>[-:-:-] %s", ColorName(kc), h.Key, tview.Escape(h.Description))
			if c < cols-1 {
				b.WriteString(strings.Repeat(" ", widths[c]-len(h.Key)-len(h.Description)-3+2))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
