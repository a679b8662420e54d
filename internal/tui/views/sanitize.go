package views

import (
	"strings"
	"time"
	"unicode"

	"github.com/rivo/tview"
)

// unstable holds the codepoints tcell cannot lay out predictably: emoji
// skin tone modifiers, the zero width joiner and variation selectors. Dropping
// them turns a composed emoji into its base glyph.
var unstable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200D, Hi: 0x200D, Stride: 1},
		{Lo: 0xFE00, Hi: 0xFE0F, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1F3FB, Hi: 0x1F3FF, Stride: 1},
		{Lo: 0xE0100, Hi: 0xE01EF, Stride: 1},
	},
}

// clean prepares user text for a cell: unstable runes are dropped, control
// characters become spaces and color tags are escaped.
func clean(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.Is(unstable, r):
			return -1
		case r == '\n' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	return tview.Escape(s)
}

// FormatTimestamp renders t as "15:04" when it falls on now's day and
// "01/02" otherwise. The zero time renders empty.
func FormatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(now.Location())
	if y, m, d := t.Date(); y == now.Year() && m == now.Month() && d == now.Day() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}
