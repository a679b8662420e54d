package views

import (
	"fmt"

	"github.com/chatconsole/chatconsole/internal/chat"
	"github.com/chatconsole/chatconsole/internal/qr"
	"github.com/chatconsole/chatconsole/internal/tui/ui"
	"github.com/rivo/tview"
)

// CallView shows a call link and its QR code so the call can be joined
// from a phone.
type CallView struct {
	*tview.TextView
	theme *ui.Theme
}

func NewCallView(theme *ui.Theme) *CallView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitleColor(theme.TitleColor)
	return &CallView{TextView: tv, theme: theme}
}

// Show renders the link for a call with patient.
func (cv *CallView) Show(patient string, kind chat.CallKind, link string) {
	cv.Clear()
	cv.SetTitle(fmt.Sprintf(" %s call ", kind))
	_, _ = fmt.Fprintf(cv, "\n Call with [::b]%s[-:-:-]\n\n", clean(patient))

	code, err := qr.Render(link, "")
	if err != nil {
		_, _ = fmt.Fprintf(cv, " [%s](QR unavailable: %s)[-]\n", ui.ColorName(cv.theme.FlashErrColor), tview.Escape(err.Error()))
	} else {
		_, _ = fmt.Fprint(cv, code)
	}
	_, _ = fmt.Fprintf(cv, "\n [%s]%s[-]\n", ui.ColorName(cv.theme.AccentColor), tview.Escape(link))
}
