package views

import (
	"fmt"
	"strings"

	"github.com/chatconsole/chatconsole/internal/chat"
	"github.com/chatconsole/chatconsole/internal/tui/ui"
	"github.com/rivo/tview"
)

// PatientInfo is the side panel with the selected patient's profile.
type PatientInfo struct {
	*tview.TextView
	theme *ui.Theme
}

func NewPatientInfo(theme *ui.Theme) *PatientInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Patient ")
	tv.SetTitleColor(theme.TitleColor)
	return &PatientInfo{TextView: tv, theme: theme}
}

// Update renders the profile of c. ok false clears the panel.
func (pi *PatientInfo) Update(c chat.Summary, ok bool) {
	pi.Clear()
	if !ok {
		return
	}
	p := c.Patient
	label := ui.ColorName(pi.theme.FgColor)
	value := ui.ColorName(pi.theme.CounterColor)
	orDash := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "-"
		}
		return clean(s)
	}
	email := p.Email
	if email == "" {
		email = c.PatientEmail
	}
	urgency := p.Urgency
	if urgency == "" {
		urgency = chat.UrgencyMedium
	}

	_, _ = fmt.Fprintf(pi, "\n [%s::b]%s[-:-:-]\n [%s]%s[-]\n\n", value, orDash(PatientLabel(c)), label, orDash(email))
	for _, f := range []struct{ name, val string }{
		{"Age", orDash(p.Age)},
		{"Gender", orDash(p.Gender)},
		{"Contact", orDash(p.Contact)},
	} {
		_, _ = fmt.Fprintf(pi, " [%s::b]%-8s[-:-:-] [%s]%s[-]\n", label, f.name+":", value, f.val)
	}
	_, _ = fmt.Fprintf(pi, " [%s::b]%-8s[-:-:-] [%s::b]%s[-:-:-]\n\n",
		label, "Urgency:", ui.ColorName(pi.theme.Urgency(urgency)), strings.ToUpper(string(urgency)))
	_, _ = fmt.Fprintf(pi, " [%s::b]Chief complaint[-:-:-]\n [%s]%s[-]\n", label, value, orDash(p.Symptoms))
}
