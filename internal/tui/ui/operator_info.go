package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// OperatorData is what the header shows about the console and its daemon.
type OperatorData struct {
	Operator      string
	Instance      string
	Refresh       string
	Conversations int
	Messages      int64
	Uptime        time.Duration
}

// OperatorInfo is the header panel with the operator and daemon state.
type OperatorInfo struct {
	*tview.TextView
	theme *Theme
}

func NewOperatorInfo(theme *Theme) *OperatorInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)
	return &OperatorInfo{TextView: tv, theme: theme}
}

func (oi *OperatorInfo) Update(d OperatorData) {
	oi.Clear()
	fg := ColorName(oi.theme.FgColor)
	val := ColorName(oi.theme.CounterColor)
	operator := d.Operator
	if operator == "" {
		operator = "-"
	}
	row := func(label, value string) {
		_, _ = fmt.Fprintf(oi, "[%s::b]%-9s[-:-:-] [%s]%s[-]\n", fg, label+":", val, tview.Escape(value))
	}
	row("Operator", operator)
	row("Instance", d.Instance)
	row("Refresh", d.Refresh)
	row("Chats", fmt.Sprint(d.Conversations))
	row("Msgs", fmt.Sprint(d.Messages))
	row("Uptime", FormatUptime(d.Uptime))
}

// FormatUptime renders d as "3h12m" or "12m".
func FormatUptime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
