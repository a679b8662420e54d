package views

import (
	"fmt"

	"github.com/chatconsole/chatconsole/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView is the key and command reference.
type HelpView struct {
	*tview.TextView
}

func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	k := ui.ColorName(theme.MenuKeyColor)
	section := func(title string) { _, _ = fmt.Fprintf(tv, "\n  [::b]%s[-:-:-]\n\n", title) }
	entry := func(key, desc string) {
		_, _ = fmt.Fprintf(tv, "  [%s]%-22s[-:-:-] %s\n", k, tview.Escape(key), desc)
	}

	section("Global")
	entry(":", "Command mode")
	entry("/", "Filter conversations")
	entry("r", "Refresh conversations")
	entry("?", "Help")
	entry("Esc", "Back")
	entry("q / Ctrl-C", "Quit")

	section("Conversations")
	entry("Enter", "Open conversation")
	entry("1-9", "Open Nth conversation")
	entry("j k / Down Up", "Move")

	section("Thread")
	entry("i", "Focus composer")
	entry("Enter", "Send (in composer)")
	entry("a / v", "Start audio / video call")

	section("Commands")
	entry(":refresh", "Reload the conversation list")
	entry(":open <patient>", "Open the first conversation matching")
	entry(":attach <file>...", "Send files to the open conversation")
	entry(":call audio|video", "Start a call")
	entry(":help", "Show this help")
	entry(":quit", "Quit")

	return &HelpView{TextView: tv}
}
