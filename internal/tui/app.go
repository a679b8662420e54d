// Package tui is the terminal console: a conversation list, a live thread
// with a composer, the patient panel and call links.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chatconsole/chatconsole/internal/bus"
	"github.com/chatconsole/chatconsole/internal/chat"
	"github.com/chatconsole/chatconsole/internal/console"
	"github.com/chatconsole/chatconsole/internal/rpc"
	"github.com/chatconsole/chatconsole/internal/status"
	"github.com/chatconsole/chatconsole/internal/tui/keys"
	"github.com/chatconsole/chatconsole/internal/tui/ui"
	"github.com/chatconsole/chatconsole/internal/tui/views"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

const (
	pageConversations = "Conversations"
	pageThread        = "Thread"
	pageCall          = "Call"
	pageHelp          = "Help"

	daemonPollInterval = 10 * time.Second
)

// Daemon is the part of the daemon API the app reads directly; everything
// conversation related goes through the console session.
type Daemon interface {
	Status(ctx context.Context) (*rpc.GetStatusResponse, error)
}

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	root     *tview.Flex
	pages    *ui.Pages
	info     *ui.OperatorInfo
	menu     *ui.Menu
	crumbs   *ui.Crumbs
	prompt   *ui.Prompt
	flashBar *ui.FlashBar
	flash    *ui.FlashModel
	registry *keys.Registry

	list    *views.ConversationList
	thread  *views.MessageThread
	patient *views.PatientInfo
	call    *views.CallView
	help    *views.HelpView

	session  *console.Session
	bus      *bus.Bus
	daemon   Daemon
	instance string
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	daemonStatus *rpc.GetStatusResponse
}

// NewApp creates the TUI application. Console events are read from b, the
// bus the session publishes on.
func NewApp(session *console.Session, b *bus.Bus, daemon Daemon, instance string, logger *zap.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:      tview.NewApplication(),
		theme:    theme,
		pages:    ui.NewPages(),
		info:     ui.NewOperatorInfo(theme),
		menu:     ui.NewMenu(theme),
		crumbs:   ui.NewCrumbs(theme),
		prompt:   ui.NewPrompt(theme),
		flashBar: ui.NewFlashBar(theme),
		flash:    ui.NewFlashModel(),
		registry: keys.NewRegistry(),
		list:     views.NewConversationList(theme),
		thread:   views.NewMessageThread(theme),
		patient:  views.NewPatientInfo(theme),
		call:     views.NewCallView(theme),
		help:     views.NewHelpView(theme),
		session:  session,
		bus:      b,
		daemon:   daemon,
		instance: instance,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'r', Label: "r", Description: "Refresh",
		Handler: a.refresh,
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: ':', Label: ":", Description: "Command",
		Handler: func() { a.showPrompt(ui.PromptCommand) },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: '/', Label: "/", Description: "Filter",
		Handler: func() { a.showPrompt(ui.PromptFilter) },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: '?', Label: "?", Description: "Help",
		Handler: func() { a.pages.Push(pageHelp) },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'q', Label: "q", Description: "Quit",
		Handler: a.Stop,
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyEscape, Label: "Esc", Description: "Back",
		Handler: a.back, Hidden: true,
	})

	a.registry.AddView(pageConversations, &keys.Action{
		Key: tcell.KeyEnter, Label: "Enter", Description: "Open",
		Handler: func() { a.open(a.list.SelectedID()) },
	})
	a.registry.AddView(pageThread, &keys.Action{
		Key: tcell.KeyRune, Rune: 'i', Label: "i", Description: "Compose",
		Handler: func() { a.app.SetFocus(a.thread.Composer()) },
	})
	a.registry.AddView(pageThread, &keys.Action{
		Key: tcell.KeyRune, Rune: 'a', Label: "a", Description: "Audio call",
		Handler: func() { a.startCall(chat.CallAudio) },
	})
	a.registry.AddView(pageThread, &keys.Action{
		Key: tcell.KeyRune, Rune: 'v', Label: "v", Description: "Video call",
		Handler: func() { a.startCall(chat.CallVideo) },
	})
}

func (a *App) setupCallbacks() {
	a.thread.SetOnInput(a.session.SetInput)
	a.thread.SetOnSend(a.send)

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		switch mode {
		case ui.PromptFilter:
			a.list.SetFilter(text)
			a.pages.Push(pageConversations)
			a.app.SetFocus(a.list)
		case ui.PromptCommand:
			a.runCommand(ParseCommand(text))
		}
	})
	a.prompt.SetOnCancel(a.hidePrompt)
	a.prompt.SetCommands(commandNames)

	a.pages.SetOnChange(func(stack []string) {
		labels := make([]string, len(stack))
		for i, name := range stack {
			labels[i] = a.crumbLabel(name)
		}
		a.crumbs.Update(labels)
		top := stack[len(stack)-1]
		a.menu.Update(a.registry.Hints(top))
		a.focusPage(top)
	})
}

func (a *App) setupLayout() {
	header := tview.NewFlex().
		AddItem(a.info, 0, 1, false).
		AddItem(a.menu, 0, 1, false).
		AddItem(ui.NewLogo(a.theme), 20, 0, false)

	threadPage := tview.NewFlex().
		AddItem(a.thread, 0, 3, true).
		AddItem(a.patient, 34, 0, false)

	a.pages.AddPage(pageConversations, a.list, true, false)
	a.pages.AddPage(pageThread, threadPage, true, false)
	a.pages.AddPage(pageCall, a.call, true, false)
	a.pages.AddPage(pageHelp, a.help, true, false)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 7, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false)

	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.handleKey)

	a.thread.ShowNoSelection()
	a.renderHeader()
	a.pages.Reset(pageConversations)
}

func (a *App) handleKey(event *tcell.EventKey) *tcell.EventKey {
	focused := a.app.GetFocus()
	if focused == a.prompt.InputField {
		return event
	}
	if focused == a.thread.Composer() {
		if event.Key() == tcell.KeyEscape {
			a.app.SetFocus(a.thread.Messages())
			return nil
		}
		return event
	}

	page := a.pages.Current()
	if page == pageConversations && event.Key() == tcell.KeyRune && event.Rune() >= '1' && event.Rune() <= '9' {
		a.open(a.list.IDAt(int(event.Rune() - '0')))
		return nil
	}
	if a.registry.HandleEvent(page, event) {
		return nil
	}
	return event
}

func (a *App) crumbLabel(page string) string {
	if page != pageThread {
		return page
	}
	if c, ok := a.session.SelectedSummary(); ok {
		return views.PatientLabel(c)
	}
	if id := a.session.Selected(); id != "" {
		return chat.PatientOf(id)
	}
	return page
}

func (a *App) focusPage(page string) {
	switch page {
	case pageConversations:
		a.app.SetFocus(a.list)
	case pageThread:
		a.app.SetFocus(a.thread.Messages())
	case pageCall:
		a.app.SetFocus(a.call)
	case pageHelp:
		a.app.SetFocus(a.help)
	}
}

// back pops a page. On the root page it clears the filter first, then the
// flash message.
func (a *App) back() {
	if a.pages.Pop() != "" {
		return
	}
	if a.list.Filter() != "" {
		a.list.SetFilter("")
		return
	}
	a.flash.Clear()
}

func (a *App) showPrompt(mode ui.PromptMode) {
	a.prompt.Activate(mode)
	if mode == ui.PromptFilter {
		a.prompt.SetText(a.list.Filter())
	}
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	a.focusPage(a.pages.Current())
}

// runCommand executes a ":" command. Unknown commands flash a warning.
func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "refresh", "r":
		a.refresh()
	case "open", "o":
		a.list.SetFilter(cmd.Args)
		if id := a.list.IDAt(1); id != "" {
			a.open(id)
		} else {
			a.flash.Warn("No conversation matches " + cmd.Args)
		}
	case "attach":
		a.attach(strings.Fields(cmd.Args))
	case "call":
		kind, err := chat.ParseCallKind(cmd.Args)
		if err != nil {
			a.flash.Err(err)
			return
		}
		a.startCall(kind)
	case "help", "h":
		a.pages.Push(pageHelp)
	case "quit", "q":
		a.Stop()
	default:
		a.flash.Warn("Unknown command: " + cmd.Name)
	}
}

func (a *App) refresh() {
	go func() {
		err := a.session.Refresh(a.ctx)
		if err != nil && !errors.Is(err, console.ErrSuperseded) && a.ctx.Err() == nil {
			a.flash.Err(fmt.Errorf("refresh failed: %w", err))
		}
	}()
}

func (a *App) open(id string) {
	if id == "" {
		return
	}
	a.pages.Push(pageThread)
	go func() {
		if err := a.session.Select(a.ctx, id); err != nil && a.ctx.Err() == nil {
			a.flash.Err(fmt.Errorf("open conversation: %w", err))
		}
	}()
}

func (a *App) send() {
	go func() {
		if err := a.session.SendText(a.ctx); err != nil {
			a.flash.Err(fmt.Errorf("send failed: %w", err))
			return
		}
		input := a.session.Input()
		a.app.QueueUpdateDraw(func() { a.thread.SetComposerText(input) })
	}()
}

func (a *App) attach(paths []string) {
	if len(paths) == 0 {
		a.flash.Warn("Usage: attach <file>...")
		return
	}
	go func() {
		files, closeAll, err := openFiles(paths)
		if err != nil {
			a.flash.Err(err)
			return
		}
		defer closeAll()
		n, err := a.session.SendMedia(a.ctx, files)
		switch {
		case err != nil:
			a.flash.Err(fmt.Errorf("sent %d of %d files: %w", n, len(files), err))
		case n == 0:
			a.flash.Warn("Open a conversation first")
		default:
			a.flash.Success(fmt.Sprintf("Sent %d file(s)", n))
		}
	}()
}

func (a *App) startCall(kind chat.CallKind) {
	go func() {
		link, err := a.session.StartCall(a.ctx, kind)
		if err != nil {
			a.flash.Err(fmt.Errorf("start call: %w", err))
			return
		}
		if link == "" {
			a.flash.Warn("Open a conversation first")
			return
		}
		patient := a.crumbLabel(pageThread)
		a.app.QueueUpdateDraw(func() {
			a.call.Show(patient, kind, link)
			a.pages.Push(pageCall)
		})
	}()
}

func (a *App) renderList() {
	a.list.Update(a.session.Conversations(), a.session.Selected())
}

func (a *App) renderThread() {
	id := a.session.Selected()
	if id == "" {
		a.thread.ShowNoSelection()
		a.patient.Update(chat.Summary{}, false)
		return
	}
	c, ok := a.session.SelectedSummary()
	a.thread.Update(a.crumbLabel(pageThread), a.session.Messages(), a.session.IsMine)
	a.patient.Update(c, ok)
	if a.pages.Current() == pageThread {
		a.crumbs.Update([]string{pageConversations, a.crumbLabel(pageThread)})
	}
}

func (a *App) renderHeader() {
	d := ui.OperatorData{
		Operator:      a.session.Operator(),
		Instance:      a.instance,
		Refresh:       string(a.session.Status().Current()),
		Conversations: len(a.session.Conversations()),
	}
	a.mu.Lock()
	if st := a.daemonStatus; st != nil {
		d.Messages = st.MessageCount
		d.Uptime = time.Duration(st.UptimeMs) * time.Millisecond
	}
	a.mu.Unlock()
	a.info.Update(d)
}

// loop redraws on console events and flash messages until the app stops.
func (a *App) loop(events <-chan bus.Event) {
	ticker := time.NewTicker(daemonPollInterval)
	defer ticker.Stop()
	a.pollDaemon()

	for {
		select {
		case <-a.ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			a.handleEvent(evt)
		case <-a.flash.Watch():
			a.app.QueueUpdateDraw(func() { a.flashBar.Update(a.flash.Current()) })
		case <-ticker.C:
			a.pollDaemon()
			a.app.QueueUpdateDraw(func() {
				a.flashBar.Update(a.flash.Current())
				a.renderHeader()
			})
		}
	}
}

func (a *App) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindConversationsChanged:
		a.app.QueueUpdateDraw(func() {
			a.renderList()
			a.renderHeader()
		})
	case bus.KindSelectionChanged, bus.KindThreadChanged:
		a.app.QueueUpdateDraw(a.renderThread)
	case bus.KindRefreshStatus:
		if change, ok := evt.Payload.(status.StatusChange); ok && change.To == status.Failed {
			a.logger.Warn("conversation refresh failed", zap.String("error", change.Err))
		}
		a.app.QueueUpdateDraw(a.renderHeader)
	}
}

func (a *App) pollDaemon() {
	ctx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	st, err := a.daemon.Status(ctx)
	if err != nil {
		if a.ctx.Err() == nil {
			a.logger.Warn("daemon status failed", zap.Error(err))
		}
		return
	}
	a.mu.Lock()
	a.daemonStatus = st
	a.mu.Unlock()
}

// Run loads the conversation list and blocks until the user quits.
func (a *App) Run() error {
	events, unsubscribe := a.bus.Subscribe("", "", 64)
	defer unsubscribe()

	go a.loop(events)
	a.refresh()
	return a.app.Run()
}

// Stop shuts the TUI down and closes the session.
func (a *App) Stop() {
	a.cancel()
	a.session.Close()
	a.app.Stop()
}
