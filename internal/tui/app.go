// Package tui is the live terminal client: a conversation list, the
// selected thread and a compose box, refreshed from watcher updates.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/imsg/internal/bus"
	"github.com/matheus3301/imsg/internal/dispatch"
	"github.com/matheus3301/imsg/internal/store"
	"github.com/matheus3301/imsg/internal/tui/editor"
	"github.com/matheus3301/imsg/internal/tui/keys"
	"github.com/matheus3301/imsg/internal/tui/model"
	"github.com/matheus3301/imsg/internal/tui/ui"
	"go.uber.org/zap"
)

// DefaultTickInterval bounds how long the loop waits for a key before
// draining the update queue again.
const DefaultTickInterval = 100 * time.Millisecond

var newScreen = tcell.NewScreen

// HistoryStore persists submitted texts across runs.
type HistoryStore interface {
	AppendHistory(body string) error
	LoadHistory(limit int) ([]string, error)
}

// Deps are the collaborators of the application.
type Deps struct {
	Reader  store.Reader
	Sender  dispatch.Sender
	Queue   *bus.Queue
	History HistoryStore // optional
	Logger  *zap.Logger
	// Screen overrides the terminal; tests pass a simulation screen.
	Screen tcell.Screen
}

// Options tunes the application. Zero values select the defaults.
type Options struct {
	ConversationLimit int
	MessageLimit      int
	HistoryLimit      int
	DispatchTimeout   time.Duration
	TickInterval      time.Duration
	Theme             *ui.Theme
	Now               func() time.Time
}

func (o *Options) setDefaults() {
	if o.ConversationLimit <= 0 {
		o.ConversationLimit = 50
	}
	if o.MessageLimit <= 0 {
		o.MessageLimit = 100
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = 200
	}
	if o.DispatchTimeout <= 0 {
		o.DispatchTimeout = 30 * time.Second
	}
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.Theme == nil {
		o.Theme = ui.DefaultTheme()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// App is the main TUI application shell. All state is owned by the
// goroutine running Run; the watcher reaches it only through the queue.
type App struct {
	deps     Deps
	opts     Options
	logger   *zap.Logger
	screen   tcell.Screen
	vm       *model.ViewModel
	editor   *editor.Editor
	registry *keys.Registry

	listPanel  *ui.Panel
	msgPanel   *ui.Panel
	inputPanel *ui.Panel
	helpPanel  *ui.Overlay

	ctx        context.Context
	focus      Focus
	help       bool
	running    bool
	dirty      bool
	listScroll int
	msgScroll  int
}

// New creates the TUI application.
func New(deps Deps, opts Options) *App {
	opts.setDefaults()
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Queue == nil {
		deps.Queue = bus.NewQueue()
	}
	theme := opts.Theme

	a := &App{
		deps:       deps,
		opts:       opts,
		logger:     deps.Logger,
		screen:     deps.Screen,
		vm:         model.NewViewModel(deps.Reader, opts.ConversationLimit, opts.MessageLimit),
		editor:     editor.New(opts.HistoryLimit),
		registry:   keys.NewRegistry(),
		listPanel:  ui.NewPanel("Conversations", theme),
		msgPanel:   ui.NewPanel("Messages", theme),
		inputPanel: ui.NewPanel("Send", theme),
		helpPanel:  ui.NewOverlay("Help", theme),
		ctx:        context.Background(),
		focus:      FocusList,
		dirty:      true,
	}
	a.setupBindings()
	return a
}

// Focus returns the focused panel.
func (a *App) Focus() Focus { return a.focus }

// Draft returns the compose buffer text.
func (a *App) Draft() string { return a.editor.Text() }

// Run initializes the screen, loads the initial state and runs the tick
// loop until the operator quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.screen == nil {
		s, err := newScreen()
		if err != nil {
			return fmt.Errorf("create screen: %w", err)
		}
		a.screen = s
	}
	if err := a.screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer a.screen.Fini()
	a.screen.SetStyle(tcell.StyleDefault.Background(a.opts.Theme.BgColor).Foreground(a.opts.Theme.FgColor))

	a.load(ctx)

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go a.screen.ChannelEvents(events, quit)
	defer close(quit)

	a.running = true
	a.render()
	for a.running {
		a.apply(a.deps.Queue.DrainAll())

		select {
		case <-ctx.Done():
			a.running = false
		case ev, ok := <-events:
			if !ok {
				a.running = false
				break
			}
			a.HandleEvent(ev)
		case <-a.deps.Queue.Ready():
		case <-time.After(a.opts.TickInterval):
		}

		if a.running && a.dirty {
			a.render()
		}
	}
	a.logger.Info("ui loop exited")
	return nil
}

// load fetches the conversation list, selects the first conversation and
// seeds the compose history.
func (a *App) load(ctx context.Context) {
	a.ctx = ctx
	if a.deps.History != nil {
		entries, err := a.deps.History.LoadHistory(a.opts.HistoryLimit)
		if err != nil {
			a.logger.Warn("load input history", zap.Error(err))
		}
		for _, h := range entries {
			a.editor.PushHistory(h)
		}
	}

	a.fitFocus()
	if err := a.vm.LoadConversations(ctx); err != nil {
		a.reportError(err)
		return
	}
	if len(a.vm.Conversations) > 0 {
		a.selectConversation(0)
	}
}

// fitFocus moves focus off the list when the layout has collapsed it.
func (a *App) fitFocus() {
	if a.focus == FocusList && !a.currentLayout().listVisible {
		a.moveFocus(FocusMessages)
	}
}

func (a *App) quit() {
	a.running = false
}

// HandleEvent dispatches one terminal event.
func (a *App) HandleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		if a.screen != nil {
			a.screen.Sync()
		}
		a.fitFocus()
		a.clampMessageScroll()
		a.dirty = true
	case *tcell.EventKey:
		a.handleKey(ev)
		a.dirty = true
	}
}

func (a *App) handleKey(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyCtrlC {
		a.quit()
		return
	}
	if a.currentLayout().tooSmall {
		if isRune(ev, 'q', 'Q') {
			a.quit()
		}
		return
	}
	if a.help {
		if isRune(ev, '?') || ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyF1 {
			a.help = false
		}
		return
	}
	if a.focus == FocusInput {
		// Printable keys are text here; only special global keys apply.
		if ev.Key() != tcell.KeyRune && a.registry.HandleGlobal(ev) {
			return
		}
		if !a.registry.HandleEvent(string(FocusInput), ev) && ev.Key() == tcell.KeyRune {
			a.editor.Insert(string(ev.Rune()))
		}
		return
	}
	if a.registry.HandleGlobal(ev) {
		return
	}
	a.registry.HandleEvent(string(a.focus), ev)
}

func isRune(ev *tcell.EventKey, runes ...rune) bool {
	if ev.Key() != tcell.KeyRune {
		return false
	}
	for _, r := range runes {
		if ev.Rune() == r {
			return true
		}
	}
	return false
}

// moveFocus applies a focus transition, ignoring ones the layout forbids.
func (a *App) moveFocus(to Focus) {
	if err := a.transition(to); err != nil && !errors.Is(err, errListHidden) {
		a.logger.Debug("focus change rejected", zap.Error(err))
	}
}

// selectConversation loads the thread at idx and scrolls to its end.
func (a *App) selectConversation(idx int) {
	if err := a.vm.Select(a.ctx, idx); err != nil {
		a.reportError(err)
		return
	}
	conv, _ := a.vm.SelectedConversation()
	a.msgPanel.SetTitle(conv.DisplayName)
	a.scrollToBottom()
	a.dirty = true
}

func (a *App) moveSelection(delta int) {
	idx := a.vm.Selected + delta
	if idx < 0 || idx >= len(a.vm.Conversations) {
		return
	}
	a.selectConversation(idx)
}

// openSelected loads the highlighted conversation when it is not the one
// already shown.
func (a *App) openSelected() {
	conv, ok := a.vm.SelectedConversation()
	if !ok {
		return
	}
	if conv.ID != a.vm.SelectedID() {
		a.selectConversation(a.vm.Selected)
	}
}

func (a *App) refresh() {
	if err := a.vm.LoadConversations(a.ctx); err != nil {
		a.reportError(err)
		return
	}
	if err := a.vm.ReloadMessages(a.ctx); err != nil {
		a.reportError(err)
		return
	}
	if a.focus == FocusMessages {
		a.scrollToBottom()
	} else {
		a.clampMessageScroll()
	}
	a.vm.Flash.Info("Refreshed")
}

// submit sends the draft to the selected conversation. The draft is only
// cleared after a successful send.
func (a *App) submit() {
	text := a.editor.Submit()
	if strings.TrimSpace(text) == "" {
		a.vm.Flash.Info("Nothing to send")
		return
	}
	conv, ok := a.vm.SelectedConversation()
	if !ok || a.vm.SelectedID() == 0 {
		a.vm.Flash.Err("No conversation selected")
		return
	}

	if err := a.send(conv.Identifier, text); err != nil {
		a.logger.Warn("send failed",
			zap.Int64("chat_id", conv.ID),
			zap.String("recipient", conv.Identifier),
			zap.Error(err),
		)
		a.vm.Flash.Err("Failed to send: " + err.Error())
		a.moveFocus(FocusMessages)
		return
	}

	a.logger.Info("message sent", zap.Int64("chat_id", conv.ID), zap.Int("length", len(text)))
	a.editor.PushHistory(text)
	if a.deps.History != nil {
		if err := a.deps.History.AppendHistory(text); err != nil {
			a.logger.Warn("persist input history", zap.Error(err))
		}
	}
	a.editor.Clear()
	a.vm.Flash.Info("Message sent")
	a.moveFocus(FocusMessages)
}

// send calls the dispatcher under the dispatch timeout. A panic in the
// dispatcher is reported as an error.
func (a *App) send(recipient, text string) (err error) {
	if a.deps.Sender == nil {
		return errors.New("no sender configured")
	}
	ctx, cancel := context.WithTimeout(a.ctx, a.opts.DispatchTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panic: %v", r)
		}
	}()
	return a.deps.Sender.Send(ctx, recipient, text)
}

// apply folds watcher updates into the view state.
func (a *App) apply(events []bus.Event) {
	for _, evt := range events {
		switch evt.Kind {
		case bus.KindConversations:
			if convs, ok := evt.Payload.([]store.Conversation); ok {
				a.vm.SetConversations(convs)
			}
		case bus.KindNewMessages:
			if msgs, ok := evt.Payload.([]store.Message); ok {
				a.appendMessages(msgs)
			}
		case bus.KindError:
			if err, ok := evt.Payload.(error); ok {
				a.reportError(err)
			}
		default:
			a.logger.Debug("unknown update", zap.String("kind", evt.Kind))
			continue
		}
		a.dirty = true
	}
}

// appendMessages adds new messages to the open thread. The pane follows
// the newest line only if it was already at the bottom.
func (a *App) appendMessages(msgs []store.Message) {
	if len(msgs) == 0 {
		return
	}
	wasAtBottom := a.msgScroll >= a.maxMessageScroll()
	if a.vm.AppendNew(msgs) > 0 {
		if wasAtBottom {
			a.scrollToBottom()
		} else {
			a.clampMessageScroll()
		}
	}
	if last := msgs[len(msgs)-1]; !last.IsFromMe {
		a.vm.Flash.Info("New message from " + last.Sender)
	}
}

func (a *App) reportError(err error) {
	a.logger.Warn("ui error", zap.Error(err))
	a.vm.Flash.Err(err.Error())
	a.dirty = true
}

func (a *App) toggleHelp() {
	a.help = !a.help
}

func (a *App) currentLayout() layout {
	w, h := 80, 24
	if a.screen != nil {
		w, h = a.screen.Size()
	}
	return computeLayout(w, h, len(a.editor.Lines()))
}

// Message pane scrolling. Offsets are in wrapped lines.

func (a *App) maxMessageScroll() int {
	lay := a.currentLayout()
	width, height := lay.messageArea()
	return max(len(a.messageLines(width))-height, 0)
}

func (a *App) scrollToBottom() {
	a.msgScroll = a.maxMessageScroll()
}

func (a *App) clampMessageScroll() {
	a.msgScroll = min(max(a.msgScroll, 0), a.maxMessageScroll())
}

func (a *App) scrollBy(delta int) {
	a.msgScroll += delta
	a.clampMessageScroll()
}
