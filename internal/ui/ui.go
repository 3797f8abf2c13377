package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/shared"
	"github.com/desertthunder/blendify/internal/tasks"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	updateBuffer  = 16
)

// Watcher is the polling loop the model drives. [tasks.Watcher] satisfies it.
type Watcher interface {
	Watch(ctx context.Context, id string, updates chan<- tasks.WatchUpdate) (*models.Session, error)
}

// Opts configures a [Model].
type Opts struct {
	SessionID string
	PageURL   string             // Blend page opened with the open key; the key is hidden when empty
	Open      func(string) error // Defaults to [shared.OpenBrowser]
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	cancel    context.CancelFunc
	watcher   Watcher
	sessionID string
	pageURL   string
	open      func(string) error

	updates chan tasks.WatchUpdate
	results chan watchResult

	update    tasks.WatchUpdate
	session   *models.Session
	err       error
	done      bool
	notice    string
	trackList list.Model
	spinner   spinner.Model
	help      help.Model
	keys      keyMap
	width     int
	height    int
}

// NewModel creates a TUI model that watches opts.SessionID. Quitting cancels the watch.
func NewModel(ctx context.Context, watcher Watcher, opts Opts) *Model {
	ctx, cancel := context.WithCancel(ctx)

	open := opts.Open
	if open == nil {
		open = shared.OpenBrowser
	}

	return &Model{
		ctx:       ctx,
		cancel:    cancel,
		watcher:   watcher,
		sessionID: opts.SessionID,
		pageURL:   opts.PageURL,
		open:      open,
		update:    tasks.WatchUpdate{State: tasks.Loading},
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.spinner)),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init starts the spinner and the watch.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startWatch())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.session != nil {
			m.trackList.SetSize(m.listSize())
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.open) && m.pageURL != "":
			return m, m.openPage()
		}

		if m.session != nil {
			var cmd tea.Cmd
			m.trackList, cmd = m.trackList.Update(msg)
			return m, cmd
		}
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgWatchUpdate:
		m.update = msg.data.(tasks.WatchUpdate)
		return m, m.waitForUpdate()

	case MsgWatchDone:
		result := msg.data.(watchResult)
		m.done = true
		m.session = result.session
		m.err = result.err
		if m.session != nil {
			w, h := m.listSize()
			m.trackList = list.New(trackItems(m.session), list.NewDefaultDelegate(), w, h)
			m.trackList.Title = fmt.Sprintf("Blend %s", m.session.ID)
			m.trackList.SetFilteringEnabled(false)
			m.trackList.SetShowHelp(false)
		}
		return m, nil

	case MsgBrowserOpened:
		if err, ok := msg.data.(error); ok && err != nil {
			m.notice = styles.warn.Render(fmt.Sprintf("Could not open browser: %v", err))
		} else {
			m.notice = styles.help.Render("Opened " + m.pageURL)
		}
		return m, nil
	}
	return m, nil
}

// Result returns the watched session or the reason the watch ended. Before completion it reports [context.Canceled].
func (m *Model) Result() (*models.Session, error) {
	if !m.done {
		return nil, context.Canceled
	}
	return m.session, m.err
}

// View renders the UI based on the current watch state.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Blendify · " + m.sessionID))
	b.WriteString("\n")

	switch {
	case !m.done:
		fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), m.statusMessage())
		if m.update.Attempt > 0 {
			b.WriteString(styles.help.Render(fmt.Sprintf("attempt %d of %d", m.update.Attempt, m.update.MaxAttempts)))
			b.WriteString("\n")
		}
	case m.err != nil:
		b.WriteString(styles.err.Render("✗ " + errorMessage(m.err)))
		b.WriteString("\n")
	default:
		fmt.Fprintf(&b, "%s\n\n", styles.ok.Render(fmt.Sprintf("✓ Blend ready: %d tracks (%d + %d)",
			len(m.session.Merged()), len(m.session.User1Tracks), len(m.session.User2Tracks))))
		b.WriteString(m.trackList.View())
		b.WriteString("\n")
	}

	if m.notice != "" {
		fmt.Fprintf(&b, "\n%s\n", m.notice)
	}

	fmt.Fprintf(&b, "\n%s", m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

func (m *Model) statusMessage() string {
	if m.update.Message != "" {
		return m.update.Message
	}
	return fmt.Sprintf("Loading blend %s...", m.sessionID)
}

func (m *Model) helpKeys() []key.Binding {
	var keys []key.Binding
	if m.session != nil {
		keys = append(keys, m.keys.up, m.keys.down)
	}
	if m.pageURL != "" {
		keys = append(keys, m.keys.open)
	}
	return append(keys, m.keys.quit)
}

func (m *Model) listSize() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w - 4, h - 8
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, shared.ErrSessionNotFound):
		return "Session not found"
	case errors.Is(err, shared.ErrWatchExhausted):
		return "Gave up waiting for the second participant"
	case errors.Is(err, context.Canceled):
		return "Watch cancelled"
	default:
		return err.Error()
	}
}

// startWatch runs the watcher in the background. Updates are relayed through a buffered channel
// that is closed after the final result is queued.
func (m *Model) startWatch() tea.Cmd {
	m.updates = make(chan tasks.WatchUpdate, updateBuffer)
	m.results = make(chan watchResult, 1)

	updates, results := m.updates, m.results
	go func() {
		session, err := m.watcher.Watch(m.ctx, m.sessionID, updates)
		results <- watchResult{session: session, err: err}
		close(updates)
	}()

	return m.waitForUpdate()
}

func (m *Model) waitForUpdate() tea.Cmd {
	updates, results := m.updates, m.results
	return func() tea.Msg {
		if update, ok := <-updates; ok {
			return watchUpdateMsg(update)
		}
		r := <-results
		return watchDoneMsg(r.session, r.err)
	}
}

func (m *Model) openPage() tea.Cmd {
	open, target := m.open, m.pageURL
	return func() tea.Msg {
		return browserOpenedMsg(open(target))
	}
}
