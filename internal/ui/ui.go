package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/shared"
	"github.com/madc0w/playlister/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PromptView ViewState = iota
	GeneratingView
	TrackListView
	TitleView
	ConfirmView
	CreatingView
	ResultView
)

const maxLogLines = 6

// Generator produces a track list from keywords.
type Generator interface {
	Generate(ctx context.Context, keywords, genre string) ([]models.TrackRequest, error)
}

// Materializer turns a track list into a YouTube playlist.
type Materializer interface {
	Materialize(ctx context.Context, session *models.Session, req tasks.MaterializeRequest) (*models.PlaylistResult, error)
}

// Options wires the TUI's collaborators. Session may be nil; creating a playlist then fails with a sign-in hint.
type Options struct {
	Generator    Generator
	Materializer Materializer
	Session      *models.Session
	Genre        string
	Logger       *log.Logger
}

// Model is the bubbletea model for the generate → review → create workflow.
type Model struct {
	ctx          context.Context
	generator    Generator
	materializer Materializer
	session      *models.Session
	logger       *log.Logger

	view    ViewState
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	keywords textinput.Model
	genre    textinput.Model
	title    textinput.Model
	tracks   list.Model

	progressChan chan tasks.ProgressUpdate
	doneChan     chan Msg
	progress     tasks.ProgressUpdate
	log          []string

	result *models.PlaylistResult
	err    error
	width  int
	height int
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	keywords := textinput.New()
	keywords.Placeholder = "rainy sunday jazz, late night drive..."
	keywords.Prompt = "Keywords: "
	keywords.CharLimit = 200
	keywords.Focus()

	genre := textinput.New()
	genre.Placeholder = "any"
	genre.Prompt = "Genre:    "
	genre.CharLimit = 50
	genre.SetValue(opts.Genre)

	title := textinput.New()
	title.Prompt = "Title: "
	title.CharLimit = 150

	tracks := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	tracks.SetFilteringEnabled(false)
	tracks.SetShowHelp(false)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.warn))

	return &Model{
		ctx:          ctx,
		generator:    opts.Generator,
		materializer: opts.Materializer,
		session:      opts.Session,
		logger:       logger,
		view:         PromptView,
		keys:         newKeyMap(),
		help:         help.New(),
		spinner:      sp,
		keywords:     keywords,
		genre:        genre,
		title:        title,
		tracks:       tracks,
	}
}

// Init starts the cursor blinking in the keywords field.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tracks.SetSize(msg.Width-4, max(msg.Height-6, 5))
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.abort) {
			return m, tea.Quit
		}
		switch m.view {
		case PromptView:
			return m.handlePromptKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case TitleView:
			return m.handleTitleKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil
	}

	return m.updateInputs(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTracksGenerated:
		data := msg.data.(tracksGenerated)
		if data.err != nil {
			m.logger.Error("generation failed", "error", data.err)
			m.err = data.err
			m.view = PromptView
			return m, m.keywords.Focus()
		}
		m.err = nil
		m.tracks.SetItems(trackItems(data.tracks))
		m.tracks.Title = fmt.Sprintf("%d tracks for %q", len(data.tracks), m.keywords.Value())
		m.tracks.Select(0)
		m.view = TrackListView
		return m, nil

	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.progress = update
		if update.Message != "" {
			m.log = append(m.log, update.Message)
			if len(m.log) > maxLogLines {
				m.log = m.log[len(m.log)-maxLogLines:]
			}
		}
		return m, m.waitForProgress()

	case MsgPlaylistCreated:
		data := msg.data.(playlistCreated)
		m.result = data.result
		m.err = data.err
		m.progressChan = nil
		m.doneChan = nil
		m.view = ResultView
		if data.err != nil {
			m.logger.Error("playlist creation failed", "error", data.err)
		} else {
			m.logger.Info("playlist created", "id", data.result.PlaylistID, "added", data.result.Stats.Added)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.tab):
		return m, m.toggleFocus()
	case key.Matches(msg, m.keys.enter):
		if strings.TrimSpace(m.keywords.Value()) == "" {
			m.err = fmt.Errorf("%w: keywords are required", shared.ErrMissingArgument)
			return m, nil
		}
		if m.generator == nil {
			m.err = fmt.Errorf("%w: OpenAI API key is not configured", shared.ErrServiceUnavailable)
			return m, nil
		}
		m.err = nil
		m.view = GeneratingView
		m.keywords.Blur()
		m.genre.Blur()
		return m, tea.Batch(m.spinner.Tick, m.generate(m.keywords.Value(), m.genre.Value()))
	}
	return m.updateInputs(msg)
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PromptView
		return m, m.keywords.Focus()
	case key.Matches(msg, m.keys.remove):
		if len(m.tracks.Items()) > 0 {
			m.tracks.RemoveItem(m.tracks.Index())
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if len(m.tracks.Items()) == 0 {
			return m, nil
		}
		if m.title.Value() == "" {
			m.title.SetValue(defaultTitle(m.keywords.Value()))
		}
		m.view = TitleView
		return m, m.title.Focus()
	}

	var cmd tea.Cmd
	m.tracks, cmd = m.tracks.Update(msg)
	return m, cmd
}

func (m *Model) handleTitleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.title.Blur()
		m.view = TrackListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if strings.TrimSpace(m.title.Value()) == "" {
			return m, nil
		}
		m.title.Blur()
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.title, cmd = m.title.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = TrackListView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = CreatingView
		m.log = nil
		m.progress = tasks.ProgressUpdate{}
		return m, tea.Batch(m.spinner.Tick, m.startCreate())
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		if m.err != nil {
			m.err = nil
			m.view = TrackListView
		}
		return m, nil
	case key.Matches(msg, m.keys.restart):
		m.reset()
		return m, m.keywords.Focus()
	}
	return m, nil
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch m.view {
	case PromptView:
		m.keywords, cmd = m.keywords.Update(msg)
		cmds = append(cmds, cmd)
		m.genre, cmd = m.genre.Update(msg)
		cmds = append(cmds, cmd)
	case TitleView:
		m.title, cmd = m.title.Update(msg)
		cmds = append(cmds, cmd)
	case TrackListView:
		m.tracks, cmd = m.tracks.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.keywords.Focused() {
		m.keywords.Blur()
		return m.genre.Focus()
	}
	m.genre.Blur()
	return m.keywords.Focus()
}

func (m *Model) reset() {
	m.view = PromptView
	m.result = nil
	m.err = nil
	m.log = nil
	m.keywords.SetValue("")
	m.title.SetValue("")
	m.tracks.SetItems(nil)
	m.genre.Blur()
}

func (m *Model) busy() bool {
	return m.view == GeneratingView || m.view == CreatingView
}

func (m *Model) generate(keywords, genre string) tea.Cmd {
	ctx, generator := m.ctx, m.generator
	return func() tea.Msg {
		tracks, err := generator.Generate(ctx, keywords, genre)
		return tracksGeneratedMsg(tracks, err)
	}
}

// startCreate runs the materializer in the background; progress and the final result arrive on separate channels.
func (m *Model) startCreate() tea.Cmd {
	if m.materializer == nil {
		return func() tea.Msg {
			return playlistCreatedMsg(nil, fmt.Errorf("%w: YouTube is not configured", shared.ErrServiceUnavailable))
		}
	}
	if !m.session.Authenticated() {
		return func() tea.Msg {
			return playlistCreatedMsg(nil, fmt.Errorf("%w: run 'playlister auth login' first", shared.ErrUnauthorized))
		}
	}

	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.doneChan = make(chan Msg, 1)

	req := tasks.MaterializeRequest{
		Title:    strings.TrimSpace(m.title.Value()),
		Tracks:   tracksFrom(m.tracks),
		Progress: m.progressChan,
	}
	ctx, materializer, session, done := m.ctx, m.materializer, m.session, m.doneChan

	go func() {
		result, err := materializer.Materialize(ctx, session, req)
		done <- playlistCreatedMsg(result, err)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	if done == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case update := <-progress:
			return progressUpdateMsg(update)
		case msg := <-done:
			return msg
		}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PromptView:
		return m.renderPrompt()
	case GeneratingView:
		return fmt.Sprintf("%s\n\n%s Asking for tracks that match %q...", styles.title.Render("Playlister"), m.spinner.View(), m.keywords.Value())
	case TrackListView:
		return m.renderTrackList()
	case TitleView:
		return m.renderTitle()
	case ConfirmView:
		return m.renderConfirm()
	case CreatingView:
		return m.renderCreating()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderPrompt() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Playlister"))
	b.WriteString("\n")
	b.WriteString(m.keywords.View())
	b.WriteString("\n")
	b.WriteString(m.genre.View())
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}
	generateKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "generate"))
	b.WriteString(m.help.ShortHelpView([]key.Binding{generateKey, m.keys.tab, m.keys.abort}))
	return b.String()
}

func (m *Model) renderTrackList() string {
	createKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "create playlist"))
	helpKeys := []key.Binding{createKey, m.keys.remove, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.tracks.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderTitle() string {
	title := styles.title.Render("Name your playlist")
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.abort}
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.title.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Create '%s' on YouTube?", m.title.Value()))
	info := fmt.Sprintf("Tracks: %d\n", len(m.tracks.Items()))
	if m.session.Authenticated() {
		info += fmt.Sprintf("Account: %s\n", m.session.User.Email)
	} else {
		info += styles.warn.Render("Not signed in") + "\n"
	}
	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.abort}
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderCreating() string {
	title := styles.title.Render("Creating Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.RefreshToken:
		phase = "Checking Google credentials..."
	case tasks.CreatePlaylist:
		phase = "Creating playlist on YouTube..."
	case tasks.ResolveTracks:
		phase = fmt.Sprintf("Searching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.InsertTracks:
		phase = fmt.Sprintf("Adding tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Complete:
		phase = "Finishing up..."
	default:
		phase = "Starting..."
	}

	lines := make([]string, len(m.log))
	for i, l := range m.log {
		lines[i] = styles.help.Render(l)
	}
	return fmt.Sprintf("%s\n%s %s\n\n%s", title, m.spinner.View(), phase, strings.Join(lines, "\n"))
}

func (m *Model) renderResult() string {
	retryKeys := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.restart, m.keys.quit})
	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Playlist creation failed: %v", m.err)), retryKeys)
	}
	if m.result == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), retryKeys)
	}

	r := m.result
	var b strings.Builder
	b.WriteString(styles.ok.Render("✓ Playlist Created!"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %s\n", styles.label.Render("Title:"), r.Title)
	fmt.Fprintf(&b, "%s %s\n", styles.label.Render("URL:  "), r.PlaylistURL)
	fmt.Fprintf(&b, "%s %d/%d tracks\n", styles.label.Render("Added:"), r.Stats.Added, r.Stats.Total)
	if r.Quota != nil {
		fmt.Fprintf(&b, "%s %d units\n", styles.label.Render("Quota:"), r.Quota.TotalCost)
	}

	if len(r.Failed) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render(fmt.Sprintf("Failed (%d):", len(r.Failed))))
		b.WriteString("\n")
		limit := min(len(r.Failed), 10)
		for _, f := range r.Failed[:limit] {
			fmt.Fprintf(&b, "  ✗ %s [%s]\n", f.String(), f.Reason)
		}
		if len(r.Failed) > limit {
			fmt.Fprintf(&b, "  ... and %d more\n", len(r.Failed)-limit)
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	return fmt.Sprintf("%s\n%s", styles.frame.Render(strings.TrimRight(b.String(), "\n")), m.help.ShortHelpView(helpKeys))
}

// defaultTitle turns keywords into a playlist title ("rainy jazz" → "Rainy Jazz").
func defaultTitle(keywords string) string {
	words := strings.Fields(keywords)
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}
