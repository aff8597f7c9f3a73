// Package tui provides a Bubble Tea terminal user interface for the QQ Music
// downloader.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tooplick/qqmusic-web/internal/app"
	"github.com/tooplick/qqmusic-web/internal/download"
	"github.com/tooplick/qqmusic-web/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#31C27C")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#31C27C")).
			Padding(1, 2)

	trackStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateInitializing
	StateDownloading
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	app       *app.App
	logs      []LogEntry
	tracks    []*model.Track
	results   []download.BatchResult
	err       error

	// Download context
	ctx    context.Context
	cancel context.CancelFunc

	// Download manager reference
	manager *download.Manager
	events  chan download.ProgressEvent

	// Download progress
	totalFiles      int32
	downloadedFiles int32
	failedFiles     int32
	receivedBytes   int64

	// Options
	flac     bool
	metadata bool
	playlist bool
	verbose  bool

	width  int
	height int
}

// NewModel creates a new TUI model backed by a.
func NewModel(a *app.App) Model {
	ti := textinput.New()
	ti.Placeholder = "0039MnYb0qxYhV 002WCV372JMZJw"
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#31C27C"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		app:       a,
		logs:      make([]LogEntry, 0),
		ctx:       ctx,
		cancel:    cancel,
		flac:      a.Settings.PreferFLAC,
		metadata:  a.Settings.EmbedMetadata,
		playlist:  a.Settings.Playlist.Create,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg is sent when download progress updates.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// InitDoneMsg is sent when the track ids have been looked up.
	InitDoneMsg struct {
		Tracks []*model.Track
		Err    error
	}

	// DownloadDoneMsg is sent when all downloads complete.
	DownloadDoneMsg struct {
		Results []download.BatchResult
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading || m.state == StateInitializing {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && len(model.ParseTrackIDs(m.textInput.Value())) > 0 {
				m.state = StateInitializing
				return m, tea.Batch(m.resolveTracks(), m.spinner.Tick)
			}

		case "ctrl+f":
			if m.state == StateInput {
				m.flac = !m.flac
			}

		case "ctrl+t":
			if m.state == StateInput {
				m.metadata = !m.metadata
			}

		case "ctrl+p":
			if m.state == StateInput {
				m.playlist = !m.playlist
			}

		case "ctrl+v":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for new download
				m.state = StateInput
				m.logs = nil
				m.tracks = nil
				m.results = nil
				m.err = nil
				m.downloadedFiles = 0
				m.failedFiles = 0
				m.totalFiles = 0
				m.receivedBytes = 0
				m.manager = nil
				m.events = nil
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.SetValue("")
				m.textInput.Focus()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		cmds = append(cmds, m.waitForEvent())
		// Filter verbose messages if not in verbose mode
		if msg.Event.Level == download.LevelVerbose && !m.verbose {
			break
		}
		m.logs = append(m.logs, LogEntry{
			Message: msg.Event.Message,
			Level:   msg.Event.Level,
		})
		// Keep only last 10 logs
		if len(m.logs) > 10 {
			m.logs = m.logs[len(m.logs)-10:]
		}

	case InitDoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			break
		}
		m.tracks = msg.Tracks
		m.events = make(chan download.ProgressEvent, 64)
		m.manager = m.app.Downloader(m.forward(m.events))
		m.state = StateDownloading
		cmds = append(cmds, m.startDownload(), m.tickProgress(), m.waitForEvent())

	case DownloadDoneMsg:
		m.results = msg.Results
		m.refreshCounters()
		if m.ctx.Err() != nil {
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		} else {
			m.state = StateComplete
		}

	case TickMsg:
		// Update progress from manager
		if m.manager != nil && m.state == StateDownloading {
			m.refreshCounters()

			// Calculate percentage and animate progress bar
			var percent float64
			if m.totalFiles > 0 {
				percent = float64(m.downloadedFiles+m.failedFiles) / float64(m.totalFiles)
			}
			progressCmd := m.progress.SetPercent(percent)
			cmds = append(cmds, progressCmd, m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) refreshCounters() {
	if m.manager == nil {
		return
	}
	m.receivedBytes, m.downloadedFiles, m.failedFiles, m.totalFiles = m.manager.GetProgress()
}

// forward returns a progress callback that hands events to the UI without
// blocking the download when the UI falls behind.
func (m Model) forward(events chan<- download.ProgressEvent) func(download.ProgressEvent) {
	return func(e download.ProgressEvent) {
		select {
		case events <- e:
		default:
		}
	}
}

func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return ProgressMsg{Event: e}
	}
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("♫ QQ Music Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download tracks from QQ Music"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateInitializing:
		b.WriteString(m.viewInitializing())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter track ids (space or comma separated):"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Prefer FLAC (ctrl+f)\n", checkbox(m.flac)))
	b.WriteString(fmt.Sprintf("  %s Embed lyrics and tags (ctrl+t)\n", checkbox(m.metadata)))
	b.WriteString(fmt.Sprintf("  %s Create playlist (ctrl+p)\n", checkbox(m.playlist)))
	b.WriteString(fmt.Sprintf("  %s Verbose output (ctrl+v)\n", checkbox(m.verbose)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Music dir: %s", m.app.Settings.MusicDir)))
	b.WriteString("\n")
	if status := m.app.Credentials.Status(); status.Message != "" {
		style := successStyle
		if status.Expired {
			style = warningStyle
		}
		b.WriteString(style.Render("Account: " + status.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewInitializing() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Looking up tracks..."))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	if len(m.tracks) > 0 {
		b.WriteString(successStyle.Render(fmt.Sprintf("Downloading %d track(s):", len(m.tracks))))
		b.WriteString("\n")
		for _, t := range m.tracks {
			label := t.DisplayName()
			if t.VIP {
				label += " (VIP)"
			}
			b.WriteString(trackStyle.Render("  ♪ " + label))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	var percent float64
	if m.totalFiles > 0 {
		percent = float64(m.downloadedFiles+m.failedFiles) / float64(m.totalFiles)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Tracks: %d/%d | Failed: %d | Downloaded: %.2f MB",
		m.downloadedFiles,
		m.totalFiles,
		m.failedFiles,
		float64(m.receivedBytes)/1024/1024,
	)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	var lines []string
	for _, r := range m.results {
		if r.Err != nil {
			lines = append(lines, errorStyle.Render("✗ "+r.Track.MID+": "+r.Err.Error()))
			continue
		}
		note := r.Result.QualityName
		if r.Result.Cached {
			note += ", cached"
		}
		lines = append(lines, successStyle.Render(fmt.Sprintf("✓ %s (%s)", r.Result.Filename, note)))
	}

	box := boxStyle.Render(fmt.Sprintf(
		"Download Complete!\n\n"+
			"Tracks: %d\n"+
			"Failed: %d\n"+
			"Size: %.2f MB",
		m.downloadedFiles,
		m.failedFiles,
		float64(m.receivedBytes)/1024/1024,
	))
	b.WriteString(box)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • ctrl+f: flac • ctrl+t: tags • ctrl+p: playlist • ctrl+v: verbose • esc: quit"
	case StateInitializing, StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// resolveTracks looks up the entered ids.
func (m *Model) resolveTracks() tea.Cmd {
	ids := model.ParseTrackIDs(m.textInput.Value())
	ctx := m.ctx
	a := m.app
	return func() tea.Msg {
		tracks := a.ResolveTracks(ctx, ids)
		if err := ctx.Err(); err != nil {
			return InitDoneMsg{Err: err}
		}
		return InitDoneMsg{Tracks: tracks}
	}
}

// startDownload starts the actual download in background.
func (m *Model) startDownload() tea.Cmd {
	manager := m.manager
	ctx := m.ctx
	tracks := m.tracks
	events := m.events
	opts := download.Options{PreferFLAC: m.flac, EmbedMetadata: m.metadata}
	m.app.Settings.Playlist.Create = m.playlist
	return func() tea.Msg {
		results := manager.DownloadTracks(ctx, tracks, opts)
		close(events)
		return DownloadDoneMsg{Results: results}
	}
}

// Run starts the TUI application.
func Run(a *app.App) error {
	p := tea.NewProgram(NewModel(a), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
