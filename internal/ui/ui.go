package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
)

const (
	DefaultInterval = 5 * time.Second
	MinInterval     = time.Second

	unknownTitle = "Unknown track"
	maxBarWidth  = 60
)

// Options configures a watch [Model].
type Options struct {
	Interval time.Duration          // Interval between upstream polls, at least [MinInterval]
	Open     func(url string) error // Open launches a song URL, defaults to [shared.OpenBrowser]
	Now      func() time.Time       // Now is the clock used for local progress, defaults to [time.Now]
}

// Model is the watch view state.
type Model struct {
	ctx       context.Context
	service   services.Service
	interval  time.Duration
	open      func(string) error
	now       func() time.Time
	snapshot  models.Snapshot
	fetchedAt time.Time
	lastFetch time.Time
	fetching  bool
	loaded    bool
	err       error
	status    string
	history   list.Model
	progress  progress.Model
	help      help.Model
	keys      keyMap
	width     int
	height    int
}

// NewModel creates a watch view that polls service.
func NewModel(ctx context.Context, service services.Service, opts Options) *Model {
	if opts.Interval < MinInterval {
		opts.Interval = DefaultInterval
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	history := list.New(nil, list.NewDefaultDelegate(), 40, 10)
	history.Title = "Recently seen"
	history.SetShowHelp(false)
	history.SetShowStatusBar(false)
	history.SetFilteringEnabled(false)

	return &Model{
		ctx:      ctx,
		service:  service,
		interval: opts.Interval,
		open:     opts.Open,
		now:      opts.Now,
		history:  history,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Run starts the watch view and blocks until the user quits or ctx is canceled.
func Run(ctx context.Context, service services.Service, opts Options) error {
	m := NewModel(ctx, service, opts)
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("watch view failed: %w", err)
	}
	return nil
}

// Init fetches the first snapshot and starts the clock.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-4, 10), maxBarWidth)
		m.history.SetSize(max(msg.Width-4, 20), max(msg.Height-14, 3))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

// View renders the current snapshot, the session history and key help.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Now Playing"))
	b.WriteString("\n")

	switch {
	case !m.loaded && m.err != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	case !m.loaded:
		b.WriteString(styles.muted.Render("Loading..."))
		b.WriteString("\n")
	default:
		b.WriteString(m.renderSnapshot())
		if m.err != nil {
			b.WriteString(styles.warn.Render(fmt.Sprintf("Last refresh failed: %v", m.err)))
			b.WriteString("\n")
		}
	}

	if m.status != "" {
		b.WriteString(styles.muted.Render(m.status))
		b.WriteString("\n")
	}

	if len(m.history.Items()) > 0 {
		b.WriteString("\n")
		b.WriteString(m.history.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		if m.fetching {
			return m, nil
		}
		return m, m.fetch()
	case key.Matches(msg, m.keys.open):
		if m.snapshot.SongURL == nil {
			m.status = "No song URL to open"
			return m, nil
		}
		return m, m.openSong(*m.snapshot.SongURL)
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSnapshotFetched:
		res := msg.data.(snapshotResult)
		m.fetching = false
		m.lastFetch = res.at
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.err = nil
		m.loaded = true
		m.snapshot = res.snapshot
		m.fetchedAt = res.at
		return m, m.record(res.snapshot, res.at)

	case MsgTick:
		at := msg.data.(time.Time)
		cmds := []tea.Cmd{m.tick()}
		if !m.fetching && at.Sub(m.lastFetch) >= m.interval {
			cmds = append(cmds, m.fetch())
		}
		return m, tea.Batch(cmds...)

	case MsgOpened:
		if err, _ := msg.data.(error); err != nil {
			m.status = fmt.Sprintf("Could not open browser: %v", err)
		} else {
			m.status = ""
		}
		return m, nil
	}
	return m, nil
}

// record prepends s to the history when it is a different track from the latest entry.
func (m *Model) record(s models.Snapshot, at time.Time) tea.Cmd {
	if s.Title == nil {
		return nil
	}
	if items := m.history.Items(); len(items) > 0 {
		if latest, ok := items[0].(historyItem); ok && latest.snapshot.SameTrack(s) {
			return nil
		}
	}
	return m.history.InsertItem(0, historyItem{snapshot: s, seen: at})
}

// elapsed estimates the playback position locally between polls.
func (m *Model) elapsed() int64 {
	s := m.snapshot
	if !s.IsPlaying {
		return s.TimePlayed
	}
	e := s.TimePlayed + m.now().Sub(m.fetchedAt).Milliseconds()
	if s.TimeTotal > 0 && e > s.TimeTotal {
		return s.TimeTotal
	}
	return e
}

// current is the last snapshot with its position advanced to now.
func (m *Model) current() models.Snapshot {
	s := m.snapshot
	s.TimePlayed = m.elapsed()
	return s
}

func (m *Model) renderSnapshot() string {
	s := m.current()
	if !s.IsPlaying && s.Title == nil {
		return styles.muted.Render("Nothing playing") + "\n"
	}

	var b strings.Builder
	b.WriteString(styles.track.Render(s.TitleOr(unknownTitle)))
	if !s.IsPlaying {
		b.WriteString(styles.muted.Render(" (paused)"))
	}
	b.WriteString("\n")
	if s.Artist != "" {
		b.WriteString(s.Artist)
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("%s %s / %s\n",
		m.progress.ViewAs(s.Progress()),
		shared.FormatDuration(s.TimePlayed),
		shared.FormatDuration(s.TimeTotal),
	))
	return b.String()
}

func (m *Model) fetch() tea.Cmd {
	m.fetching = true
	ctx, service, now := m.ctx, m.service, m.now
	return func() tea.Msg {
		s, err := service.NowPlaying(ctx)
		return snapshotFetchedMsg(s, err, now())
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) openSong(url string) tea.Cmd {
	open := m.open
	return func() tea.Msg {
		return openedMsg(open(url))
	}
}
