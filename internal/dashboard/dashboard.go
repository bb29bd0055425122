// Package dashboard renders the live analytics view in the terminal.
// It pulls snapshots from the ingestion worker on a fixed refresh tick
// and additionally wakes early whenever the worker signals new data.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"buzzline/internal/logging"
	"buzzline/internal/notify"
	"buzzline/internal/rolling"
	"buzzline/internal/worker"
)

// DefaultRefreshInterval is the steady redraw period.
const DefaultRefreshInterval = 2 * time.Second

// Stats is the slice of the worker the dashboard reads from.
type Stats interface {
	Snapshot() rolling.Snapshot
	Health() []worker.SourceHealth
	Updated() *notify.Signal
}

// Config holds the dashboard settings.
type Config struct {
	Stats Stats

	// RefreshInterval is the redraw period. Zero means DefaultRefreshInterval.
	RefreshInterval time.Duration

	Logger *slog.Logger
}

type tickMsg time.Time

// dataMsg means the worker stored new records since the last redraw.
type dataMsg struct{}

// Model is the bubbletea model for the analytics view.
type Model struct {
	stats    Stats
	interval time.Duration

	snap   rolling.Snapshot
	health []worker.SourceHealth

	width, height int
	quitting      bool
}

// NewModel creates the dashboard model.
func NewModel(cfg Config) Model {
	interval := cfg.RefreshInterval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	m := Model{stats: cfg.Stats, interval: interval}
	m.refresh()
	return m
}

func (m *Model) refresh() {
	m.snap = m.stats.Snapshot()
	m.health = m.stats.Health()
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.waitForData())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForData blocks on the worker's update signal so a burst of new
// records redraws the view without waiting out the tick.
func (m Model) waitForData() tea.Cmd {
	ch := m.stats.Updated().C()
	return func() tea.Msg {
		<-ch
		return dataMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tickMsg:
		m.refresh()
		return m, m.tick()
	case dataMsg:
		m.refresh()
		return m, m.waitForData()
	}
	return m, nil
}

// Run drives the dashboard until the user quits or ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	logger := logging.Default(cfg.Logger).With("component", "dashboard")

	p := tea.NewProgram(NewModel(cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	logger.Info("dashboard started")
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		// Normal shutdown path when the consume command is interrupted.
		err = nil
	}
	logger.Info("dashboard stopped")
	return err
}
