package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/guiyumin/ytdl/internal/core/downloader"
	"github.com/guiyumin/ytdl/internal/core/ytdl"
)

var (
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	doneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// transferState mirrors the latest progress event for the UI goroutine.
type transferState struct {
	mu         sync.RWMutex
	event      downloader.ProgressEvent
	converting bool
	done       bool
	err        error
	finalPath  string
	startTime  time.Time
	endTime    time.Time
}

func (s *transferState) observe(ev downloader.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.event = ev
	switch ev.Phase {
	case downloader.PhaseConverting:
		s.converting = ev.Status != downloader.StatusFinished
	}
}

func (s *transferState) finish(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalPath = path
	s.err = err
	s.done = true
	s.endTime = time.Now()
}

func (s *transferState) snapshot() (downloader.ProgressEvent, bool, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.event, s.converting, s.done, s.err
}

func (s *transferState) elapsed() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.endTime.IsZero() {
		return time.Since(s.startTime)
	}
	return s.endTime.Sub(s.startTime)
}

// tickMsg triggers UI updates
type tickMsg time.Time

type transferModel struct {
	progress progress.Model
	spinner  spinner.Model
	label    string
	cancel   context.CancelFunc
	state    *transferState
}

func newTransferModel(label string, cancel context.CancelFunc, state *transferState) transferModel {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
	)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return transferModel{
		progress: p,
		spinner:  s,
		label:    label,
		cancel:   cancel,
		state:    state,
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m transferModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tickCmd(),
	)
}

func (m transferModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancel()
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case tickMsg:
		ev, _, done, err := m.state.snapshot()
		if err != nil || done {
			return m, tea.Quit
		}

		cmds := []tea.Cmd{tickCmd()}
		if ev.Total > 0 {
			cmds = append(cmds, m.progress.SetPercent(ev.Percent/100))
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m transferModel) View() string {
	ev, converting, done, err := m.state.snapshot()

	if err != nil {
		return fmt.Sprintf("\n  %s download failed: %v\n\n", errStyle.Render("✗"), err)
	}

	if done {
		displayPath := m.state.finalPath
		if absPath, pathErr := filepath.Abs(displayPath); pathErr == nil {
			displayPath = absPath
		}
		return fmt.Sprintf("\n  %s done\n  saved: %s (%s)\n  elapsed: %s\n\n",
			doneStyle.Render("✓"),
			displayPath,
			downloader.FormatBytes(ev.Bytes),
			downloader.FormatDuration(m.state.elapsed()),
		)
	}

	verb := "downloading"
	if converting {
		verb = "converting"
	}

	s := fmt.Sprintf("\n  %s %s: %s\n\n", m.spinner.View(), verb, infoStyle.Render(m.label))
	s += fmt.Sprintf("  %s\n\n", m.progress.View())

	if ev.Total > 0 {
		s += fmt.Sprintf("  %.1f%%  |  %s/%s  |  %s/s  |  ETA %s\n",
			ev.Percent,
			downloader.FormatBytes(ev.Bytes),
			downloader.FormatBytes(ev.Total),
			downloader.FormatBytes(int64(ev.Speed)),
			downloader.FormatDuration(ev.ETA),
		)
	} else {
		s += fmt.Sprintf("  %s  |  %s/s\n",
			downloader.FormatBytes(ev.Bytes),
			downloader.FormatBytes(int64(ev.Speed)),
		)
	}

	s += "\n"
	s += helpStyle.Render("  Press q to cancel")
	s += "\n"

	return s
}

// runDownloadTUI drives fn under a progress display fed by the client's
// event stream. Returns the final path fn produced.
func runDownloadTUI(client *ytdl.Client, label string, fn func(context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	state := &transferState{startTime: time.Now()}
	client.Progress().Subscribe(state.observe)

	settled := make(chan struct{})
	go func() {
		defer close(settled)
		path, err := fn(ctx)
		state.finish(path, err)
	}()

	model := newTransferModel(label, cancel, state)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return "", err
	}

	// q aborts the UI before the transfer notices the cancel; wait for it
	cancel()
	<-settled

	_, _, _, downloadErr := state.snapshot()
	if downloadErr != nil {
		return "", downloadErr
	}
	state.mu.RLock()
	defer state.mu.RUnlock()
	return state.finalPath, nil
}
