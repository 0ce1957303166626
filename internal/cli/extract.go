package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	extractInfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	extractDoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	extractErrStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var errCancelled = errors.New("cancelled")

// cancelGrace bounds how long a cancelled task gets to clean up
const cancelGrace = 5 * time.Second

// taskState holds the outcome of a background task
type taskState struct {
	mu       sync.RWMutex
	done     bool
	err      error
	finished chan struct{}
}

func newTaskState() *taskState {
	return &taskState{finished: make(chan struct{})}
}

func (s *taskState) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	s.err = err
	close(s.finished)
}

// wait blocks until the task finishes or timeout passes
func (s *taskState) wait(timeout time.Duration) bool {
	select {
	case <-s.finished:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (s *taskState) get() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done, s.err
}

type taskTickMsg time.Time

type taskModel struct {
	spinner spinner.Model
	action  string
	url     string
	state   *taskState
	quit    bool
}

func newTaskModel(action, url string, state *taskState) taskModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return taskModel{
		spinner: s,
		action:  action,
		url:     url,
		state:   state,
	}
}

func taskTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return taskTickMsg(t)
	})
}

func (m taskModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, taskTickCmd())
}

func (m taskModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quit = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case taskTickMsg:
		if done, _ := m.state.get(); done {
			return m, tea.Quit
		}
		return m, taskTickCmd()
	}

	return m, nil
}

func (m taskModel) View() string {
	done, err := m.state.get()

	if err != nil {
		return fmt.Sprintf("\n  %s %s failed: %v\n\n", extractErrStyle.Render("✗"), m.action, err)
	}
	if done {
		return fmt.Sprintf("\n  %s %s done\n\n", extractDoneStyle.Render("✓"), m.action)
	}
	if m.quit {
		return ""
	}

	return fmt.Sprintf("\n  %s %s: %s\n\n",
		m.spinner.View(),
		m.action,
		extractInfoStyle.Render(m.url),
	)
}

// runWithSpinner runs fn in the background while a spinner is shown.
// Quitting the spinner cancels fn. The spinner is skipped when stdout is
// not a terminal.
func runWithSpinner[T any](ctx context.Context, action, url string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var result T
	state := newTaskState()
	go func() {
		var err error
		result, err = fn(ctx)
		state.finish(err)
	}()

	_, runErr := tea.NewProgram(newTaskModel(action, url, state), tea.WithContext(ctx)).Run()

	done, err := state.get()
	if !done {
		// fn owns a job workspace; let its cleanup run before we return
		cancel()
		state.wait(cancelGrace)
		if runErr != nil {
			return zero, runErr
		}
		return zero, errCancelled
	}
	if runErr != nil {
		return zero, runErr
	}
	if err != nil {
		return zero, err
	}
	return result, nil
}
