package ui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Task is a blocking operation shown behind a spinner.
type Task func(ctx context.Context) error

// Model represents the spinner state while a [Task] runs.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	title   string
	task    Task
	spinner spinner.Model
	help    help.Model
	keys    keyMap
	done    bool
	err     error

	once    sync.Once // guards the single run of task
	ran     bool
	taskErr error
}

// NewModel creates a spinner model that runs task with a context derived from ctx.
func NewModel(ctx context.Context, title string, task Task) *Model {
	ctx, cancel := context.WithCancel(ctx)
	s := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.title))
	return &Model{
		ctx:     ctx,
		cancel:  cancel,
		title:   title,
		task:    task,
		spinner: s,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the spinner and the task.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runTask())
}

func (m *Model) runTask() tea.Cmd {
	return func() tea.Msg {
		m.once.Do(func() {
			m.ran = true
			m.taskErr = m.task(m.ctx)
		})
		return taskDoneMsg(m.taskErr)
	}
}

// wait cancels the task and blocks until it has returned.
//
// A task that has not started yet is never started.
func (m *Model) wait() (bool, error) {
	m.cancel()
	m.once.Do(func() {})
	return m.ran, m.taskErr
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			m.cancel()
			m.done = true
			m.err = context.Canceled
			return m, tea.Quit
		}
		return m, nil

	case Msg:
		if msg.Kind() == MsgTaskDone {
			m.cancel()
			m.done = true
			m.err = msg.Err()
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the spinner line, or nothing once the task has finished.
func (m *Model) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s\n%s\n", m.spinner.View(), m.title, m.help.View(m.keys))
}

// Err returns the task's error once it has finished.
func (m *Model) Err() error {
	return m.err
}

// Run shows a spinner on out while task runs and returns the task's error.
//
// Canceling with q or ctrl+c cancels the task's context and waits for it to return.
// [context.Canceled] is returned only when the task never started.
func Run(ctx context.Context, out io.Writer, title string, task Task) error {
	m := NewModel(ctx, title, task)
	p := tea.NewProgram(m, tea.WithOutput(out), tea.WithContext(ctx))
	_, runErr := p.Run()
	ran, taskErr := m.wait()
	if runErr != nil {
		return fmt.Errorf("spinner failed: %w", runErr)
	}
	if ran {
		return taskErr
	}
	return m.Err()
}
