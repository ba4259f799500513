// Package mvu contains the terminal UI models for long-running spawn
// operations.
package mvu

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SpinnerModel shows a spinner while an image build runs in the
// background. Quitting the view does not cancel the build request;
// exiting the process does.
type SpinnerModel struct {
	spinner  spinner.Model
	message  string
	build    func() (string, error)
	quitting bool
	err      error

	Tag  string
	Done bool
}

type buildFinishedMsg struct {
	tag string
	err error
}

// NewSpinnerModel returns a new SpinnerModel
func NewSpinnerModel(message string, build func() (string, error)) SpinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#54baff"))

	return SpinnerModel{
		spinner: s,
		message: message,
		build:   build,
	}
}

func (m SpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runBuild())
}

// runBuild returns a command that runs the build and reports back with
// a buildFinishedMsg.
func (m SpinnerModel) runBuild() tea.Cmd {
	return func() tea.Msg {
		tag, err := m.build()
		return buildFinishedMsg{tag: tag, err: err}
	}
}

// Update handles the messages sent to the model
func (m SpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		default:
			return m, nil
		}
	case buildFinishedMsg:
		m.Tag = msg.tag
		m.err = msg.err
		m.Done = msg.err == nil
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

// View returns the view for the model
func (m SpinnerModel) View() string {
	if m.quitting || m.Done || m.err != nil {
		return ""
	}
	return fmt.Sprintf("\n  %s %s\n", m.spinner.View(), m.message)
}

// RunBuildTUI runs build behind a spinner and returns the built tag.
// Build errors come back verbatim so callers can inspect their type.
func RunBuildTUI(message string, build func() (string, error)) (string, error) {
	m := NewSpinnerModel(message, build)

	p := tea.NewProgram(m)
	modelInterface, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("error running TUI program: %w", err)
	}

	finalModel, ok := modelInterface.(SpinnerModel)
	if !ok {
		return "", fmt.Errorf("could not type assert tea model to concrete type")
	}

	if finalModel.err != nil {
		return "", finalModel.err
	}
	if !finalModel.Done {
		return "", fmt.Errorf("build interrupted before completion")
	}
	return finalModel.Tag, nil
}
