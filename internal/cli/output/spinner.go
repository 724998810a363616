package output

import (
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Spinner shows a busy indicator on the diagnostic writer while a
// long-running call is in flight. It only animates when both writers are terminals.
type Spinner struct {
	r       *Renderer
	message string

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewSpinner creates a spinner with the given message.
func (r *Renderer) NewSpinner(message string) *Spinner {
	return &Spinner{r: r, message: message}
}

// Start begins animating. It is a no-op when output is not a terminal.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.r.isTTY || !s.r.errTTY || s.program != nil {
		return
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.r.styles.Warning

	s.program = tea.NewProgram(spinnerModel{spinner: sp, message: s.message},
		tea.WithOutput(s.r.errOut),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	s.done = make(chan struct{})
	go func(p *tea.Program, done chan struct{}) {
		defer close(done)
		_, _ = p.Run()
	}(s.program, s.done)
}

// Stop clears the indicator without printing a status line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.program == nil {
		return
	}
	s.program.Send(stopMsg{})
	<-s.done
	s.program = nil
}

// Success stops the spinner and prints a success line.
func (s *Spinner) Success(msg string) {
	s.Stop()
	_, _ = s.r.errOut.Write([]byte(s.r.styles.Success.Render(IconSuccess+" "+msg) + "\n"))
}

// Fail stops the spinner and prints a failure line.
func (s *Spinner) Fail(msg string) {
	s.Stop()
	_, _ = s.r.errOut.Write([]byte(s.r.styles.Error.Render(IconError+" "+msg) + "\n"))
}

type stopMsg struct{}

type spinnerModel struct {
	spinner  spinner.Model
	message  string
	quitting bool
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stopMsg:
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.quitting {
		return ""
	}
	return m.spinner.View() + " " + m.message
}
