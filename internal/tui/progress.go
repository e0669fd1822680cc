package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

type startedMsg struct {
	source, table string
	at            time.Time
}

type initializedMsg struct{}

type chunkMsg struct {
	index int
	total int64
}

type finishedMsg struct{}

// progressModel renders the two persistent status lines and, while the
// import runs, a spinner with running totals.
type progressModel struct {
	spinner spinner.Model

	source, table string
	started       time.Time
	initialized   bool
	chunks        int
	rows          int64
	done          bool

	now func() time.Time
}

func newProgressModel() progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle
	return progressModel{spinner: s, now: time.Now}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		m.source, m.table, m.started = msg.source, msg.table, msg.at
	case initializedMsg:
		m.initialized = true
	case chunkMsg:
		m.chunks = msg.index + 1
		m.rows = msg.total
	case finishedMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	var b strings.Builder
	if m.source != "" {
		fmt.Fprintf(&b, startedFormat+"\n", SourceStyle.Render(m.source))
	}
	if m.initialized {
		b.WriteString(SuccessStyle.Render(SymbolCheck+" "+initializedStatus) + "\n")
	}
	if !m.done && m.source != "" {
		b.WriteString(m.spinner.View() + " " + MutedStyle.Render(m.status()) + "\n")
	}
	return b.String()
}

func (m progressModel) status() string {
	if m.chunks == 0 {
		return "reading first chunk..."
	}
	line := fmt.Sprintf("%s: %d rows in %d chunks", m.table, m.rows, m.chunks)
	if elapsed := m.now().Sub(m.started); elapsed >= time.Second {
		line += fmt.Sprintf(" (%.0f rows/s)", float64(m.rows)/elapsed.Seconds())
	}
	return line
}

// ProgressView is a ProgressObserver that animates a bubbletea program on
// out. Close must be called on every path; Finished does so itself.
type ProgressView struct {
	program *tea.Program
	done    chan struct{}
	once    sync.Once
	err     error
}

// NewProgressView starts rendering immediately. Signals and keys are left
// alone so the caller's context keeps control over cancellation.
func NewProgressView(out io.Writer) *ProgressView {
	v := &ProgressView{done: make(chan struct{})}
	v.program = tea.NewProgram(newProgressModel(),
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	go func() {
		defer close(v.done)
		_, v.err = v.program.Run()
	}()
	return v
}

func (v *ProgressView) Started(source, table string) {
	v.program.Send(startedMsg{source: source, table: table, at: time.Now()})
}

func (v *ProgressView) TableInitialized(string, int64) {
	v.program.Send(initializedMsg{})
}

func (v *ProgressView) ChunkAppended(index int, _, total int64) {
	v.program.Send(chunkMsg{index: index, total: total})
}

// Finished draws the final frame and waits for the program to exit.
func (v *ProgressView) Finished(*pgingest.Report) {
	v.program.Send(finishedMsg{})
	v.Close()
}

// Close stops the program, if still running, and waits for it to restore
// the terminal. Safe to call more than once.
func (v *ProgressView) Close() error {
	v.once.Do(func() {
		v.program.Quit()
		<-v.done
	})
	return v.err
}

var _ pgingest.ProgressObserver = (*ProgressView)(nil)
