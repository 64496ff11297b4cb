package installer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	padding  = 2
	maxWidth = 80
)

var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render

// Progress receives download progress events
type Progress interface {
	Start(label string, total int64)
	Advance(n int64)
	Finish(err error)
}

type nopProgress struct{}

func (nopProgress) Start(string, int64) {}
func (nopProgress) Advance(int64)       {}
func (nopProgress) Finish(error)        {}

// progressWriter forwards written byte counts to a Progress
type progressWriter struct {
	p Progress
}

func (pw progressWriter) Write(b []byte) (int, error) {
	pw.p.Advance(int64(len(b)))
	return len(b), nil
}

type progressMsg struct {
	percent    float64
	downloaded int64
	speed      string
}

type progressErrMsg struct{ err error }

type downloadCompleteMsg struct{}

// TerminalProgress draws an animated progress bar for each download
type TerminalProgress struct {
	out        io.Writer
	program    *tea.Program
	done       chan struct{}
	total      int64
	downloaded int64
	startTime  time.Time
	lastSent   time.Time
}

// NewTerminalProgress creates a progress bar writing to out
func NewTerminalProgress(out io.Writer) *TerminalProgress {
	return &TerminalProgress{out: out}
}

// Start implements Progress
func (t *TerminalProgress) Start(label string, total int64) {
	t.total = total
	t.downloaded = 0
	t.startTime = time.Now()
	t.lastSent = time.Time{}
	t.done = make(chan struct{})

	t.program = tea.NewProgram(NewProgressModel(label, total), tea.WithOutput(t.out), tea.WithInput(nil))
	go func() {
		defer close(t.done)
		if _, err := t.program.Run(); err != nil {
			fmt.Fprintf(t.out, "Error running progress: %v\n", err)
		}
	}()
}

// Advance implements Progress
func (t *TerminalProgress) Advance(n int64) {
	if t.program == nil {
		return
	}
	t.downloaded += n
	// Throttle redraw requests; the final one always goes through
	if time.Since(t.lastSent) < 50*time.Millisecond && t.downloaded < t.total {
		return
	}
	t.lastSent = time.Now()

	percent := 0.0
	if t.total > 0 {
		percent = float64(t.downloaded) / float64(t.total)
	}
	t.program.Send(progressMsg{percent: percent, downloaded: t.downloaded, speed: FormatSpeed(t.downloaded, time.Since(t.startTime))})
}

// Finish implements Progress
func (t *TerminalProgress) Finish(err error) {
	if t.program == nil {
		return
	}
	if err != nil {
		t.program.Send(progressErrMsg{err: err})
	} else {
		t.program.Send(downloadCompleteMsg{})
	}
	<-t.done
	t.program = nil
}

// FormatSpeed formats a transfer rate in human-readable format
func FormatSpeed(bytes int64, elapsed time.Duration) string {
	if elapsed <= 0 {
		return "0 B/s"
	}
	speed := float64(bytes) / elapsed.Seconds()
	if speed >= 1024*1024 {
		return fmt.Sprintf("%.2f MB/s", speed/(1024*1024))
	} else if speed >= 1024 {
		return fmt.Sprintf("%.2f KB/s", speed/1024)
	}
	return fmt.Sprintf("%.0f B/s", speed)
}

// FormatSize formats bytes in human-readable format
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// ProgressModel represents the Bubble Tea model for download progress
type ProgressModel struct {
	progress   progress.Model
	label      string
	totalBytes int64
	downloaded int64
	speed      string
	err        error
	done       bool
}

// NewProgressModel creates the model for one download
func NewProgressModel(label string, totalBytes int64) ProgressModel {
	prog := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return ProgressModel{
		progress:   prog,
		label:      label,
		totalBytes: totalBytes,
		speed:      "0 B/s",
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return nil
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - padding*2 - 4
		if m.progress.Width > maxWidth {
			m.progress.Width = maxWidth
		}
		return m, nil

	case progressMsg:
		m.downloaded = msg.downloaded
		m.speed = msg.speed
		return m, m.progress.SetPercent(msg.percent)

	case downloadCompleteMsg:
		m.done = true
		return m, tea.Quit

	case progressErrMsg:
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	default:
		return m, nil
	}
}

func (m ProgressModel) View() string {
	if m.err != nil {
		return "Error downloading: " + m.err.Error() + "\n"
	}

	if m.done {
		return ""
	}

	pad := strings.Repeat(" ", padding)

	percent := m.progress.Percent() * 100
	info := fmt.Sprintf("%s / %s (%.0f%%) - %s",
		FormatSize(m.downloaded), FormatSize(m.totalBytes), percent, m.speed)

	return "\n" +
		pad + m.label + "\n" +
		pad + m.progress.View() + "\n" +
		pad + helpStyle(info) + "\n"
}
