// Package progress renders a live upload progress bar, or falls back
// to plain log lines when stdout isn't a terminal.
package progress

import (
	"fmt"
	"log"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"odinflash/internal/flash"
)

// eventMsg wraps a flash.ProgressEvent for delivery into the
// bubbletea update loop.
type eventMsg flash.ProgressEvent

type closedMsg struct{}

// model is the bubbletea.Model driving the progress view, delegating
// the bar itself to bubbles/progress and only tracking upload state.
type model struct {
	events  <-chan flash.ProgressEvent
	bar     progress.Model
	label   string
	total   uint64
	done    uint64
	targets int
}

func newModel(events <-chan flash.ProgressEvent) model {
	return model{events: events, bar: progress.New(progress.WithDefaultGradient())}
}

func (m model) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case eventMsg:
		m.label = v.Label
		m.total = v.BytesTotal
		m.done = v.BytesDone
		if v.Done && v.Label != "pit" {
			m.targets++
		}
		var percent float64
		if m.total > 0 {
			percent = float64(m.done) / float64(m.total)
		}
		cmd := m.bar.SetPercent(percent)
		return m, tea.Batch(cmd, m.waitForEvent())
	case closedMsg:
		return m, tea.Quit
	case tea.KeyMsg:
		if v.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = v.Width - 4
	case progress.FrameMsg:
		next, cmd := m.bar.Update(v)
		m.bar = next.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	return fmt.Sprintf("transferring %s\n%s\ntargets complete: %d\n", m.label, m.bar.View(), m.targets)
}

// Run drives events to a terminal progress bar when stdout is a tty
// and noTUI is false; otherwise it logs one line per event to logger.
func Run(events <-chan flash.ProgressEvent, noTUI bool, logger *log.Logger) error {
	if noTUI || !isatty.IsTerminal(os.Stdout.Fd()) {
		return runPlain(events, logger)
	}
	p := tea.NewProgram(newModel(events))
	_, err := p.Run()
	return err
}

func runPlain(events <-chan flash.ProgressEvent, logger *log.Logger) error {
	for ev := range events {
		if ev.Done {
			logger.Printf("transferred %s (%d bytes)", ev.Label, ev.BytesTotal)
			continue
		}
		logger.Printf("transferring %s: %d/%d bytes", ev.Label, ev.BytesDone, ev.BytesTotal)
	}
	return nil
}
