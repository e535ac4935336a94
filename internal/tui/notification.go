package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type noticeLevel int

const (
	noticeInfo noticeLevel = iota
	noticeWarning
	noticeProgress
	noticeSuccess
)

// notification is the single status region. Each show bumps seq so an
// expiry scheduled by an earlier show is ignored when it fires.
type notification struct {
	text    string
	level   noticeLevel
	visible bool
	seq     int
}

type notificationExpiredMsg struct{ seq int }

// show displays text. A positive d schedules hiding after d; zero keeps the
// message until it is replaced or hidden.
func (n *notification) show(level noticeLevel, text string, d time.Duration) tea.Cmd {
	n.seq++
	n.text = text
	n.level = level
	n.visible = true
	if d <= 0 {
		return nil
	}
	seq := n.seq
	return tea.Tick(d, func(time.Time) tea.Msg {
		return notificationExpiredMsg{seq: seq}
	})
}

func (n *notification) hide() {
	n.seq++
	n.visible = false
}

func (n *notification) expire(seq int) {
	if seq == n.seq {
		n.visible = false
	}
}
