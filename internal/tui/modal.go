package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const closeLabel = "[ Close ]"

// modal is the about dialog. It covers the whole screen; the box in the
// middle is its content, everything else is background.
type modal struct {
	visible bool
	title   string
	body    string
	width   int
}

func newAboutModal() modal {
	return modal{
		title: "About cellscan",
		body: strings.Join([]string{
			"cellscan sends thin blood smear cell images to a",
			"malaria classifier and shows, per cell, whether it",
			"is Parasitized or Uninfected and how confident the",
			"model is.",
			"",
			"The model looks at each cell at 64x64 pixels and",
			"labels it Uninfected above a 0.5 sigmoid score.",
			"",
			"Results are a screening aid, not a diagnosis.",
		}, "\n"),
		width: 54,
	}
}

func (md *modal) open()  { md.visible = true }
func (md *modal) close() { md.visible = false }

func (md modal) box() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		modalTitleStyle.Render(md.title),
		"",
		md.body,
		"",
		closeStyle.Render(closeLabel),
	)
	return modalStyle.Width(md.width).Render(content)
}

// bounds returns the box position as lipgloss.Place centers it.
func (md modal) bounds(termW, termH int) (x, y, w, h int) {
	b := md.box()
	w, h = lipgloss.Width(b), lipgloss.Height(b)
	if gap := termW - w; gap > 0 {
		x = gap - int(math.Round(float64(gap)*0.5))
	}
	if gap := termH - h; gap > 0 {
		y = gap - int(math.Round(float64(gap)*0.5))
	}
	return x, y, w, h
}

// click handles a left click at (cx, cy). Clicks on the background or the
// close control hide the dialog; other clicks inside the box are ignored.
func (md *modal) click(cx, cy, termW, termH int) {
	if !md.visible {
		return
	}
	x, y, w, h := md.bounds(termW, termH)
	if cx < x || cx >= x+w || cy < y || cy >= y+h {
		md.close()
		return
	}
	// border + padding on each side
	row := y + h - 1 - modalPadY - 1
	left := x + 1 + modalPadX
	if cy == row && cx >= left && cx < left+lipgloss.Width(closeLabel) {
		md.close()
	}
}

func (md modal) view(termW, termH int) string {
	return lipgloss.Place(termW, termH, lipgloss.Center, lipgloss.Center, md.box(),
		lipgloss.WithWhitespaceChars("·"),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("237")),
	)
}
