package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModal_Click(t *testing.T) {
	const w, h = 100, 40
	md := newAboutModal()
	x, y, bw, bh := md.bounds(w, h)
	if x <= 0 || y <= 0 || bw >= w || bh >= h {
		t.Fatalf("box not centered: %d,%d %dx%d", x, y, bw, bh)
	}

	tests := []struct {
		name   string
		cx, cy int
		open   bool
	}{
		{"background corner", 0, 0, false},
		{"background left of box", x - 1, y + 2, false},
		{"background below box", x + 2, y + bh, false},
		{"title", x + 1 + modalPadX, y + 1 + modalPadY, true},
		{"border", x, y, true},
		{"close control", x + 1 + modalPadX, y + bh - 2 - modalPadY, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := newAboutModal()
			md.open()
			md.click(tt.cx, tt.cy, w, h)
			if md.visible != tt.open {
				t.Fatalf("visible = %v; want %v", md.visible, tt.open)
			}
		})
	}
}

func TestModal_Idempotent(t *testing.T) {
	md := newAboutModal()
	md.open()
	md.open()
	if !md.visible {
		t.Fatal("open twice")
	}
	md.close()
	md.close()
	if md.visible {
		t.Fatal("close twice")
	}
}

func TestModal_Keys(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyCtrlO})
	if !m.about.visible {
		t.Fatal("ctrl+o should open the dialog")
	}
	// other bindings are inert while the dialog is up
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyCtrlD})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.about.visible {
		t.Fatal("esc should close the dialog")
	}
}

func TestModal_MouseThroughUpdate(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m.about.open()

	x, y, _, _ := m.about.bounds(100, 40)
	m, _ = update(m, tea.MouseMsg{X: x + 3, Y: y + 1, Type: tea.MouseLeft})
	if !m.about.visible {
		t.Fatal("click on the content should keep the dialog open")
	}
	m, _ = update(m, tea.MouseMsg{X: 1, Y: 1, Type: tea.MouseLeft})
	if m.about.visible {
		t.Fatal("click on the background should close the dialog")
	}
}

func TestModal_ViewCoversScreen(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m.about.open()
	v := m.View()
	if strings.Contains(v, "Analyze") {
		t.Fatal("dialog should cover the main screen")
	}
	for _, want := range []string{"About cellscan", closeLabel} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
