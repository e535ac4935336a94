// Package tui is the interactive front end: it collects image paths, submits
// them for classification and renders results, a summary chart and the
// surrounding notifications and dialogs.
package tui

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"cellscan/internal/chart"
	"cellscan/internal/config"
	"cellscan/internal/predict"
	"cellscan/internal/preview"
)

// Backend is the prediction service as seen by the UI.
type Backend interface {
	Predict(ctx context.Context, files []string) ([]predict.Result, error)
	Download(ctx context.Context, w io.Writer) (int64, error)
}

// Options wires the UI to its collaborators.
type Options struct {
	Config  *config.Config
	Backend Backend
	Logger  *slog.Logger
	// Inputs prefill the path field.
	Inputs []string
}

type focusRegion int

const (
	focusInput focusRegion = iota
	focusAnalyze
	focusDownload
	focusAbout
	focusResults
	focusNotification
)

type model struct {
	cfg     *config.Config
	backend Backend
	logger  *slog.Logger

	keys  keyMap
	help  help.Model
	sp    spinner.Model
	input textinput.Model
	focus focusRegion

	// submission state
	busy          bool
	submission    int
	cancel        context.CancelFunc
	previewCancel context.CancelFunc

	downloading    bool
	downloadCancel context.CancelFunc

	previews *preview.Store
	thumbs   []*preview.Thumbnail

	results      []resultRow
	counts       predict.Counts
	cursor       int
	scrollOffset int
	barInfected  progress.Model
	barHealthy   progress.Model

	canvas       *chart.Canvas
	chart        *chart.Chart
	chartVisible bool

	note  notification
	about modal

	termW int
	termH int
}

func newModel(opts Options) model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cursorStyle

	ti := textinput.New()
	ti.Prompt = "Images: "
	ti.Placeholder = "cells/*.png, a folder, or several paths"
	ti.SetValue(strings.Join(opts.Inputs, " "))
	ti.Focus()

	bar := func(color string) progress.Model {
		return progress.New(progress.WithSolidFill(color), progress.WithoutPercentage(), progress.WithWidth(20))
	}

	return model{
		cfg:     cfg,
		backend: opts.Backend,
		logger:  logger,
		keys:    newKeyMap(),
		help:    help.New(),
		sp:      sp,
		input:   ti,
		focus:   focusInput,
		previews: preview.NewStore(preview.Options{
			Width:       cfg.PreviewWidth,
			Height:      cfg.PreviewHeight,
			Concurrency: cfg.Concurrency,
		}),
		barInfected: bar(string(infectedColor)),
		barHealthy:  bar(string(uninfectedColor)),
		canvas:      &chart.Canvas{},
		about:       newAboutModal(),
	}
}

// Run starts the interactive program and blocks until the user quits.
func Run(opts Options) error {
	m := newModel(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if fm, ok := final.(model); ok {
		fm.shutdown()
	}
	return err
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		if msg.Type == tea.MouseLeft && m.about.visible {
			w, h := m.size()
			m.about.click(msg.X, msg.Y, w, h)
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.termW, m.termH = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.sp, cmd = m.sp.Update(msg)
		return m, cmd
	case notificationExpiredMsg:
		m.note.expire(msg.seq)
		return m, nil
	case selectionMsg:
		if m.busy {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Warn("selection incomplete", "err", msg.err)
		}
		return m, m.submit(msg.paths())
	case previewMsg:
		m.applyPreviews(msg)
		return m, nil
	case predictMsg:
		if msg.submission != m.submission {
			return m, nil
		}
		cmd := m.finishSubmission(msg)
		return m, cmd
	case downloadMsg:
		return m, m.finishDownload(msg)
	}

	if m.focus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	typing := m.focus == focusInput

	if m.about.visible {
		switch {
		case msg.Type == tea.KeyCtrlC:
			m.shutdown()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Close):
			m.about.close()
		}
		return m, nil
	}

	switch {
	case msg.Type == tea.KeyCtrlC, key.Matches(msg, m.keys.Quit) && !typing:
		m.shutdown()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Close):
		if m.busy && m.cancel != nil {
			m.logger.Info("submission cancelled", "submission", m.submission)
			m.cancel()
		}
		if m.downloading && m.downloadCancel != nil {
			m.logger.Info("download cancelled")
			m.downloadCancel()
		}
		return m, nil
	case key.Matches(msg, m.keys.Next):
		return m, m.cycleFocus(1)
	case key.Matches(msg, m.keys.Prev):
		return m, m.cycleFocus(-1)
	case key.Matches(msg, m.keys.Analyze):
		return m, m.requestSubmit()
	case key.Matches(msg, m.keys.Download):
		return m, m.startDownload()
	case key.Matches(msg, m.keys.About):
		m.about.open()
		return m, nil
	case key.Matches(msg, m.keys.Activate):
		return m, m.activate()
	case key.Matches(msg, m.keys.Help) && !typing:
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Up) && m.focus == focusResults:
		if m.cursor > 0 {
			m.cursor--
			m.adjustScroll()
		}
		return m, nil
	case key.Matches(msg, m.keys.Down) && m.focus == focusResults:
		if m.cursor < len(m.results)-1 {
			m.cursor++
			m.adjustScroll()
		}
		return m, nil
	}

	if typing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// activate presses whatever has focus.
func (m *model) activate() tea.Cmd {
	switch m.focus {
	case focusInput, focusAnalyze:
		return m.requestSubmit()
	case focusDownload:
		return m.startDownload()
	case focusAbout:
		if m.keys.About.Enabled() {
			m.about.open()
		}
	}
	return nil
}

func (m *model) setFocus(f focusRegion) tea.Cmd {
	m.focus = f
	if f == focusInput {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

func (m *model) cycleFocus(dir int) tea.Cmd {
	order := []focusRegion{focusInput, focusAnalyze, focusDownload, focusAbout}
	if len(m.results) > 0 {
		order = append(order, focusResults)
	}
	idx := 0
	for i, f := range order {
		if f == m.focus {
			idx = i
			break
		}
	}
	idx = (idx + dir + len(order)) % len(order)
	return m.setFocus(order[idx])
}

func (m *model) adjustScroll() {
	if m.cursor >= m.scrollOffset+resultWindow {
		m.scrollOffset = m.cursor - resultWindow + 1
	}
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
}

func (m model) size() (int, int) {
	w, h := m.termW, m.termH
	if w <= 0 {
		w = 80
	}
	if h <= 0 {
		h = 24
	}
	return w, h
}

// shutdown cancels in-flight work and releases previews.
func (m *model) shutdown() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.previewCancel != nil {
		m.previewCancel()
		m.previewCancel = nil
	}
	if m.downloadCancel != nil {
		m.downloadCancel()
		m.downloadCancel = nil
	}
	m.previews.ReleaseAll()
	m.chart.Destroy()
}
