package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cellscan/internal/chart"
	"cellscan/internal/export"
	"cellscan/internal/predict"
	"cellscan/internal/preview"
	"cellscan/internal/scanner"
	"cellscan/pkg/utils"
)

// User facing messages.
const (
	msgSelectImages = "⚠️ Please select at least one blood cell image to start detection."
	msgAnalyzing    = "Analyzing images, please wait... ⏳"
	msgNoResults    = "No images were processed. Please try again."
	msgFailure      = "⚠️ Oops! Something went wrong. Please try again."
	msgDownloadFail = "⚠️ Could not download the results. Analyze some images first."
	msgDownloadStop = "Download cancelled."
)

type selectionMsg struct {
	images []scanner.Image
	err    error
}

func (s selectionMsg) paths() []string { return scanner.Paths(s.images) }

type previewMsg struct {
	submission int
	thumbs     []*preview.Thumbnail
	err        error
}

type predictMsg struct {
	submission int
	results    []predict.Result
	err        error
}

type downloadMsg struct {
	path  string
	bytes int64
	err   error
}

// requestSubmit resolves the path field into files; the resulting
// selectionMsg starts the submission.
func (m *model) requestSubmit() tea.Cmd {
	if !m.keys.Analyze.Enabled() {
		return nil
	}
	inputs := scanner.SplitInput(m.input.Value())
	opts := scanner.Options{
		MaxDepth:      m.cfg.MaxDepth,
		FollowSymlink: m.cfg.FollowSymlink,
		Excludes:      m.cfg.Excludes,
	}
	return func() tea.Msg {
		imgs, err := scanner.CollectImages(context.Background(), inputs, opts)
		return selectionMsg{images: imgs, err: err}
	}
}

// submit starts a prediction for files. An empty selection only warns.
func (m *model) submit(files []string) tea.Cmd {
	if len(files) == 0 {
		return m.notify(noticeWarning, msgSelectImages, m.cfg.WarningDuration)
	}

	m.clearOutput()
	noteCmd := m.notify(noticeProgress, msgAnalyzing, 0)
	m.setBusy(true)
	m.submission++
	id := m.submission

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if m.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), m.cfg.Timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	m.cancel = cancel
	// previews outlive the request; they are cancelled by the next clear
	pctx, pcancel := context.WithCancel(context.Background())
	m.previewCancel = pcancel
	m.logger.Info("submission started", "submission", id, "files", len(files))

	store := m.previews
	backend := m.backend
	paths := append([]string(nil), files...)
	return tea.Batch(
		noteCmd,
		m.sp.Tick,
		func() tea.Msg {
			thumbs, err := store.Build(pctx, paths)
			return previewMsg{submission: id, thumbs: thumbs, err: err}
		},
		func() tea.Msg {
			results, err := backend.Predict(ctx, paths)
			return predictMsg{submission: id, results: results, err: err}
		},
	)
}

// clearOutput empties the preview, results and chart regions.
func (m *model) clearOutput() {
	if m.previewCancel != nil {
		m.previewCancel()
		m.previewCancel = nil
	}
	if n := m.previews.Release(m.thumbs); n > 0 {
		m.logger.Debug("previews released", "count", n)
	}
	m.thumbs = nil
	m.results = nil
	m.counts = predict.Counts{}
	m.cursor, m.scrollOffset = 0, 0
	m.destroyChart()
}

func (m *model) destroyChart() {
	if m.chart != nil {
		m.chart.Destroy()
		m.chart = nil
	}
	m.chartVisible = false
}

func (m *model) applyPreviews(msg previewMsg) {
	if msg.submission != m.submission {
		m.previews.Release(msg.thumbs)
		return
	}
	if msg.err != nil {
		m.logger.Debug("preview build stopped", "submission", msg.submission, "err", msg.err)
		return
	}
	m.thumbs = msg.thumbs
}

// finishSubmission renders a prediction response. Buttons are re-enabled on
// every path out of here, including a panic while rendering.
func (m *model) finishSubmission(msg predictMsg) (cmd tea.Cmd) {
	defer m.setBusy(false)
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("render results", "submission", msg.submission, "panic", fmt.Sprint(r))
			m.results = nil
			m.destroyChart()
			cmd = m.notify(noticeWarning, msgFailure, m.cfg.WarningDuration)
		}
	}()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	if msg.err != nil {
		m.logger.Error("prediction failed", "submission", msg.submission, "err", msg.err)
		return m.notify(noticeWarning, msgFailure, m.cfg.WarningDuration)
	}
	if len(msg.results) == 0 {
		return m.notify(noticeInfo, msgNoResults, m.cfg.WarningDuration)
	}

	m.note.hide()
	m.results = newResultRows(msg.results, m.cfg.MaxFilenameLength)
	m.counts = predict.Tally(msg.results)
	m.logger.Info("submission done", "submission", msg.submission,
		"parasitized", m.counts.Parasitized, "uninfected", m.counts.Uninfected)

	m.destroyChart()
	m.chart = m.canvas.NewBar(
		chart.Series{Label: string(predict.Parasitized), Value: m.counts.Parasitized, Color: infectedColor},
		chart.Series{Label: string(predict.Uninfected), Value: m.counts.Uninfected, Color: uninfectedColor},
	)
	m.chartVisible = true
	return m.setFocus(focusResults)
}

func (m *model) startDownload() tea.Cmd {
	if !m.keys.Download.Enabled() {
		return nil
	}
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if m.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), m.cfg.Timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	m.downloadCancel = cancel
	m.downloading = true
	m.syncActions()
	m.logger.Info("download started")

	backend := m.backend
	dir := m.cfg.DownloadDir
	return func() tea.Msg {
		path, n, err := export.Save(dir, export.DownloadName, func(w io.Writer) (int64, error) {
			return backend.Download(ctx, w)
		})
		return downloadMsg{path: path, bytes: n, err: err}
	}
}

func (m *model) finishDownload(msg downloadMsg) tea.Cmd {
	if m.downloadCancel != nil {
		m.downloadCancel()
		m.downloadCancel = nil
	}
	m.downloading = false
	m.syncActions()
	if errors.Is(msg.err, context.Canceled) {
		m.logger.Info("download stopped", "err", msg.err)
		return m.notify(noticeInfo, msgDownloadStop, m.cfg.NotificationDuration)
	}
	if msg.err != nil {
		m.logger.Error("download failed", "err", msg.err)
		return m.notify(noticeWarning, msgDownloadFail, m.cfg.WarningDuration)
	}
	m.logger.Info("download saved", "path", msg.path, "bytes", msg.bytes)
	text := fmt.Sprintf("Saved %s (%s)", msg.path, utils.HumanizeBytes(msg.bytes))
	return m.notify(noticeSuccess, text, m.cfg.NotificationDuration)
}

// notify shows text in the notification region and moves focus there.
func (m *model) notify(level noticeLevel, text string, d time.Duration) tea.Cmd {
	cmd := m.note.show(level, text, d)
	m.setFocus(focusNotification)
	return cmd
}

func (m *model) setBusy(on bool) {
	m.busy = on
	m.syncActions()
}

// syncActions enables the buttons that are free to press. Download stays off
// while one is already in flight.
func (m *model) syncActions() {
	m.keys.setActionsEnabled(!m.busy)
	if m.downloading {
		m.keys.Download.SetEnabled(false)
	}
}
