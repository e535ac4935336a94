package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cellscan/internal/predict"
	"cellscan/internal/preview"
	"cellscan/pkg/utils"
)

const (
	modalPadX = 2
	modalPadY = 1

	chartHeight  = 6
	resultWindow = 5
)

var (
	infectedColor   = lipgloss.Color("#e74c3c")
	uninfectedColor = lipgloss.Color("#27ae60")

	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	sectionStyle      = lipgloss.NewStyle().Bold(true)
	buttonStyle       = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder())
	buttonFocusStyle  = buttonStyle.Copy().BorderForeground(lipgloss.Color("99")).Bold(true)
	buttonOffStyle    = buttonStyle.Copy().Foreground(lipgloss.Color("240")).BorderForeground(lipgloss.Color("240"))
	closeStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	cursorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	infectedBadge     = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(infectedColor).Padding(0, 1)
	uninfectedBadge   = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(uninfectedColor).Padding(0, 1)
	explanationStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	fullNameStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	noticeStyle       = lipgloss.NewStyle().Padding(0, 1)
	noticeFocusStyle  = noticeStyle.Copy().Underline(true)
	modalStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("99")).Padding(modalPadY, modalPadX)
	modalTitleStyle   = lipgloss.NewStyle().Bold(true)
	regionFocusMarker = cursorStyle.Render("▌")
)

func noticeColor(l noticeLevel) lipgloss.Style {
	switch l {
	case noticeWarning:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	case noticeSuccess:
		return lipgloss.NewStyle().Foreground(uninfectedColor)
	case noticeProgress:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
	default:
		return lipgloss.NewStyle()
	}
}

func (m model) View() string {
	w, h := m.size()
	if m.about.visible {
		return m.about.view(w, h)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Malaria Cell Detector") + "\n\n")
	b.WriteString(m.input.View() + "\n")
	b.WriteString(m.buttonsView() + "\n")

	if m.note.visible {
		b.WriteString(m.noticeView() + "\n")
	}
	if len(m.thumbs) > 0 {
		b.WriteString("\n" + sectionStyle.Render("Preview") + "\n")
		b.WriteString(m.previewView(w) + "\n")
	}
	if len(m.results) > 0 {
		b.WriteString("\n" + m.resultsHeader() + "\n")
		b.WriteString(m.resultsView())
	}
	if m.chartVisible && m.chart != nil {
		b.WriteString("\n" + sectionStyle.Render("Summary") + "\n")
		b.WriteString(m.chart.Render(chartHeight) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m model) buttonsView() string {
	btn := func(label string, f focusRegion, enabled bool) string {
		switch {
		case !enabled:
			return buttonOffStyle.Render(label)
		case m.focus == f:
			return buttonFocusStyle.Render(label)
		default:
			return buttonStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		btn("Analyze", focusAnalyze, m.keys.Analyze.Enabled()),
		" ",
		btn("Download CSV", focusDownload, m.keys.Download.Enabled()),
		" ",
		btn("About", focusAbout, m.keys.About.Enabled()),
	)
}

func (m model) noticeView() string {
	text := noticeColor(m.note.level).Render(m.note.text)
	if m.note.level == noticeProgress && m.busy {
		text = m.sp.View() + " " + text
	}
	if m.focus == focusNotification {
		return regionFocusMarker + noticeFocusStyle.Render(text)
	}
	return " " + noticeStyle.Render(text)
}

func (m model) previewView(width int) string {
	var cards []string
	used := 0
	shown := 0
	for _, t := range m.thumbs {
		card := lipgloss.JoinVertical(lipgloss.Left, t.Art, t.Caption(m.cfg.PreviewWidth))
		cw := lipgloss.Width(card) + 2
		if used+cw > width && shown > 0 {
			break
		}
		cards = append(cards, card, "  ")
		used += cw
		shown++
	}
	out := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	if rest := len(m.thumbs) - shown; rest > 0 {
		out += fmt.Sprintf("\n+%d more", rest)
	}
	return out
}

func (m model) resultsHeader() string {
	hdr := sectionStyle.Render(fmt.Sprintf("Results (%d)", len(m.results)))
	if m.focus == focusResults {
		hdr = regionFocusMarker + hdr
	}
	return hdr
}

func (m model) resultsView() string {
	var b strings.Builder
	end := m.scrollOffset + resultWindow
	if end > len(m.results) {
		end = len(m.results)
	}
	for i := m.scrollOffset; i < end; i++ {
		r := m.results[i]
		prefix := "  "
		if m.focus == focusResults && i == m.cursor {
			prefix = cursorStyle.Render(">") + " "
		}
		b.WriteString(prefix + m.resultLine(r) + "\n")
		b.WriteString("    " + explanationStyle.Render(r.Explanation()) + "\n")
		// the detail line stands in for a hover tooltip
		if m.focus == focusResults && i == m.cursor {
			if d := m.entryDetail(i, r); d != "" {
				b.WriteString("    " + fullNameStyle.Render(d) + "\n")
			}
		}
	}
	if len(m.results) > resultWindow {
		b.WriteString(fmt.Sprintf("  %d-%d of %d\n", m.scrollOffset+1, end, len(m.results)))
	}
	return b.String()
}

// entryDetail is the full file name when it was truncated, followed by what
// the preview learned about the image.
func (m model) entryDetail(i int, r resultRow) string {
	var parts []string
	if r.display != r.Filename {
		parts = append(parts, "file: "+r.Filename)
	}
	if t := m.thumbFor(i, r.Filename); t != nil {
		if d := t.Detail(); d != "" {
			parts = append(parts, d)
		}
	}
	return strings.Join(parts, " · ")
}

// thumbFor finds the preview of result i. Results normally come back in
// submission order, so the thumbnail at the same index is tried first.
func (m model) thumbFor(i int, name string) *preview.Thumbnail {
	if i < len(m.thumbs) && m.thumbs[i] != nil && m.thumbs[i].Name == name {
		return m.thumbs[i]
	}
	for _, t := range m.thumbs {
		if t != nil && t.Name == name {
			return t
		}
	}
	return nil
}

func (m model) resultLine(r resultRow) string {
	badge := uninfectedBadge
	bar := m.barHealthy
	if r.Infected() {
		badge = infectedBadge
		bar = m.barInfected
	}
	name := fmt.Sprintf("%-*s", m.cfg.MaxFilenameLength, r.display)
	return strings.Join([]string{
		name,
		badge.Render(string(r.Label)),
		bar.ViewAs(r.Fraction()),
		confidenceText(r.Result),
	}, "  ")
}

// confidenceText renders e.g. "91% confidence".
func confidenceText(r predict.Result) string {
	return fmt.Sprintf("%g%% confidence", r.Confidence)
}

// resultRow is one rendered result entry.
type resultRow struct {
	predict.Result
	display string
}

func newResultRows(results []predict.Result, maxLen int) []resultRow {
	rows := make([]resultRow, len(results))
	for i, r := range results {
		rows[i] = resultRow{Result: r, display: utils.TruncateFilename(r.Filename, maxLen)}
	}
	return rows
}
