// Package chart draws the summary bar chart shown under the results.
package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Series is one bar.
type Series struct {
	Label string
	Value int
	Color lipgloss.Color
}

// Canvas is the surface charts are drawn on. It counts how many charts
// created on it have not been destroyed yet.
type Canvas struct {
	active  int
	created int
}

// Chart is a vertical bar chart with a y axis starting at zero and no legend.
type Chart struct {
	canvas    *Canvas
	series    []Series
	destroyed bool
}

// NewBar creates a chart on c.
func (c *Canvas) NewBar(series ...Series) *Chart {
	c.active++
	c.created++
	return &Chart{canvas: c, series: append([]Series(nil), series...)}
}

// Active returns the number of live charts on c.
func (c *Canvas) Active() int { return c.active }

// Created returns how many charts were ever created on c.
func (c *Canvas) Created() int { return c.created }

// Destroy releases the chart. Calling it more than once is a no-op.
func (ch *Chart) Destroy() {
	if ch == nil || ch.destroyed {
		return
	}
	ch.destroyed = true
	ch.canvas.active--
}

// Destroyed reports whether Destroy was called.
func (ch *Chart) Destroyed() bool { return ch.destroyed }

// Values returns the bar values in order.
func (ch *Chart) Values() []int {
	out := make([]int, len(ch.series))
	for i, s := range ch.series {
		out[i] = s.Value
	}
	return out
}

// Labels returns the category labels in order.
func (ch *Chart) Labels() []string {
	out := make([]string, len(ch.series))
	for i, s := range ch.series {
		out[i] = s.Label
	}
	return out
}

// Render draws the chart using height rows for the bars. Axis labels are
// integers only.
func (ch *Chart) Render(height int) string {
	if ch == nil || ch.destroyed || len(ch.series) == 0 {
		return ""
	}
	if height < 1 {
		height = 1
	}
	maxVal := 1
	barW := 1
	for _, s := range ch.series {
		if s.Value > maxVal {
			maxVal = s.Value
		}
		if w := lipgloss.Width(s.Label); w > barW {
			barW = w
		}
	}
	fill := make([]int, len(ch.series))
	for i, s := range ch.series {
		if s.Value <= 0 {
			continue
		}
		rows := int(math.Round(float64(s.Value) / float64(maxVal) * float64(height)))
		if rows < 1 {
			rows = 1
		}
		fill[i] = rows
	}

	axisW := len(strconv.Itoa(maxVal))
	var b strings.Builder
	for row := height; row >= 1; row-- {
		label := ""
		if maxVal*row%height == 0 {
			label = strconv.Itoa(maxVal * row / height)
		}
		fmt.Fprintf(&b, "%*s │", axisW, label)
		for i, s := range ch.series {
			b.WriteByte(' ')
			if fill[i] >= row {
				b.WriteString(lipgloss.NewStyle().Foreground(s.Color).Render(strings.Repeat("█", barW)))
			} else {
				b.WriteString(strings.Repeat(" ", barW))
			}
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%*s └%s\n", axisW, "0", strings.Repeat("─", len(ch.series)*(barW+2)))
	b.WriteString(strings.Repeat(" ", axisW+2))
	for _, s := range ch.series {
		b.WriteByte(' ')
		b.WriteString(lipgloss.PlaceHorizontal(barW, lipgloss.Center, s.Label))
		b.WriteByte(' ')
	}
	return b.String()
}
