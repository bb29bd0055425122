package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"buzzline/internal/rolling"
)

const maxBarWidth = 30

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#58a6ff"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#58a6ff"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#3fb950"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#d29922"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#f85149"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#484f58"))
	sparkLevels = []rune("▁▂▃▄▅▆▇█")
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.snap.TotalCount == 0 {
		return panelStyle.Render(
			titleStyle.Render("buzzline") + "\n\n" +
				labelStyle.Render("waiting for streaming data...") + "\n\n" +
				m.renderSources()) + "\n" +
			helpStyle.Render(" [q]uit")
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(m.renderOverview()),
		panelStyle.Render(m.renderSentiment()),
	)
	bottom := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(m.renderAuthors()),
		panelStyle.Render(m.renderLengths()),
	)
	return strings.Join([]string{
		top,
		bottom,
		panelStyle.Render(m.renderSources()),
		helpStyle.Render(" [q]uit"),
	}, "\n")
}

func (m Model) renderOverview() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Throughput") + "\n")
	fmt.Fprintf(&b, "total    %d\n", m.snap.TotalCount)
	fmt.Fprintf(&b, "rate     %.2f msg/s\n", m.snap.Throughput)
	b.WriteString("window   " + sparkline(cumulativeDeltas(m.snap.TimeSeries)))
	return b.String()
}

func (m Model) renderSentiment() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sentiment") + "\n")
	fmt.Fprintf(&b, "mean     %+.3f %s\n", m.snap.SentimentMean, bandLabel(m.snap.SentimentBand))
	b.WriteString("trend    " + sparkline(m.snap.SentimentTrend))
	return b.String()
}

func (m Model) renderAuthors() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Authors") + "\n")
	if len(m.snap.Authors) == 0 {
		b.WriteString(labelStyle.Render("none yet"))
		return b.String()
	}

	var maxCount int64
	for _, a := range m.snap.Authors {
		if a.Count > maxCount {
			maxCount = a.Count
		}
	}
	shown := m.snap.Authors
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for _, a := range shown {
		fmt.Fprintf(&b, "%-12s %s %d\n", a.Author, bar(a.Count, maxCount), a.Count)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderLengths() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Message length") + "\n")
	ls := m.snap.Lengths
	if len(ls.Values) == 0 {
		b.WriteString(labelStyle.Render("none yet"))
		return b.String()
	}
	fmt.Fprintf(&b, "mean %.1f  min %d  max %d\n", ls.Mean, ls.Min, ls.Max)

	var maxCount int64
	for _, bucket := range ls.Histogram {
		if int64(bucket.Count) > maxCount {
			maxCount = int64(bucket.Count)
		}
	}
	for _, bucket := range ls.Histogram {
		fmt.Fprintf(&b, "%4d-%-4d %s %d\n", bucket.From, bucket.To, bar(int64(bucket.Count), maxCount), bucket.Count)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderSources() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sources") + "\n")
	if len(m.health) == 0 {
		b.WriteString(labelStyle.Render("no sources configured"))
		return b.String()
	}
	for _, h := range m.health {
		var status string
		switch {
		case !h.Enabled:
			status = badStyle.Render("disabled")
		case h.Degraded:
			status = warnStyle.Render(fmt.Sprintf("degraded (%d failures)", h.Failures))
		default:
			status = okStyle.Render("ok")
		}
		fmt.Fprintf(&b, "%-20s %s  records %d  dropped %d\n", h.Name, status, h.Records, h.Dropped)
	}
	return strings.TrimRight(b.String(), "\n")
}

func bandLabel(b rolling.Band) string {
	switch b {
	case rolling.BandPositive:
		return okStyle.Render("positive")
	case rolling.BandNegative:
		return badStyle.Render("negative")
	default:
		return labelStyle.Render("neutral")
	}
}

// bar renders a horizontal bar scaled against the largest value.
func bar(value, maxValue int64) string {
	if maxValue <= 0 || value <= 0 {
		return ""
	}
	n := int(value * maxBarWidth / maxValue)
	if n < 1 {
		n = 1
	}
	return barStyle.Render(strings.Repeat("█", n))
}

// sparkline renders a series as block characters scaled to its range.
func sparkline(values []float64) string {
	if len(values) == 0 {
		return labelStyle.Render("-")
	}
	minV, maxV := values[0], values[0]
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	span := maxV - minV
	var b strings.Builder
	for _, v := range values {
		idx := 0
		if span > 0 {
			idx = int((v - minV) / span * float64(len(sparkLevels)-1))
		}
		b.WriteRune(sparkLevels[idx])
	}
	return barStyle.Render(b.String())
}

// cumulativeDeltas converts the cumulative time series into per-point
// increments for the throughput sparkline.
func cumulativeDeltas(points []rolling.TimePoint) []float64 {
	if len(points) < 2 {
		return nil
	}
	out := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		out = append(out, float64(points[i].Cumulative-points[i-1].Cumulative))
	}
	return out
}
