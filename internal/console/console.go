package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/scan-io-git/identity-leak/internal/collector"
	"github.com/scan-io-git/identity-leak/internal/pipeline"
	"github.com/scan-io-git/identity-leak/pkg/risk"
)

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorMuted  = lipgloss.Color("#2C4A54")
	colorOK     = lipgloss.Color("#2CD7C7")
	colorWarn   = lipgloss.Color("#F4D03F")
	colorError  = lipgloss.Color("#E74C3C")
)

type styles struct {
	title  lipgloss.Style
	muted  lipgloss.Style
	ok     lipgloss.Style
	failed lipgloss.Style
	levels map[risk.Level]lipgloss.Style
	box    lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:  r.NewStyle().Bold(true).Foreground(colorAccent),
		muted:  r.NewStyle().Foreground(colorMuted),
		ok:     r.NewStyle().Foreground(colorOK),
		failed: r.NewStyle().Foreground(colorError),
		levels: map[risk.Level]lipgloss.Style{
			risk.Low:    r.NewStyle().Bold(true).Foreground(colorOK),
			risk.Medium: r.NewStyle().Bold(true).Foreground(colorWarn),
			risk.High:   r.NewStyle().Bold(true).Foreground(colorError),
		},
		box: r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(0, 1),
	}
}

// Render writes a human-readable dump of out: collector runs, signals, graph edges and
// the risk verdict.
func Render(w io.Writer, out *pipeline.Outcome) {
	s := newStyles(w)
	var b strings.Builder

	b.WriteString(s.title.Render("Collectors") + "\n")
	for _, res := range out.Results {
		status := s.ok.Render(res.Status())
		detail := fmt.Sprintf("%d records", len(res.Records))
		if res.Status() == collector.StatusFailed {
			status = s.failed.Render(res.Status())
			detail = res.Err.Error()
		}
		fmt.Fprintf(&b, "  %-10s %s %s\n", res.Collector, status, s.muted.Render(detail))
	}

	fmt.Fprintf(&b, "\n%s\n", s.title.Render(fmt.Sprintf("Signals (%d, %d skipped)", len(out.Signals), out.Skipped)))
	for _, sig := range out.Signals {
		fmt.Fprintf(&b, "  %-28s %s %s\n", sig.Kind, truncate(sig.Value, 72),
			s.muted.Render(fmt.Sprintf("(%.2f, %s)", sig.Confidence, sig.Source())))
	}

	if g := out.Graph; g != nil {
		fmt.Fprintf(&b, "\n%s\n", s.title.Render(fmt.Sprintf("Graph %s (%d nodes, %d edges)", g.TargetID, len(g.Nodes), len(g.Edges))))
		for _, e := range g.Edges {
			fmt.Fprintf(&b, "  %s %s %s\n", truncate(e.Source, 48), s.muted.Render("-"+string(e.Relation)+"-"), truncate(e.Target, 48))
		}
	}

	level := s.levels[out.Risk.OverallRisk].Render(string(out.Risk.OverallRisk))
	verdict := fmt.Sprintf("Risk %s  score %.4g", level, out.Risk.Score)
	for _, d := range out.Risk.Drivers {
		verdict += fmt.Sprintf("\n  %.4f  %s", d.Score, truncate(d.Description, 64))
	}
	fmt.Fprintf(&b, "\n%s\n", s.box.Render(verdict))

	fmt.Fprint(w, b.String())
}

func truncate(v string, n int) string {
	r := []rune(v)
	if len(r) <= n {
		return v
	}
	return string(r[:n-3]) + "..."
}
