package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"gonum.org/v1/gonum/stat/distuv"

	"questkit/models"
)

// BuildMarkdown renders a session's parameters, estimates and trial log as a
// markdown document.
func BuildMarkdown(session *models.ExperimentSession, trials []*models.TrialRecord, estimates *models.SessionEstimates) string {
	var b strings.Builder

	title := session.Label
	if title == "" {
		title = session.ID.String()
	}
	fmt.Fprintf(&b, "# Threshold session %s\n\n", title)
	fmt.Fprintf(&b, "State: **%s** · Policy: **%s** · Trials: **%d**\n\n", session.State, session.Policy, estimates.TrialCount)

	b.WriteString("## Model parameters\n\n")
	p := session.Params
	fmt.Fprintf(&b, "| Parameter | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Prior mean | %.4f |\n", p.PriorMean)
	fmt.Fprintf(&b, "| Prior SD | %.4f |\n", p.PriorSD)
	fmt.Fprintf(&b, "| Criterion | %.4f |\n", p.Criterion)
	fmt.Fprintf(&b, "| Beta | %.4f |\n", p.Beta)
	fmt.Fprintf(&b, "| Delta | %.4f |\n", p.Delta)
	fmt.Fprintf(&b, "| Gamma | %.4f |\n", p.Gamma)
	fmt.Fprintf(&b, "| Grain | %.4f |\n", p.Grain)

	// prior 95% interval before truncation, for orientation
	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.975)
	fmt.Fprintf(&b, "\nPrior 95%% interval: [%.3f, %.3f]\n\n", p.PriorMean-z*p.PriorSD, p.PriorMean+z*p.PriorSD)

	b.WriteString("## Estimates\n\n")
	fmt.Fprintf(&b, "| Statistic | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Mean | %.4f |\n", estimates.Mean)
	fmt.Fprintf(&b, "| SD | %.4f |\n", estimates.SD)
	fmt.Fprintf(&b, "| Median | %.4f |\n", estimates.Median)
	fmt.Fprintf(&b, "| Mode | %.4f |\n", estimates.Mode)

	if len(trials) > 0 {
		b.WriteString("\n## Trial log\n\n")
		b.WriteString("| # | Intensity | Response |\n|---|---|---|\n")
		for _, tr := range trials {
			outcome := "wrong"
			if tr.Response == 1 {
				outcome = "right"
			}
			fmt.Fprintf(&b, "| %d | %.4f | %s |\n", tr.Seq+1, tr.Intensity, outcome)
		}
	}

	return b.String()
}

// RenderHTML converts the markdown report into a standalone HTML fragment
func RenderHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}
