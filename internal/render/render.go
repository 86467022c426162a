// Package render produces Markdown output from a composed report document.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/Psyche/internal/report"
)

// Markdown renders a document as a Markdown preview.
func Markdown(doc *report.Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", doc.TemplateName)
	if !doc.Overall.Empty {
		fmt.Fprintf(&b, "**Overall:** %.1f (%s) over %d responses\n\n",
			doc.Overall.Average, doc.Overall.Zone.Label(), doc.Overall.Count)
	}

	for _, s := range doc.Sections {
		if s.Title != "" {
			fmt.Fprintf(&b, "## %s\n\n", s.Title)
		}
		switch {
		case s.Company != nil:
			renderCompany(&b, s.Company)
		case s.Technical != nil:
			renderTechnical(&b, s.Technical)
		case s.Chart != nil:
			renderChart(&b, s.Chart)
		case s.Table != nil:
			renderTable(&b, s.Table)
		case s.ActionPlan != nil:
			renderActionPlan(&b, s.ActionPlan)
		default:
			if text := strings.TrimRight(s.Text, "\n"); text != "" {
				b.WriteString(text)
				b.WriteString("\n\n")
			}
		}
	}

	return b.String()
}

func renderCompany(b *strings.Builder, c *report.CompanyBlock) {
	fmt.Fprintf(b, "**Company:** %s\n", c.Name)
	if c.RegistrationID != "" {
		fmt.Fprintf(b, "**Registration:** %s\n", c.RegistrationID)
	}
	if c.Address != "" {
		fmt.Fprintf(b, "**Address:** %s\n", c.Address)
	}
	if len(c.Departments) > 0 {
		fmt.Fprintf(b, "**Departments:** %s\n", strings.Join(c.Departments, ", "))
	}
	if c.From != nil && c.To != nil {
		fmt.Fprintf(b, "**Period:** %s to %s\n", c.From.Format(time.DateOnly), c.To.Format(time.DateOnly))
	}
	b.WriteString("\n")
}

func renderTechnical(b *strings.Builder, t *report.TechnicalBlock) {
	fmt.Fprintf(b, "**Name:** %s\n", t.Name)
	if t.Role != "" {
		fmt.Fprintf(b, "**Role:** %s\n", t.Role)
	}
	if t.Registry != "" {
		fmt.Fprintf(b, "**Registry:** %s\n", t.Registry)
	}
	if t.Email != "" {
		fmt.Fprintf(b, "**Email:** %s\n", t.Email)
	}
	b.WriteString("\n")
}

func renderChart(b *strings.Builder, c *report.ChartBlock) {
	for _, in := range c.Indicators {
		fmt.Fprintf(b, "- %s: %s %.1f (%s)\n", in.Name, bar(in.Average), in.Average, in.Label)
	}
	b.WriteString("\n")
}

// bar draws a 20-cell gauge for a 0-100 value.
func bar(v float64) string {
	filled := int(v/5 + 0.5)
	if filled < 0 {
		filled = 0
	}
	if filled > 20 {
		filled = 20
	}
	return "`" + strings.Repeat("#", filled) + strings.Repeat(".", 20-filled) + "`"
}

func renderTable(b *strings.Builder, t *report.TableBlock) {
	for _, c := range t.Categories {
		fmt.Fprintf(b, "### %s (%.1f, %s)\n\n", c.Name, c.Average, c.Zone.Label())
		b.WriteString("| Question | Average | Favorable | Neutral | Unfavorable |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, r := range c.Rows {
			d := r.Distribution
			fmt.Fprintf(b, "| %s | %.1f | %s | %s | %s |\n",
				escapeCell(r.Text), r.Average, pct(d.FavorableShare), pct(d.NeutralShare), pct(d.UnfavorableShare))
		}
		b.WriteString("\n")
	}
}

func renderActionPlan(b *strings.Builder, a *report.ActionPlanBlock) {
	for _, c := range a.Categories {
		fmt.Fprintf(b, "### %s [%s]\n\n", c.Name, c.RiskLabel)
		for _, it := range c.Items {
			fmt.Fprintf(b, "**%s:** %s\n", it.Label, it.Title)
			if it.Description != "" {
				fmt.Fprintf(b, "\n%s\n", it.Description)
			}
			b.WriteString("\n")
		}
	}
}

func pct(share float64) string {
	return fmt.Sprintf("%.0f%%", share*100)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
