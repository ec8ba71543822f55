package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/potencialpi/sentiment-cx/domain/survey"
	"github.com/potencialpi/sentiment-cx/internal/config"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2CD7C7"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#20B9B4")).MarginTop(1)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2C4A54"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#16858E"))).
		Headers(headers...)
}

func f3(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }

// renderReport formats a report for the terminal. Display names come from labels.
func renderReport(report *survey.Report, labels config.Labels) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Survey analysis "+report.AnalysisID.String()) + "\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d records, seed %d, generated %s",
		report.RecordCount, report.Seed, report.GeneratedAt)) + "\n")

	vars := newTable("Variable", "Kind", "Answers", "Dropped", "Categories")
	for _, v := range report.Variables {
		categories := ""
		if v.Kind == survey.KindCategorical {
			categories = strconv.Itoa(v.Cardinality)
		}
		vars.Row(labels.Label(v.Name), string(v.Kind), strconv.Itoa(v.Count), strconv.Itoa(v.Dropped), categories)
	}
	section(&b, "Variables", vars.String())

	names := make([]string, 0, len(report.Summaries))
	for name := range report.Summaries {
		names = append(names, name)
	}
	sort.Strings(names)
	summaries := newTable("Variable", "N", "Mean", "SD", "Median", "Mode", "Min", "Max", "IQR", "95% CI")
	for _, name := range names {
		s := report.Summaries[name]
		summaries.Row(labels.Label(name), strconv.Itoa(s.Count), f3(s.Mean), f3(s.StandardDeviation),
			f3(s.Median), f3(s.Mode), f3(s.Min), f3(s.Max), f3(s.InterquartileRange),
			fmt.Sprintf("[%s, %s]", f3(s.ConfidenceInterval.Lower), f3(s.ConfidenceInterval.Upper)))
	}
	section(&b, "Descriptive statistics", summaries.String())

	if len(report.Correlations) > 0 {
		corr := newTable("A", "B", "N", "r", "p", "Significance")
		for _, c := range report.Correlations {
			corr.Row(labels.Label(c.VariableA), labels.Label(c.VariableB), strconv.Itoa(c.N),
				f3(c.Coefficient), f3(c.PValue), string(c.Significance))
		}
		section(&b, "Correlations", corr.String())
	}

	if len(report.ANOVA) > 0 {
		keys := make([]string, 0, len(report.ANOVA))
		for k := range report.ANOVA {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		anova := newTable("Numeric", "By", "Groups", "F", "p", "Eta²", "Group means")
		for _, k := range keys {
			r := report.ANOVA[k]
			means := make([]string, len(r.Groups))
			for i, g := range r.Groups {
				means[i] = fmt.Sprintf("%s=%s", g.Name, f3(g.Mean))
			}
			anova.Row(labels.Label(r.NumericVariable), labels.Label(r.CategoricalVariable),
				strconv.Itoa(len(r.Groups)), f3(r.FStatistic), f3(r.PValue), f3(r.EtaSquared),
				strings.Join(means, " "))
		}
		section(&b, "ANOVA", anova.String())
	}

	section(&b, "Segments", renderPartitions(report.Clusters, report.ClusterColumns, labels))
	return b.String()
}

func renderPartitions(partitions []survey.Partition, columns []string, labels config.Labels) string {
	if len(partitions) == 0 {
		return mutedStyle.Render("not enough complete rows to cluster")
	}

	display := make([]string, len(columns))
	for i, c := range columns {
		display[i] = labels.Label(c)
	}

	t := newTable("k", "Silhouette", "Iterations", "Converged", "Inertia", "Sizes")
	for _, p := range partitions {
		sizes := make([]string, 0, p.K)
		for _, s := range p.Sizes() {
			sizes = append(sizes, strconv.Itoa(s))
		}
		t.Row(strconv.Itoa(p.K), f3(p.Silhouette), strconv.Itoa(p.Iterations),
			strconv.FormatBool(p.Converged), f3(p.Inertia), strings.Join(sizes, "/"))
	}
	return mutedStyle.Render("on "+strings.Join(display, ", ")) + "\n" + t.String()
}

func section(b *strings.Builder, title, body string) {
	b.WriteString(sectionStyle.Render(title) + "\n")
	b.WriteString(body + "\n")
}
