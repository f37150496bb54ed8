package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/evaluation"
)

// Summary renders one report as an aligned block headed by name.
func Summary(name string, r evaluation.MetricsReport) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "=== %s ===\n", name)
	values := r.AsMap()
	for _, metric := range evaluation.MetricNames {
		note := ""
		if metric.LowerIsBetter() {
			note = "(lower is better)"
		}
		fmt.Fprintf(tw, "%s\t%.4f\t%s\n", metric, values[metric], note)
	}

	tw.Flush()
	return b.String()
}

// WriteTable writes the comparison of several (model, decision) pairs.
func WriteTable(w io.Writer, entries []Entry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	header := []string{"Model", "Decision"}
	for _, metric := range evaluation.MetricNames {
		name := string(metric)
		if metric.LowerIsBetter() {
			name += " (lower)"
		}
		header = append(header, name)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	fmt.Fprintln(tw, strings.Join(sep, "\t"))

	for _, e := range entries {
		values := e.Metrics.AsMap()
		row := []string{e.Model, e.Decision}
		for _, metric := range evaluation.MetricNames {
			row = append(row, fmt.Sprintf("%.4f", values[metric]))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// WritePerClass writes per-class scores ordered by support, most frequent
// first. A positive limit keeps only that many rows.
func WritePerClass(w io.Writer, labels []string, scores []evaluation.ClassScore, limit int) {
	sorted := make([]evaluation.ClassScore, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Support != sorted[j].Support {
			return sorted[i].Support > sorted[j].Support
		}
		return sorted[i].Class < sorted[j].Class
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Term\tPrecision\tRecall\tF1\tSupport\tPredicted")
	fmt.Fprintln(tw, "---\t---\t---\t---\t---\t---")
	for _, cs := range sorted {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\t%d\t%d\n",
			termFor(labels, cs.Class), cs.Precision, cs.Recall, cs.F1, cs.Support, cs.Predicted)
	}
	if len(sorted) < len(scores) {
		fmt.Fprintf(tw, "... %d more\n", len(scores)-len(sorted))
	}
	tw.Flush()
}
