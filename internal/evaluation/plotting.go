package evaluation

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// PlotThresholdsTerminal draws the per-class thresholds as horizontal bars,
// ascending by threshold. labels names the classes; missing names fall back
// to the column index.
func PlotThresholdsTerminal(w io.Writer, labels []string, classes []ClassThreshold) {
	if len(classes) == 0 {
		return
	}

	sorted := make([]ClassThreshold, len(classes))
	copy(sorted, classes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Threshold < sorted[j].Threshold
	})

	width := len("Class")
	for _, c := range sorted {
		width = max(width, len(className(labels, c.Class)))
	}

	fmt.Fprintf(w, "\nPer-class thresholds (ascending):\n")
	fmt.Fprintf(w, "%-*s | Thresh | Train F1 | Bar Chart\n", width, "Class")
	fmt.Fprintln(w, strings.Repeat("-", width)+"-|--------|----------|"+strings.Repeat("-", 50))

	const maxBarWidth = 50
	for _, c := range sorted {
		barWidth := int(c.Threshold * maxBarWidth)

		bar := strings.Repeat("█", barWidth)
		if barWidth == 0 {
			bar = "▏"
		}

		note := ""
		if c.Degenerate {
			note = " (no positives)"
		}

		fmt.Fprintf(w, "%-*s | %.4f | %8.4f | %s%s\n", width, className(labels, c.Class), c.Threshold, c.F1, bar, note)
	}
}

func className(labels []string, class int) string {
	if class >= 0 && class < len(labels) && labels[class] != "" {
		return labels[class]
	}
	return fmt.Sprintf("class_%d", class)
}
