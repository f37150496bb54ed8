// Package report renders evaluation outcomes for people (tables, summaries)
// and for machines (JSON documents).
package report

import (
	"fmt"
	"time"

	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/evaluation"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/labelspace"
)

// Document is the JSON report of one evaluation run over several models.
type Document struct {
	GeneratedAt      time.Time       `json:"generated_at"`
	DefaultThreshold float64         `json:"default_threshold"`
	Models           []ModelDocument `json:"models"`
}

type ModelDocument struct {
	Model            string                    `json:"model"`
	Fingerprint      string                    `json:"fingerprint,omitempty"`
	Classes          int                       `json:"classes"`
	Samples          int                       `json:"samples"`
	Default          evaluation.MetricsReport  `json:"default"`
	Optimized        *evaluation.MetricsReport `json:"optimized,omitempty"`
	Thresholds       map[string]float64        `json:"thresholds,omitempty"`
	ThresholdsCached bool                      `json:"thresholds_cached"`
	PerClass         []ClassRow                `json:"per_class,omitempty"`
	Runs             []string                  `json:"runs,omitempty"`
	Error            string                    `json:"error,omitempty"`
}

type ClassRow struct {
	Term      string  `json:"term"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
	Predicted int     `json:"predicted"`
}

// ModelInfo is what NewModelDocument needs besides the outcome.
type ModelInfo struct {
	Name     string
	Space    *labelspace.LabelSpace
	Samples  int
	CacheHit bool
	RunIDs   []string
	Err      error
}

func NewModelDocument(info ModelInfo, out evaluation.Outcome) ModelDocument {
	doc := ModelDocument{
		Model:            info.Name,
		Samples:          info.Samples,
		ThresholdsCached: info.CacheHit,
		Runs:             info.RunIDs,
	}
	var labels []string
	if info.Space != nil {
		labels = info.Space.Terms()
		doc.Fingerprint = info.Space.Fingerprint()
		doc.Classes = info.Space.Len()
	}
	if info.Err != nil {
		doc.Error = info.Err.Error()
		return doc
	}

	doc.Default = out.Default
	doc.Optimized = out.Optimized
	if out.Thresholds != nil {
		doc.Thresholds = make(map[string]float64, len(out.Thresholds))
		for j, t := range out.Thresholds {
			doc.Thresholds[termFor(labels, j)] = t
		}
	}
	for _, cs := range out.PerClass {
		doc.PerClass = append(doc.PerClass, ClassRow{
			Term:      termFor(labels, cs.Class),
			Precision: cs.Precision,
			Recall:    cs.Recall,
			F1:        cs.F1,
			Support:   cs.Support,
			Predicted: cs.Predicted,
		})
	}
	return doc
}

// Entry is one row of the comparison table.
type Entry struct {
	Model    string
	Decision string
	Metrics  evaluation.MetricsReport
}

// Entries flattens a document into table rows, default threshold first. Models
// that failed are left out.
func (d Document) Entries() []Entry {
	var out []Entry
	for _, m := range d.Models {
		if m.Error != "" {
			continue
		}
		out = append(out, Entry{
			Model:    m.Model,
			Decision: evaluation.Uniform(d.DefaultThreshold).String(),
			Metrics:  m.Default,
		})
		if m.Optimized != nil {
			out = append(out, Entry{
				Model:    m.Model,
				Decision: fmt.Sprintf("per-class(%d)", m.Classes),
				Metrics:  *m.Optimized,
			})
		}
	}
	return out
}

func termFor(labels []string, class int) string {
	if class >= 0 && class < len(labels) {
		return labels[class]
	}
	return fmt.Sprintf("class_%d", class)
}
