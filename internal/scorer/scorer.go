// Package scorer is the Scorer Adapter (spec §4.5): it owns nothing beyond
// column selection, matrix assembly, and attribution math around an
// external, black-box model.Scorer. It never trains or loads a model
// itself — that collaborator is entirely outside this module's scope
// (spec §1 "the trained model file format and the detector itself").
package scorer

import (
	"fmt"
	"math"
	"sort"

	"github.com/go2netspectra/wfe/internal/model"
)

// Result is one scored FeatureRow: its raw score/label from the external
// model.Scorer plus, for rows labeled anomalous, an attribution breakdown.
type Result struct {
	WindowStart float64            `json:"window_start"`
	WindowEnd   float64            `json:"window_end"`
	Score       float64            `json:"score"`
	Label       float64            `json:"label"`
	Attribution []Contribution     `json:"attribution,omitempty"`
}

// Contribution is one feature's share of an anomaly's attribution (spec
// §4.5): median/MAD deviation, normalized to sum 100% across the top 5.
type Contribution struct {
	Feature string  `json:"feature"`
	Percent float64 `json:"percent"`
}

// Run selects rec.Columns() from every row in order, hands the resulting
// matrix to s in one call, and pairs the returned scores/labels back up
// with each row — computing attribution for rows labeled anomalous
// (label == -1, per the §4.5 convention).
func Run(s model.Scorer, rows []model.FeatureRow) ([]Result, error) {
	matrix := make([][]float64, len(rows))
	for i, row := range rows {
		matrix[i] = row.Columns()
	}

	scores, labels, err := s.Score(matrix)
	if err != nil {
		return nil, fmt.Errorf("scorer: score: %w", err)
	}
	if len(scores) != len(rows) || len(labels) != len(rows) {
		return nil, fmt.Errorf("scorer: expected %d scores/labels, got %d/%d", len(rows), len(scores), len(labels))
	}

	medians, mads := columnStats(matrix)

	results := make([]Result, len(rows))
	for i, row := range rows {
		results[i] = Result{
			WindowStart: row.WindowStart,
			WindowEnd:   row.WindowEnd,
			Score:       scores[i],
			Label:       labels[i],
		}
		if labels[i] == -1 {
			results[i].Attribution = attribute(matrix[i], medians, mads)
		}
	}
	return results, nil
}

// columnStats computes the per-column median and MAD (median absolute
// deviation, floored at 1) across the whole matrix, the baseline attribution
// deviates from (spec §4.5).
func columnStats(matrix [][]float64) (medians, mads []float64) {
	if len(matrix) == 0 {
		return nil, nil
	}
	cols := len(matrix[0])
	medians = make([]float64, cols)
	mads = make([]float64, cols)

	col := make([]float64, len(matrix))
	for c := 0; c < cols; c++ {
		for i, row := range matrix {
			col[i] = row[c]
		}
		med := median(col)
		medians[c] = med

		devs := make([]float64, len(col))
		for i, x := range col {
			devs[i] = math.Abs(x - med)
		}
		mad := median(devs)
		if mad < 1 {
			mad = 1
		}
		mads[c] = mad
	}
	return medians, mads
}

func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// attribute ranks row's columns by |x-median|/MAD, keeps the top 5, and
// normalizes their deviations to sum 100% (spec §4.5). This is a documented
// approximation, not the scorer's internal feature importance.
func attribute(row, medians, mads []float64) []Contribution {
	all := make([]Contribution, len(row))
	for c, x := range row {
		dev := math.Abs(x-medians[c]) / mads[c]
		all[c] = Contribution{Feature: model.ColumnNames[c], Percent: dev}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Percent > all[j].Percent })

	top := all
	if len(top) > 5 {
		top = top[:5]
	}

	total := 0.0
	for _, c := range top {
		total += c.Percent
	}
	if total == 0 {
		for i := range top {
			top[i].Percent = 0
		}
		return top
	}
	for i := range top {
		top[i].Percent = top[i].Percent / total * 100
	}
	return top
}

// NullScorer is a test/dry-run model.Scorer that labels every row normal
// with a constant score. It has no detection value; it exists so the
// pipeline can run end-to-end without a trained model artifact.
type NullScorer struct{}

// Score implements model.Scorer.
func (NullScorer) Score(matrix [][]float64) ([]float64, []float64, error) {
	scores := make([]float64, len(matrix))
	labels := make([]float64, len(matrix))
	for i := range matrix {
		scores[i] = 0
		labels[i] = 1
	}
	return scores, labels, nil
}
