// Package summary folds matched aspects into per-body scorecards.
package summary

import (
	"aspectwatch/internal/engine/aspects"
	"aspectwatch/internal/engine/sky"
)

// Counts is one body's scorecard.
type Counts struct {
	Total    int
	Positive int
	Negative int
	Neutral  int
}

func (c *Counts) add(trend aspects.Trend) {
	c.Total++
	switch trend {
	case aspects.Positive:
		c.Positive++
	case aspects.Negative:
		c.Negative++
	case aspects.Neutral:
		c.Neutral++
	}
}

// Summary maps each body that appears in at least one aspect to its counts.
type Summary map[sky.Body]Counts

// Aggregate counts, for every participant, how many aspects it is in and how
// they split by trend. Unknown trend labels add to Total only. Bodies without
// aspects are absent from the result.
func Aggregate(list []aspects.Aspect) Summary {
	out := make(Summary)
	for _, a := range list {
		for _, body := range [2]sky.Body{a.A, a.B} {
			c := out[body]
			c.add(a.Trend)
			out[body] = c
		}
	}
	return out
}

// Row is a Counts entry tagged with its body.
type Row struct {
	Body sky.Body
	Counts
}

// Dense returns one row per body in the given order, zero-filling bodies that
// have no aspects.
func Dense(s Summary, bodies []sky.Body) []Row {
	rows := make([]Row, 0, len(bodies))
	for _, body := range bodies {
		rows = append(rows, Row{Body: body, Counts: s[body]})
	}
	return rows
}

// GrandTotal sums counts across bodies. Total is always twice the number of
// aggregated aspects.
func GrandTotal(s Summary) Counts {
	var total Counts
	for _, c := range s {
		total.Total += c.Total
		total.Positive += c.Positive
		total.Negative += c.Negative
		total.Neutral += c.Neutral
	}
	return total
}

// Totals counts each aspect once by trend.
func Totals(list []aspects.Aspect) Counts {
	var c Counts
	for _, a := range list {
		c.add(a.Trend)
	}
	return c
}
