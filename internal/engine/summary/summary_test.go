package summary

import (
	"testing"

	"aspectwatch/internal/engine/aspects"
	"aspectwatch/internal/engine/sky"
)

func TestAggregate_ThreeBodiesTwoAspects(t *testing.T) {
	list := []aspects.Aspect{
		{A: sky.Sun, B: sky.Moon, Name: "Trine", Trend: aspects.Negative},
		{A: sky.Sun, B: sky.Mars, Name: "Square", Trend: aspects.Positive},
	}
	got := Aggregate(list)

	if len(got) != 3 {
		t.Fatalf("expected 3 bodies, got %d: %+v", len(got), got)
	}
	if sun := got[sky.Sun]; sun != (Counts{Total: 2, Positive: 1, Negative: 1}) {
		t.Fatalf("unexpected Sun counts %+v", sun)
	}
	if moon := got[sky.Moon]; moon != (Counts{Total: 1, Negative: 1}) {
		t.Fatalf("unexpected Moon counts %+v", moon)
	}
	if mars := got[sky.Mars]; mars != (Counts{Total: 1, Positive: 1}) {
		t.Fatalf("unexpected Mars counts %+v", mars)
	}
	if total := GrandTotal(got).Total; total != 2*len(list) {
		t.Fatalf("grand total = %d, want %d", total, 2*len(list))
	}
}

func TestAggregate_UnknownTrendCountsTotalOnly(t *testing.T) {
	got := Aggregate([]aspects.Aspect{
		{A: sky.Venus, B: sky.Saturn, Trend: "Mixed"},
		{A: sky.Venus, B: sky.Jupiter, Trend: "positive"},
		{A: sky.Venus, B: sky.Rahu, Trend: aspects.Neutral},
	})
	venus := got[sky.Venus]
	if venus != (Counts{Total: 3, Neutral: 1}) {
		t.Fatalf("unexpected Venus counts %+v", venus)
	}
}

func TestAggregate_AbsentBodiesAndEmpty(t *testing.T) {
	got := Aggregate([]aspects.Aspect{{A: sky.Sun, B: sky.Moon, Trend: aspects.Positive}})
	if _, ok := got[sky.Venus]; ok {
		t.Fatal("expected untouched body to be absent")
	}
	if empty := Aggregate(nil); len(empty) != 0 {
		t.Fatalf("expected empty summary, got %+v", empty)
	}
}

func TestDense_ZeroFillsInOrder(t *testing.T) {
	s := Aggregate([]aspects.Aspect{{A: sky.Moon, B: sky.Mars, Trend: aspects.Neutral}})
	rows := Dense(s, sky.Bodies)
	if len(rows) != len(sky.Bodies) {
		t.Fatalf("expected %d rows, got %d", len(sky.Bodies), len(rows))
	}
	for i, row := range rows {
		if row.Body != sky.Bodies[i] {
			t.Fatalf("row %d is %s, want %s", i, row.Body, sky.Bodies[i])
		}
	}
	if rows[0].Total != 0 || rows[1].Neutral != 1 || rows[4].Total != 1 {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestAggregate_MatchesMatcherOutput(t *testing.T) {
	positions := sky.Positions{
		{Body: sky.Sun, Longitude: 0}, {Body: sky.Moon, Longitude: 120},
		{Body: sky.Mars, Longitude: 90}, {Body: sky.Venus, Longitude: 10},
	}
	list, err := aspects.Match(positions, aspects.DefaultRuleSet())
	if err != nil {
		t.Fatal(err)
	}
	s := Aggregate(list)

	for body, c := range s {
		appearances := 0
		for _, a := range list {
			if a.Involves(body) {
				appearances++
			}
		}
		if c.Total != appearances {
			t.Fatalf("%s total %d, appears in %d aspects", body, c.Total, appearances)
		}
		if c.Positive+c.Negative+c.Neutral != c.Total {
			t.Fatalf("%s split does not add up: %+v", body, c)
		}
	}
	if GrandTotal(s).Total != 2*len(list) {
		t.Fatalf("grand total mismatch")
	}
}

func TestTotals_CountsEachAspectOnce(t *testing.T) {
	list := []aspects.Aspect{
		{A: sky.Sun, B: sky.Moon, Trend: aspects.Positive},
		{A: sky.Sun, B: sky.Mars, Trend: aspects.Negative},
		{A: sky.Moon, B: sky.Mars, Trend: aspects.Negative},
		{A: sky.Venus, B: sky.Mars, Trend: "Mixed"},
	}
	got := Totals(list)
	want := Counts{Total: 4, Positive: 1, Negative: 2}
	if got != want {
		t.Fatalf("Totals = %+v, want %+v", got, want)
	}
	if half := GrandTotal(Aggregate(list)).Total / 2; half != got.Total {
		t.Fatalf("grand total/2 = %d, want %d", half, got.Total)
	}
}
