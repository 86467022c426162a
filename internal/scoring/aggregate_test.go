package scoring

import (
	"testing"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Psyche/internal/store"
)

func resp(q uuid.UUID, scored float64) store.Response {
	return store.Response{QuestionID: q, AnswerValue: scored, ScaleMax: 100, ScoredValue: scored}
}

func TestAggregateFlattensCategoryAverage(t *testing.T) {
	cat := uuid.New()
	qa := store.Question{ID: uuid.New(), CategoryID: uuidPtr(cat), Order: 1}
	qb := store.Question{ID: uuid.New(), CategoryID: uuidPtr(cat), Order: 2}

	// qa answered three times, qb once: mean of means would be (20+100)/2 = 60,
	// the flattened mean is (20+20+20+100)/4 = 40.
	responses := []store.Response{resp(qa.ID, 20), resp(qa.ID, 20), resp(qa.ID, 20), resp(qb.ID, 100)}

	res := Aggregate(responses, []store.Question{qa, qb}, []store.Category{{ID: cat, Name: "Support"}})
	c, _ := res.Category(cat)
	if c.Average != 40 {
		t.Errorf("category average %v, want 40", c.Average)
	}
	if c.Count != 4 {
		t.Errorf("count %d, want 4", c.Count)
	}
	if len(c.Questions) != 2 || c.Questions[0].Average != 20 || c.Questions[1].Average != 100 {
		t.Errorf("unexpected question results: %+v", c.Questions)
	}
	if res.Overall.Average != 40 || res.Overall.Zone != ZoneModerate {
		t.Errorf("unexpected overall: %+v", res.Overall)
	}
}

func TestAggregateDistribution(t *testing.T) {
	q := store.Question{ID: uuid.New(), Order: 1}
	responses := []store.Response{resp(q.ID, 0), resp(q.ID, 39), resp(q.ID, 40), resp(q.ID, 75)}

	res := Aggregate(responses, []store.Question{q}, nil)
	d := res.Questions[0].Distribution
	if d.Unfavorable != 2 || d.Neutral != 1 || d.Favorable != 1 || d.Total != 4 {
		t.Errorf("unexpected counts: %+v", d)
	}
	if d.UnfavorableShare != 0.5 || d.NeutralShare != 0.25 || d.FavorableShare != 0.25 {
		t.Errorf("unexpected shares: %+v", d)
	}
}

func TestAggregateEmptyCategory(t *testing.T) {
	used := uuid.New()
	unused := uuid.New()
	q := store.Question{ID: uuid.New(), CategoryID: uuidPtr(used)}
	idle := store.Question{ID: uuid.New(), CategoryID: uuidPtr(unused)}

	res := Aggregate([]store.Response{resp(q.ID, 90)}, []store.Question{q, idle}, []store.Category{
		{ID: unused, Name: "Idle", Order: 1},
		{ID: used, Name: "Used", Order: 2},
	})

	if len(res.Categories) != 2 {
		t.Fatalf("expected both categories listed, got %d", len(res.Categories))
	}
	empty := res.Categories[0]
	if !empty.Empty || empty.Average != 0 || empty.Zone != "" {
		t.Errorf("empty category should have zero average and no zone: %+v", empty)
	}
	nonEmpty := res.NonEmpty()
	if len(nonEmpty) != 1 || nonEmpty[0].CategoryID != used {
		t.Errorf("unexpected non-empty categories: %+v", nonEmpty)
	}
}

func TestAggregateUncategorized(t *testing.T) {
	cat := uuid.New()
	inCat := store.Question{ID: uuid.New(), CategoryID: uuidPtr(cat), Order: 1}
	loose := store.Question{ID: uuid.New(), Order: 2}
	orphan := uuid.New()

	res := Aggregate(
		[]store.Response{resp(inCat.ID, 10), resp(loose.ID, 50), resp(orphan, 90)},
		[]store.Question{inCat, loose},
		[]store.Category{{ID: cat}},
	)

	if res.Uncategorized == nil {
		t.Fatal("expected uncategorized result")
	}
	if res.Uncategorized.Count != 2 || res.Uncategorized.Average != 70 {
		t.Errorf("unexpected uncategorized: %+v", res.Uncategorized)
	}
	if len(res.Questions) != 3 {
		t.Errorf("orphan question should still be reported, got %d questions", len(res.Questions))
	}
	if res.Overall.Average != 50 {
		t.Errorf("overall %v, want 50", res.Overall.Average)
	}
}

func TestAggregateNoResponses(t *testing.T) {
	res := Aggregate(nil, nil, nil)
	if !res.Overall.Empty || res.Overall.Zone != "" {
		t.Errorf("expected empty overall, got %+v", res.Overall)
	}
	if res.Uncategorized != nil {
		t.Error("expected no uncategorized bucket")
	}
}

func TestAggregateZoneFollowsDisplayedAverage(t *testing.T) {
	cat := uuid.New()
	q := store.Question{ID: uuid.New(), CategoryID: uuidPtr(cat), Order: 1}
	responses := []store.Response{resp(q.ID, 75), resp(q.ID, 75), resp(q.ID, 75), resp(q.ID, 75), resp(q.ID, 74.8)}

	res := Aggregate(responses, []store.Question{q}, []store.Category{{ID: cat, Name: "Workload"}})
	c, _ := res.Category(cat)
	if Round1(c.Average) != 75 {
		t.Fatalf("displayed average %v, want 75", Round1(c.Average))
	}
	if c.Zone != ZoneAdequate {
		t.Errorf("category zone %q, want adequate", c.Zone)
	}
	if c.Zone != res.Overall.Zone {
		t.Errorf("category zone %q and overall zone %q disagree on the same average", c.Zone, res.Overall.Zone)
	}
}
