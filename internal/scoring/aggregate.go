package scoring

import (
	"sort"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Psyche/internal/store"
)

// Distribution counts responses per band. Shares are fractions of Total in [0, 1].
type Distribution struct {
	Favorable        int     `json:"favorable"`
	Neutral          int     `json:"neutral"`
	Unfavorable      int     `json:"unfavorable"`
	Total            int     `json:"total"`
	FavorableShare   float64 `json:"favorable_share"`
	NeutralShare     float64 `json:"neutral_share"`
	UnfavorableShare float64 `json:"unfavorable_share"`
}

func (d *Distribution) add(scored float64) {
	switch BandOf(scored) {
	case BandFavorable:
		d.Favorable++
	case BandNeutral:
		d.Neutral++
	default:
		d.Unfavorable++
	}
	d.Total++
}

func (d *Distribution) finish() {
	if d.Total == 0 {
		return
	}
	n := float64(d.Total)
	d.FavorableShare = float64(d.Favorable) / n
	d.NeutralShare = float64(d.Neutral) / n
	d.UnfavorableShare = float64(d.Unfavorable) / n
}

type QuestionResult struct {
	QuestionID   uuid.UUID    `json:"question_id"`
	CategoryID   *uuid.UUID   `json:"category_id,omitempty"`
	Text         string       `json:"text"`
	Order        int          `json:"order"`
	Count        int          `json:"count"`
	Average      float64      `json:"average"`
	Distribution Distribution `json:"distribution"`
}

// CategoryResult is the aggregate for one category. Average is the mean over
// every member response, not the mean of its question averages. Zone is
// classified on the one-decimal value that reports display. An Empty category
// has Average 0 and no Zone.
type CategoryResult struct {
	CategoryID  uuid.UUID        `json:"category_id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Order       int              `json:"order"`
	Count       int              `json:"count"`
	Average     float64          `json:"average"`
	Zone        Zone             `json:"zone,omitempty"`
	Empty       bool             `json:"empty"`
	Questions   []QuestionResult `json:"questions"`
}

// Overall is the mean over all responses in scope, rounded to one decimal.
// Zone is classified on the rounded value so the displayed score and zone agree.
type Overall struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
	Zone    Zone    `json:"zone,omitempty"`
	Empty   bool    `json:"empty"`
}

type Result struct {
	Questions     []QuestionResult `json:"questions"`
	Categories    []CategoryResult `json:"categories"`
	Uncategorized *CategoryResult  `json:"uncategorized,omitempty"`
	Overall       Overall          `json:"overall"`
}

// Category looks up a category result by id.
func (r Result) Category(id uuid.UUID) (CategoryResult, bool) {
	for _, c := range r.Categories {
		if c.CategoryID == id {
			return c, true
		}
	}
	return CategoryResult{}, false
}

// NonEmpty returns the categories that have at least one response.
func (r Result) NonEmpty() []CategoryResult {
	var out []CategoryResult
	for _, c := range r.Categories {
		if !c.Empty {
			out = append(out, c)
		}
	}
	return out
}

type acc struct {
	sum   float64
	count int
	dist  Distribution
}

func (a *acc) add(v float64) {
	a.sum += v
	a.count++
	a.dist.add(v)
}

func (a *acc) mean() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

// Aggregate reduces scored responses into per-question, per-category and overall
// results. Responses may come from one assessment or from many; questions and
// categories are the catalog in scope. Responses whose question is not in the
// catalog, or whose question has no known category, count towards Uncategorized
// and the overall average only.
func Aggregate(responses []store.Response, questions []store.Question, categories []store.Category) Result {
	qs := make([]store.Question, len(questions))
	copy(qs, questions)
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })

	cats := make([]store.Category, len(categories))
	copy(cats, categories)
	sort.SliceStable(cats, func(i, j int) bool { return cats[i].Order < cats[j].Order })

	knownCat := make(map[uuid.UUID]bool, len(cats))
	for _, c := range cats {
		knownCat[c.ID] = true
	}
	qByID := make(map[uuid.UUID]store.Question, len(qs))
	for _, q := range qs {
		qByID[q.ID] = q
	}

	perQuestion := make(map[uuid.UUID]*acc)
	perCategory := make(map[uuid.UUID]*acc)
	var uncategorized, overall acc
	var orphans []uuid.UUID

	for _, r := range responses {
		v := r.ScoredValue
		overall.add(v)

		qa, ok := perQuestion[r.QuestionID]
		if !ok {
			qa = &acc{}
			perQuestion[r.QuestionID] = qa
			if _, known := qByID[r.QuestionID]; !known {
				orphans = append(orphans, r.QuestionID)
			}
		}
		qa.add(v)

		q, known := qByID[r.QuestionID]
		if known && q.CategoryID != nil && knownCat[*q.CategoryID] {
			ca, ok := perCategory[*q.CategoryID]
			if !ok {
				ca = &acc{}
				perCategory[*q.CategoryID] = ca
			}
			ca.add(v)
			continue
		}
		uncategorized.add(v)
	}

	var res Result
	byCategory := make(map[uuid.UUID][]QuestionResult)
	var uncategorizedQuestions []QuestionResult

	for _, q := range qs {
		qr := questionResult(q.ID, q.CategoryID, q.Text, q.Order, perQuestion[q.ID])
		res.Questions = append(res.Questions, qr)
		if q.CategoryID != nil && knownCat[*q.CategoryID] {
			byCategory[*q.CategoryID] = append(byCategory[*q.CategoryID], qr)
		} else if qr.Count > 0 {
			uncategorizedQuestions = append(uncategorizedQuestions, qr)
		}
	}
	for _, id := range orphans {
		qr := questionResult(id, nil, "", 0, perQuestion[id])
		res.Questions = append(res.Questions, qr)
		uncategorizedQuestions = append(uncategorizedQuestions, qr)
	}

	for _, c := range cats {
		cr := CategoryResult{
			CategoryID:  c.ID,
			Name:        c.Name,
			Description: c.Description,
			Order:       c.Order,
			Questions:   byCategory[c.ID],
		}
		if a, ok := perCategory[c.ID]; ok && a.count > 0 {
			cr.Count = a.count
			cr.Average = a.mean()
			cr.Zone = Classify(Round1(cr.Average))
		} else {
			cr.Empty = true
		}
		res.Categories = append(res.Categories, cr)
	}

	if uncategorized.count > 0 {
		res.Uncategorized = &CategoryResult{
			Count:     uncategorized.count,
			Average:   uncategorized.mean(),
			Zone:      Classify(Round1(uncategorized.mean())),
			Questions: uncategorizedQuestions,
		}
	}

	res.Overall = Overall{Count: overall.count}
	if overall.count == 0 {
		res.Overall.Empty = true
	} else {
		res.Overall.Average = Round1(overall.mean())
		res.Overall.Zone = Classify(res.Overall.Average)
	}
	return res
}

func questionResult(id uuid.UUID, categoryID *uuid.UUID, text string, order int, a *acc) QuestionResult {
	qr := QuestionResult{
		QuestionID: id,
		CategoryID: categoryID,
		Text:       text,
		Order:      order,
	}
	if a != nil {
		qr.Count = a.count
		qr.Average = a.mean()
		qr.Distribution = a.dist
		qr.Distribution.finish()
	}
	return qr
}
