// Package actionplan resolves which remediation texts apply to a category.
package actionplan

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Psyche/internal/scoring"
	"github.com/MikeSquared-Agency/Psyche/internal/store"
)

// Default bounds for global plans that leave one or both ends open.
const (
	DefaultScoreMin = 0.0
	DefaultScoreMax = 100.0
)

// Source explains how a category's plans were chosen.
type Source string

const (
	SourceTenant     Source = "tenant"
	SourceGlobal     Source = "global"
	SourceNone       Source = "none"
	SourceSuppressed Source = "suppressed"
	SourceNoData     Source = "no_data"
)

// Selection is the outcome for one category.
type Selection struct {
	CategoryID   uuid.UUID          `json:"category_id"`
	CategoryName string             `json:"category_name"`
	Average      float64            `json:"average"`
	Zone         scoring.Zone       `json:"zone,omitempty"`
	Source       Source             `json:"source"`
	Plans        []store.ActionPlan `json:"plans"`
}

// Select returns the plans to display for one category.
//
// Tenant-scoped plans for the category win outright, regardless of score. Without
// any, global plans whose [ScoreMin, ScoreMax] range contains the average are
// returned. Hidden plans (ShowInReport=false) never qualify. Results keep creation
// order. An unknown category simply yields nothing.
func Select(categoryID uuid.UUID, categoryAverage float64, tenantID uuid.UUID, plans []store.ActionPlan) []store.ActionPlan {
	out, _ := selectWithSource(categoryID, categoryAverage, tenantID, plans)
	return out
}

func selectWithSource(categoryID uuid.UUID, avg float64, tenantID uuid.UUID, plans []store.ActionPlan) ([]store.ActionPlan, Source) {
	var tenant, global []store.ActionPlan
	for _, p := range plans {
		if p.CategoryID != categoryID || !p.ShowInReport {
			continue
		}
		switch {
		case !p.IsGlobal && p.TenantID != nil && *p.TenantID == tenantID:
			tenant = append(tenant, p)
		case p.IsGlobal && InRange(p, avg):
			global = append(global, p)
		}
	}
	if len(tenant) > 0 {
		return byCreation(tenant), SourceTenant
	}
	if len(global) > 0 {
		return byCreation(global), SourceGlobal
	}
	return nil, SourceNone
}

// InRange reports whether avg falls inside the plan's inclusive score range.
// Ranges are authored on whole points, so the average is rounded to the nearest
// point before comparison: 39.5 belongs to [40, 100], not to [0, 39].
//
// Zones are classified on the one-decimal average instead, so near a band edge a
// plan range and the displayed zone can differ: 74.5 matches [75, 100] while its
// zone is moderate. Fractional bounds are compared against the whole point too,
// so [0, 39.9] does not contain 39.95.
func InRange(p store.ActionPlan, avg float64) bool {
	lo, hi := DefaultScoreMin, DefaultScoreMax
	if p.ScoreMin != nil {
		lo = *p.ScoreMin
	}
	if p.ScoreMax != nil {
		hi = *p.ScoreMax
	}
	v := math.Round(avg)
	return v >= lo && v <= hi
}

func byCreation(plans []store.ActionPlan) []store.ActionPlan {
	sort.SliceStable(plans, func(i, j int) bool { return plans[i].CreatedAt.Before(plans[j].CreatedAt) })
	return plans
}

// Selections holds one Selection per category, in category order.
type Selections []Selection

// SelectAll runs Select for every category of an aggregation result. When the
// overall average is adequate no category receives plans. Empty categories are
// never matched since their zero average carries no information.
func SelectAll(res scoring.Result, tenantID uuid.UUID, plans []store.ActionPlan) Selections {
	suppressed := !res.Overall.Empty && res.Overall.Zone == scoring.ZoneAdequate

	out := make(Selections, 0, len(res.Categories))
	for _, c := range res.Categories {
		sel := Selection{
			CategoryID:   c.CategoryID,
			CategoryName: c.Name,
			Average:      c.Average,
			Zone:         c.Zone,
		}
		switch {
		case c.Empty:
			sel.Source = SourceNoData
		case suppressed:
			sel.Source = SourceSuppressed
		default:
			sel.Plans, sel.Source = selectWithSource(c.CategoryID, c.Average, tenantID, plans)
		}
		out = append(out, sel)
	}
	return out
}

// ByCategory maps each category that received at least one plan to its plans.
func (s Selections) ByCategory() map[uuid.UUID][]store.ActionPlan {
	m := make(map[uuid.UUID][]store.ActionPlan)
	for _, sel := range s {
		if len(sel.Plans) > 0 {
			m[sel.CategoryID] = sel.Plans
		}
	}
	return m
}

// Count is the total number of plans selected across categories.
func (s Selections) Count() int {
	n := 0
	for _, sel := range s {
		n += len(sel.Plans)
	}
	return n
}
