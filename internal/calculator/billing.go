package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/devpulse/devpulse/internal/types"
)

// MonthlyEvents pairs one month's bucket with the usage events loaded from
// its cache artifact.
type MonthlyEvents struct {
	Month  types.Month
	Events []types.UsageEvent
}

type MonthlySpend struct {
	Month     types.Month     `json:"month"`
	CostCents decimal.Decimal `json:"cost_cents"`
	Events    int             `json:"events"`
}

type UserSpend struct {
	Email     string          `json:"email"`
	CostCents decimal.Decimal `json:"cost_cents"`
	Events    int             `json:"events"`
	TopModel  string          `json:"top_model,omitempty"`
}

type ModelSpend struct {
	Model       string            `json:"model"`
	CostCents   decimal.Decimal   `json:"cost_cents"`
	Events      int               `json:"events"`
	Tokens      types.TokenCounts `json:"tokens"`
	UniqueUsers int               `json:"unique_users"`

	// TopUsers ranks spend on this specific model.
	TopUsers []UserSpend `json:"top_users"`
}

type BillingMetrics struct {
	TotalCostCents decimal.Decimal `json:"total_cost_cents"`
	BillableEvents int             `json:"billable_events"`
	ExcludedEvents int             `json:"excluded_events"`

	Months    []MonthlySpend `json:"months"`
	TopUsers  []UserSpend    `json:"top_users"`
	TopModels []ModelSpend   `json:"top_models"`
}

func (b BillingMetrics) TotalCostDollars() decimal.Decimal {
	return b.TotalCostCents.Div(decimal.NewFromInt(100))
}

type userAcc struct {
	cost     decimal.Decimal
	events   int
	perModel map[string]decimal.Decimal
}

type modelAcc struct {
	cost   decimal.Decimal
	events int
	tokens types.TokenCounts
	users  map[string]bool
}

// Billing rolls billable usage events up into spend by month, by user and
// by model. Only events passing the billing predicate (usage-based,
// chargeable, token-based) count; everything else lands in ExcludedEvents.
// Rankings sort on cost descending with ties broken by key ascending, so
// output order is deterministic.
func Billing(months []MonthlyEvents, topN int) BillingMetrics {
	m := BillingMetrics{TotalCostCents: decimal.Zero}
	users := make(map[string]*userAcc)
	models := make(map[string]*modelAcc)

	for _, me := range months {
		spend := MonthlySpend{Month: me.Month, CostCents: decimal.Zero}
		for _, ev := range me.Events {
			if !ev.Billable() {
				m.ExcludedEvents++
				continue
			}
			cost := decimal.NewFromFloat(ev.CostCents())
			m.BillableEvents++
			m.TotalCostCents = m.TotalCostCents.Add(cost)
			spend.CostCents = spend.CostCents.Add(cost)
			spend.Events++

			u := users[ev.UserEmail]
			if u == nil {
				u = &userAcc{cost: decimal.Zero, perModel: make(map[string]decimal.Decimal)}
				users[ev.UserEmail] = u
			}
			u.cost = u.cost.Add(cost)
			u.events++
			u.perModel[ev.Model] = u.perModel[ev.Model].Add(cost)

			md := models[ev.Model]
			if md == nil {
				md = &modelAcc{cost: decimal.Zero, users: make(map[string]bool)}
				models[ev.Model] = md
			}
			md.cost = md.cost.Add(cost)
			md.events++
			md.tokens.Input += ev.Tokens.Input
			md.tokens.Output += ev.Tokens.Output
			md.tokens.CacheWrite += ev.Tokens.CacheWrite
			md.tokens.CacheRead += ev.Tokens.CacheRead
			md.users[ev.UserEmail] = true
		}
		m.Months = append(m.Months, spend)
	}

	m.TopUsers = topUsers(users, topN)
	m.TopModels = topModels(models, users, topN)
	return m
}

func topUsers(users map[string]*userAcc, topN int) []UserSpend {
	out := make([]UserSpend, 0, len(users))
	for email, u := range users {
		out = append(out, UserSpend{
			Email:     email,
			CostCents: u.cost,
			Events:    u.events,
			TopModel:  topModelFor(u.perModel),
		})
	}
	rankUsers(out)
	return truncate(out, topN)
}

func topModels(models map[string]*modelAcc, users map[string]*userAcc, topN int) []ModelSpend {
	out := make([]ModelSpend, 0, len(models))
	for name, md := range models {
		out = append(out, ModelSpend{
			Model:       name,
			CostCents:   md.cost,
			Events:      md.events,
			Tokens:      md.tokens,
			UniqueUsers: len(md.users),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].CostCents.Cmp(out[j].CostCents); c != 0 {
			return c > 0
		}
		return out[i].Model < out[j].Model
	})
	out = truncate(out, topN)

	// Per-model user rankings only for the models that made the cut.
	for i := range out {
		var perModel []UserSpend
		for email, u := range users {
			cost, ok := u.perModel[out[i].Model]
			if !ok || !cost.IsPositive() {
				continue
			}
			perModel = append(perModel, UserSpend{Email: email, CostCents: cost, Events: u.events})
		}
		rankUsers(perModel)
		out[i].TopUsers = truncate(perModel, topN)
	}
	return out
}

func rankUsers(users []UserSpend) {
	sort.Slice(users, func(i, j int) bool {
		if c := users[i].CostCents.Cmp(users[j].CostCents); c != 0 {
			return c > 0
		}
		return users[i].Email < users[j].Email
	})
}

func topModelFor(perModel map[string]decimal.Decimal) string {
	var best string
	bestCost := decimal.Zero
	for model, cost := range perModel {
		switch cost.Cmp(bestCost) {
		case 1:
			best, bestCost = model, cost
		case 0:
			if best == "" || model < best {
				best, bestCost = model, cost
			}
		}
	}
	return best
}

func truncate[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
