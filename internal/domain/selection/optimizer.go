// Package selection picks which properties, and how many whole months of rent
// on each, to bundle into an advance that best meets a target amount.
package selection

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MaxTermMonths caps how many months of rent a single property may advance.
	MaxTermMonths = 11
	// DefaultMinMonths is the shortest term ever offered.
	DefaultMinMonths = 2

	// maxStates bounds the reachable sums kept below the target per step.
	maxStates = 50_000
)

// AdvanceRatio is the share of remaining rent that may be advanced.
var AdvanceRatio = decimal.RequireFromString("0.9")

type Candidate struct {
	PropertyID      string          `json:"property_id"`
	MonthlyRent     decimal.Decimal `json:"monthly_rent"`
	MonthsRemaining int             `json:"months_remaining"`
}

// CandidateFromLease derives the whole months left on a lease as of now.
func CandidateFromLease(propertyID string, monthlyRent decimal.Decimal, leaseEnd, now time.Time) Candidate {
	return Candidate{
		PropertyID:      propertyID,
		MonthlyRent:     monthlyRent,
		MonthsRemaining: MonthsBetween(now, leaseEnd),
	}
}

// MonthsBetween counts complete calendar months from `from` to `to`.
func MonthsBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	from, to = from.UTC(), to.UTC()
	months := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

type Options struct {
	// MinMonths raises the floor on any selected term. It can never go below
	// DefaultMinMonths.
	MinMonths int `json:"min_months,omitempty"`
}

func (o Options) minMonths() int {
	if o.MinMonths < DefaultMinMonths {
		return DefaultMinMonths
	}
	return o.MinMonths
}

// MaxMonths is the longest term a candidate can carry.
func MaxMonths(c Candidate) int {
	if c.MonthsRemaining > MaxTermMonths {
		return MaxTermMonths
	}
	return c.MonthsRemaining
}

// Contribution is the advance value of months of rent, rounded to cents.
func Contribution(monthlyRent decimal.Decimal, months int) decimal.Decimal {
	return monthlyRent.Mul(decimal.NewFromInt(int64(months))).Mul(AdvanceRatio).Round(2)
}

// MaxContribution is Contribution at the candidate's longest term.
func MaxContribution(c Candidate) decimal.Decimal {
	return Contribution(c.MonthlyRent, MaxMonths(c))
}

type Result struct {
	SelectedPropertyIDs []string                   `json:"selected_property_ids"`
	PropertyTermMonths  map[string]int             `json:"property_term_months"`
	PropertyAmounts     map[string]decimal.Decimal `json:"property_amounts"`
	TotalAmount         decimal.Decimal            `json:"total_amount"`
	TargetAmount        decimal.Decimal            `json:"target_amount"`
	Message             string                     `json:"message"`
}

func (r Result) IsSelected(propertyID string) bool {
	_, ok := r.PropertyTermMonths[propertyID]
	return ok
}

// Shortfall is how far the selection falls below the target (zero if it reaches it).
func (r Result) Shortfall() decimal.Decimal {
	if d := r.TargetAmount.Sub(r.TotalAmount); d.IsPositive() {
		return d
	}
	return decimal.Zero
}

// Overage is how far the selection exceeds the target (zero if it does not).
func (r Result) Overage() decimal.Decimal {
	if d := r.TotalAmount.Sub(r.TargetAmount); d.IsPositive() {
		return d
	}
	return decimal.Zero
}

type item struct {
	c      Candidate
	min    int
	max    int
	values []int64 // cents by months, index 0 ↔ min
}

func (it item) value(months int) int64 { return it.values[months-it.min] }

// Optimize selects properties and term months whose total advance value is the
// smallest amount at or above target; if even every property at its maximum
// term falls short, it selects them all and reports the shortfall.
// The result depends only on its inputs.
func Optimize(candidates []Candidate, target decimal.Decimal, opts Options) Result {
	res := Result{
		SelectedPropertyIDs: []string{},
		PropertyTermMonths:  map[string]int{},
		PropertyAmounts:     map[string]decimal.Decimal{},
		TotalAmount:         decimal.Zero,
		TargetAmount:        target,
	}
	if !target.IsPositive() {
		res.Message = msgNoTarget()
		return res
	}
	if len(candidates) == 0 {
		res.Message = msgNoProperties()
		return res
	}

	minMonths := opts.minMonths()
	items := eligible(candidates, minMonths)
	if len(items) == 0 {
		res.Message = msgNoneEligible(minMonths)
		return res
	}

	targetCents := target.Mul(decimal.NewFromInt(100)).Ceil().IntPart()
	var maxTotal int64
	for _, it := range items {
		maxTotal += it.value(it.max)
	}

	if maxTotal <= targetCents {
		for _, it := range items {
			res.add(it, it.max)
		}
		if maxTotal == targetCents {
			res.Message = msgAllExact(len(items), target)
		} else {
			res.Message = msgShortfall(len(items), res.TotalAmount, res.Shortfall(), target)
		}
		return res
	}

	for idx, months := range search(items, targetCents) {
		if months > 0 {
			res.add(items[idx], months)
		}
	}
	sort.Strings(res.SelectedPropertyIDs)
	if res.TotalAmount.Equal(target) {
		res.Message = msgExact(len(res.SelectedPropertyIDs), target)
	} else {
		res.Message = msgOver(res.Overage())
	}
	return res
}

func (r *Result) add(it item, months int) {
	amt := decimal.New(it.value(months), -2)
	r.SelectedPropertyIDs = append(r.SelectedPropertyIDs, it.c.PropertyID)
	r.PropertyTermMonths[it.c.PropertyID] = months
	r.PropertyAmounts[it.c.PropertyID] = amt
	r.TotalAmount = r.TotalAmount.Add(amt)
}

func eligible(candidates []Candidate, minMonths int) []item {
	seen := make(map[string]bool, len(candidates))
	out := make([]item, 0, len(candidates))
	for _, c := range candidates {
		maxM := MaxMonths(c)
		if c.PropertyID == "" || seen[c.PropertyID] || !c.MonthlyRent.IsPositive() || maxM < minMonths {
			continue
		}
		seen[c.PropertyID] = true
		it := item{c: c, min: minMonths, max: maxM}
		for m := minMonths; m <= maxM; m++ {
			it.values = append(it.values, Contribution(c.MonthlyRent, m).Mul(decimal.NewFromInt(100)).IntPart())
		}
		out = append(out, it)
	}
	// Largest contributors first, ties by id, so the search order is stable.
	sort.SliceStable(out, func(i, j int) bool {
		vi, vj := out[i].value(out[i].max), out[j].value(out[j].max)
		if vi != vj {
			return vi > vj
		}
		return out[i].c.PropertyID < out[j].c.PropertyID
	})
	return out
}

type state struct {
	sum    int64
	parent int32
	months int8
}

// search runs a bounded-knapsack pass over reachable sums (in cents) and
// returns the months chosen per item (0 = not selected) for the smallest
// reachable sum ≥ target. Callers guarantee such a sum exists.
func search(items []item, target int64) []int {
	layers := make([][]state, 0, len(items)+1)
	layers = append(layers, []state{{sum: 0, parent: -1}})

	for _, it := range items {
		prev := layers[len(layers)-1]
		below := make(map[int64]state, len(prev)*2)
		var best *state

		offer := func(s state) {
			if s.sum >= target {
				if best == nil || s.sum < best.sum {
					cp := s
					best = &cp
				}
				return
			}
			if _, ok := below[s.sum]; !ok {
				below[s.sum] = s
			}
		}
		for pi, ps := range prev {
			offer(state{sum: ps.sum, parent: int32(pi)})
			if ps.sum >= target {
				continue
			}
			for m := it.min; m <= it.max; m++ {
				offer(state{sum: ps.sum + it.value(m), parent: int32(pi), months: int8(m)})
			}
		}

		next := make([]state, 0, len(below)+1)
		for _, s := range below {
			next = append(next, s)
		}
		sort.Slice(next, func(i, j int) bool { return next[i].sum < next[j].sum })
		next = thin(next)
		if best != nil {
			next = append(next, *best)
		}
		layers = append(layers, next)
	}

	last := layers[len(layers)-1]
	bi := -1
	for i, s := range last {
		if s.sum >= target && (bi < 0 || s.sum < last[bi].sum) {
			bi = i
		}
	}
	chosen := make([]int, len(items))
	if bi < 0 {
		return chosen
	}
	for layer, idx := len(layers)-1, bi; layer > 0; layer-- {
		s := layers[layer][idx]
		chosen[layer-1] = int(s.months)
		idx = int(s.parent)
	}
	return chosen
}

// thin keeps at most maxStates sums, evenly spaced, always keeping the largest.
func thin(sorted []state) []state {
	if len(sorted) <= maxStates {
		return sorted
	}
	out := make([]state, 0, maxStates)
	step := float64(len(sorted)-1) / float64(maxStates-1)
	for i := 0; i < maxStates; i++ {
		out = append(out, sorted[int(float64(i)*step)])
	}
	out[len(out)-1] = sorted[len(sorted)-1]
	return out
}
