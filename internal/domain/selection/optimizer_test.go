package selection

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestOptimize_ShortfallSelectsAllAtMaxTerms(t *testing.T) {
	props := []Candidate{
		{PropertyID: "p-3000", MonthlyRent: dec("3000"), MonthsRemaining: 10},
		{PropertyID: "p-2000", MonthlyRent: dec("2000"), MonthsRemaining: 11},
	}
	got := Optimize(props, dec("50000"), Options{})

	if len(got.SelectedPropertyIDs) != 2 {
		t.Fatalf("selected = %v, want both", got.SelectedPropertyIDs)
	}
	if got.PropertyTermMonths["p-3000"] != 10 || got.PropertyTermMonths["p-2000"] != 11 {
		t.Fatalf("terms = %v, want max terms", got.PropertyTermMonths)
	}
	if !got.PropertyAmounts["p-3000"].Equal(dec("27000")) || !got.PropertyAmounts["p-2000"].Equal(dec("19800")) {
		t.Fatalf("amounts = %v", got.PropertyAmounts)
	}
	if !got.TotalAmount.Equal(dec("46800")) {
		t.Fatalf("total = %s, want 46800", got.TotalAmount)
	}
	if !got.Shortfall().Equal(dec("3200")) {
		t.Fatalf("shortfall = %s, want 3200", got.Shortfall())
	}
	if !strings.Contains(got.Message, "short") {
		t.Fatalf("message %q does not state the shortfall", got.Message)
	}
}

func TestOptimize_ExactMatch(t *testing.T) {
	props := []Candidate{{PropertyID: "p1", MonthlyRent: dec("1000"), MonthsRemaining: 10}}
	got := Optimize(props, dec("4500"), Options{})

	if got.PropertyTermMonths["p1"] != 5 {
		t.Fatalf("term = %d, want 5", got.PropertyTermMonths["p1"])
	}
	if !got.TotalAmount.Equal(dec("4500")) {
		t.Fatalf("total = %s", got.TotalAmount)
	}
	if !strings.Contains(got.Message, "exactly") {
		t.Fatalf("message = %q", got.Message)
	}
}

func TestOptimize_MinimisesOvershoot(t *testing.T) {
	props := []Candidate{
		{PropertyID: "a", MonthlyRent: dec("1000"), MonthsRemaining: 10},
		{PropertyID: "b", MonthlyRent: dec("1500"), MonthsRemaining: 10},
	}
	got := Optimize(props, dec("5000"), Options{})

	if !got.TotalAmount.Equal(dec("5400")) {
		t.Fatalf("total = %s, want 5400", got.TotalAmount)
	}
	if !got.Overage().Equal(dec("400")) {
		t.Fatalf("overage = %s, want 400", got.Overage())
	}
	if !strings.Contains(got.Message, "$400.00 above target") {
		t.Fatalf("message = %q", got.Message)
	}
	var sum decimal.Decimal
	for _, id := range got.SelectedPropertyIDs {
		sum = sum.Add(got.PropertyAmounts[id])
	}
	if !sum.Equal(got.TotalAmount) {
		t.Fatalf("per-property amounts %s do not add up to total %s", sum, got.TotalAmount)
	}
}

func TestOptimize_FloorNeverBelowTwoMonths(t *testing.T) {
	props := []Candidate{{PropertyID: "a", MonthlyRent: dec("1000"), MonthsRemaining: 5}}
	for _, floor := range []int{-1, 0, 1} {
		got := Optimize(props, dec("100"), Options{MinMonths: floor})
		if got.PropertyTermMonths["a"] != DefaultMinMonths {
			t.Fatalf("MinMonths=%d: terms = %v, want a:%d", floor, got.PropertyTermMonths, DefaultMinMonths)
		}
		if !got.TotalAmount.Equal(dec("1800")) {
			t.Fatalf("MinMonths=%d: total = %s, want 1800", floor, got.TotalAmount)
		}
	}
}

func TestOptimize_DegenerateInputs(t *testing.T) {
	okProps := []Candidate{{PropertyID: "p1", MonthlyRent: dec("1000"), MonthsRemaining: 6}}

	tests := []struct {
		name   string
		props  []Candidate
		target decimal.Decimal
		opts   Options
		want   string
	}{
		{name: "zero target", props: okProps, target: decimal.Zero, want: "greater than $0"},
		{name: "negative target", props: okProps, target: dec("-5"), want: "greater than $0"},
		{name: "no properties", props: nil, target: dec("1000"), want: "No properties"},
		{
			name:   "lease too short",
			props:  []Candidate{{PropertyID: "p1", MonthlyRent: dec("1000"), MonthsRemaining: 1}},
			target: dec("1000"),
			want:   "at least 2 months",
		},
		{
			name:   "caller floor of three",
			props:  []Candidate{{PropertyID: "p1", MonthlyRent: dec("1000"), MonthsRemaining: 2}},
			target: dec("1000"),
			opts:   Options{MinMonths: 3},
			want:   "at least 3 months",
		},
		{
			name:   "zero rent",
			props:  []Candidate{{PropertyID: "p1", MonthlyRent: decimal.Zero, MonthsRemaining: 8}},
			target: dec("1000"),
			want:   "No eligible properties",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := Optimize(tt.props, tt.target, tt.opts)
			if len(got.SelectedPropertyIDs) != 0 || len(got.PropertyTermMonths) != 0 {
				t.Fatalf("expected empty selection, got %+v", got)
			}
			if !got.TotalAmount.IsZero() {
				t.Fatalf("total = %s, want 0", got.TotalAmount)
			}
			if !strings.Contains(got.Message, tt.want) {
				t.Fatalf("message %q does not contain %q", got.Message, tt.want)
			}
		})
	}
}

func TestOptimize_CapsTermAtEleven(t *testing.T) {
	props := []Candidate{{PropertyID: "long", MonthlyRent: dec("1000"), MonthsRemaining: 30}}
	got := Optimize(props, dec("100000"), Options{})
	if got.PropertyTermMonths["long"] != MaxTermMonths {
		t.Fatalf("term = %d, want %d", got.PropertyTermMonths["long"], MaxTermMonths)
	}
	if !got.TotalAmount.Equal(dec("9900")) {
		t.Fatalf("total = %s, want 9900", got.TotalAmount)
	}
}

func fixtureCandidates(n int) []Candidate {
	out := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Candidate{
			PropertyID:      fmt.Sprintf("prop-%02d", i),
			MonthlyRent:     decimal.NewFromInt(int64(850 + (i*373)%2600)),
			MonthsRemaining: 1 + (i*7)%15,
		})
	}
	return out
}

func TestOptimize_Deterministic(t *testing.T) {
	props := fixtureCandidates(25)
	first := Optimize(props, dec("61234.56"), Options{})
	for i := 0; i < 5; i++ {
		again := Optimize(props, dec("61234.56"), Options{})
		if !again.TotalAmount.Equal(first.TotalAmount) {
			t.Fatalf("run %d total = %s, want %s", i, again.TotalAmount, first.TotalAmount)
		}
		if !reflect.DeepEqual(again.PropertyTermMonths, first.PropertyTermMonths) {
			t.Fatalf("run %d terms differ: %v vs %v", i, again.PropertyTermMonths, first.PropertyTermMonths)
		}
		if again.Message != first.Message {
			t.Fatalf("run %d message differs", i)
		}
	}
}

func TestOptimize_TermsWithinBoundsAndReachesTarget(t *testing.T) {
	props := fixtureCandidates(18)
	byID := map[string]Candidate{}
	var maxTotal decimal.Decimal
	for _, c := range props {
		byID[c.PropertyID] = c
		if MaxMonths(c) >= DefaultMinMonths {
			maxTotal = maxTotal.Add(MaxContribution(c))
		}
	}

	for _, target := range []string{"900", "7777.77", "25000", "50000.01", "90000"} {
		tgt := dec(target)
		got := Optimize(props, tgt, Options{})
		for id, m := range got.PropertyTermMonths {
			c := byID[id]
			if m < DefaultMinMonths || m > MaxMonths(c) {
				t.Fatalf("target %s: %s term %d outside [2,%d]", target, id, m, MaxMonths(c))
			}
			if !got.PropertyAmounts[id].Equal(Contribution(c.MonthlyRent, m)) {
				t.Fatalf("target %s: %s amount mismatch", target, id)
			}
		}
		if maxTotal.GreaterThan(tgt) && got.TotalAmount.LessThan(tgt) {
			t.Fatalf("target %s reachable (max %s) but total = %s", target, maxTotal, got.TotalAmount)
		}
	}
}

func TestMonthsBetween(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		end  time.Time
		want int
	}{
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC), 1},
		{time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC), 10},
		{time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC), 13},
	}
	for _, tt := range tests {
		if got := MonthsBetween(now, tt.end); got != tt.want {
			t.Errorf("MonthsBetween(%s) = %d, want %d", tt.end.Format("2006-01-02"), got, tt.want)
		}
	}

	c := CandidateFromLease("p", dec("1200"), time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC), now)
	if c.MonthsRemaining != 10 {
		t.Fatalf("CandidateFromLease months = %d, want 10", c.MonthsRemaining)
	}
}
