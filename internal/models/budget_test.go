package models

import (
	"testing"
	"time"
)

func TestBudget_CanTransitionTo(t *testing.T) {
	cases := []struct {
		name string
		from BudgetStatus
		to   BudgetStatus
		want bool
	}{
		{"pending to negotiating", BudgetPending, BudgetNegotiating, true},
		{"pending to accepted", BudgetPending, BudgetAccepted, true},
		{"pending to rejected", BudgetPending, BudgetRejected, true},
		{"negotiating stays negotiable", BudgetNegotiating, BudgetNegotiating, true},
		{"negotiating to accepted", BudgetNegotiating, BudgetAccepted, true},
		{"accepted is terminal", BudgetAccepted, BudgetRejected, false},
		{"rejected is terminal", BudgetRejected, BudgetNegotiating, false},
		{"cancelled is terminal", BudgetCancelled, BudgetAccepted, false},
		{"expired is terminal", BudgetExpired, BudgetAccepted, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := &Budget{Status: tc.from}
			if got := b.CanTransitionTo(tc.to); got != tc.want {
				t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
			}
		})
	}
}

func TestBudget_IsStale(t *testing.T) {
	now := time.Now()

	t.Run("live budget past its expiry is stale", func(t *testing.T) {
		b := &Budget{Status: BudgetPending, ExpiresAt: now.Add(-time.Minute)}
		if !b.IsStale(now) {
			t.Fatal("expected stale")
		}
	})

	t.Run("live budget within its window is not stale", func(t *testing.T) {
		b := &Budget{Status: BudgetNegotiating, ExpiresAt: now.Add(time.Hour)}
		if b.IsStale(now) {
			t.Fatal("expected not stale")
		}
	})

	t.Run("terminal budget never goes stale", func(t *testing.T) {
		b := &Budget{Status: BudgetAccepted, ExpiresAt: now.Add(-time.Hour)}
		if b.IsStale(now) {
			t.Fatal("terminal budgets must not report stale")
		}
	})

	t.Run("zero expiry means no deadline", func(t *testing.T) {
		b := &Budget{Status: BudgetPending}
		if b.IsStale(now) {
			t.Fatal("expected not stale without a deadline")
		}
	})
}

func TestBudget_CurrentTerms(t *testing.T) {
	t.Run("original proposal without negotiations", func(t *testing.T) {
		b := &Budget{Value: 100, TermDays: 5}
		value, termDays := b.CurrentTerms()
		if value != 100 || termDays != 5 {
			t.Fatalf("expected (100, 5), got (%v, %d)", value, termDays)
		}
	})

	t.Run("latest counter-offer wins", func(t *testing.T) {
		b := &Budget{
			Value:    100,
			TermDays: 5,
			Negotiations: []Negotiation{
				{Value: 110, TermDays: 6},
				{Value: 120, TermDays: 7},
			},
		}
		value, termDays := b.CurrentTerms()
		if value != 120 || termDays != 7 {
			t.Fatalf("expected (120, 7), got (%v, %d)", value, termDays)
		}
	})
}
