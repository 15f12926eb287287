package models

import "testing"

func TestContract_CanTransitionTo(t *testing.T) {
	cases := []struct {
		name string
		from ContractStatus
		to   ContractStatus
		want bool
	}{
		{"active to completed", ContractActive, ContractCompleted, true},
		{"active to cancelled", ContractActive, ContractCancelled, true},
		{"active to disputed", ContractActive, ContractDisputed, true},
		{"disputed to completed", ContractDisputed, ContractCompleted, true},
		{"disputed to cancelled", ContractDisputed, ContractCancelled, true},
		{"disputed cannot reopen", ContractDisputed, ContractActive, false},
		{"completed is terminal", ContractCompleted, ContractCancelled, false},
		{"cancelled is terminal", ContractCancelled, ContractActive, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Contract{Status: tc.from}
			if got := c.CanTransitionTo(tc.to); got != tc.want {
				t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
			}
		})
	}
}

func TestContract_Parties(t *testing.T) {
	c := &Contract{ClientID: 1, ProviderID: 2}

	if !c.IsParticipant(1) || !c.IsParticipant(2) {
		t.Fatal("both parties must be participants")
	}
	if c.IsParticipant(3) {
		t.Fatal("outsiders must not be participants")
	}
	if c.Counterpart(1) != 2 || c.Counterpart(2) != 1 {
		t.Fatal("counterpart must be the other party")
	}
}

func TestContract_AllowsMessages(t *testing.T) {
	cases := []struct {
		status ContractStatus
		want   bool
	}{
		{ContractActive, true},
		{ContractDisputed, true},
		{ContractCompleted, false},
		{ContractCancelled, false},
	}

	for _, tc := range cases {
		c := &Contract{Status: tc.status}
		if got := c.AllowsMessages(); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.status, tc.want, got)
		}
	}
}
