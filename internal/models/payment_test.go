package models

import "testing"

func TestPayment_CanTransitionTo(t *testing.T) {
	cases := []struct {
		name string
		from PaymentStatus
		to   PaymentStatus
		want bool
	}{
		{"pending to paid", PaymentPending, PaymentPaid, true},
		{"pending to refunded", PaymentPending, PaymentRefunded, true},
		{"pending cannot release", PaymentPending, PaymentReleased, false},
		{"paid to released", PaymentPaid, PaymentReleased, true},
		{"paid to refunded", PaymentPaid, PaymentRefunded, true},
		{"released is terminal", PaymentReleased, PaymentRefunded, false},
		{"refunded is terminal", PaymentRefunded, PaymentPaid, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &Payment{Status: tc.from}
			if got := p.CanTransitionTo(tc.to); got != tc.want {
				t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
			}
		})
	}
}

func TestPlatformFee(t *testing.T) {
	cases := []struct {
		value   float64
		feeRate float64
		want    float64
	}{
		{120, 0.05, 6},
		{100, 0.05, 5},
		{99.99, 0.05, 5},     // 4.9995 rounds to the nearest cent
		{33.33, 0.1, 3.33},
		{0.01, 0.05, 0},
	}

	for _, tc := range cases {
		if got := PlatformFee(tc.value, tc.feeRate); got != tc.want {
			t.Fatalf("PlatformFee(%v, %v): expected %v, got %v", tc.value, tc.feeRate, tc.want, got)
		}
	}
}
