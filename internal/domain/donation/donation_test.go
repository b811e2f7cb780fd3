package donation

import (
	"strings"
	"testing"
)

func TestBoundaryCrossed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		oldStatus string
		newStatus string
		want      bool
	}{
		{StatusPending, StatusCompleted, true},
		{StatusFailed, StatusCompleted, true},
		{StatusCompleted, StatusPending, true},
		{StatusCompleted, StatusFailed, true},
		{StatusPending, StatusFailed, false},
		{StatusFailed, StatusPending, false},
		{StatusPending, StatusPending, false},
		{StatusCompleted, StatusCompleted, false},
	}
	for _, tc := range cases {
		if got := BoundaryCrossed(tc.oldStatus, tc.newStatus); got != tc.want {
			t.Errorf("BoundaryCrossed(%s, %s) = %v, want %v", tc.oldStatus, tc.newStatus, got, tc.want)
		}
	}
}

func TestValidStatus(t *testing.T) {
	t.Parallel()

	for _, s := range []string{StatusPending, StatusCompleted, StatusFailed} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%s) = false", s)
		}
	}
	for _, s := range []string{"", "cancelled", "COMPLETED", "done"} {
		if ValidStatus(s) {
			t.Errorf("ValidStatus(%s) = true", s)
		}
	}
}

func TestNewTransactionID(t *testing.T) {
	t.Parallel()

	a := NewTransactionID()
	b := NewTransactionID()
	if !strings.HasPrefix(a, "TRX-") {
		t.Fatalf("unexpected prefix: %s", a)
	}
	if a == b {
		t.Fatalf("transaction IDs must be unique, got %s twice", a)
	}
}
