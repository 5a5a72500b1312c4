package sideeffect

import "testing"

func TestArbiterFeePercentage(t *testing.T) {
	if got := ArbiterFee(1000000, 1000); got != 5000 {
		t.Errorf("fee = %d, want 5000 (0.5%% of 1000000)", got)
	}
}

func TestArbiterFeeFloor(t *testing.T) {
	if got := ArbiterFee(1000, 1000); got != 1000 {
		t.Errorf("fee = %d, want relay-fee floor 1000", got)
	}
}
