package appointments

import "testing"

func TestScheduledCanReachEveryTerminalState(t *testing.T) {
	for _, next := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
		if !StatusScheduled.CanTransitionTo(next) {
			t.Errorf("scheduled should transition to %s", next)
		}
	}
}

func TestTerminalStatesRejectAllTransitions(t *testing.T) {
	terminals := []Status{StatusCompleted, StatusCancelled, StatusNoShow}
	targets := []Status{StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow}

	for _, from := range terminals {
		if !from.Terminal() {
			t.Errorf("%s should be terminal", from)
		}
		for _, to := range targets {
			if from.CanTransitionTo(to) {
				t.Errorf("%s -> %s should be rejected", from, to)
			}
		}
	}
}

func TestScheduledIsNotTerminal(t *testing.T) {
	if StatusScheduled.Terminal() {
		t.Error("scheduled must not be terminal")
	}
}

func TestUnknownStatusInvalid(t *testing.T) {
	if Status("pending").Valid() {
		t.Error("unknown status should not validate")
	}
	if Status("pending").CanTransitionTo(StatusCancelled) {
		t.Error("unknown status should not transition")
	}
}
