package schedule

import (
	"errors"
	"testing"
)

func TestValidateTransitionMatrix(t *testing.T) {
	allStatuses := []Status{StatusActive, StatusPaused, StatusCancelled, StatusCompleted}

	allowed := map[[2]Status]bool{
		{StatusActive, StatusPaused}:    true,
		{StatusPaused, StatusActive}:    true,
		{StatusActive, StatusCancelled}: true,
		{StatusPaused, StatusCancelled}: true,
		{StatusActive, StatusCompleted}: true, // engine-driven completion
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			err := ValidateTransition(from, to)
			if allowed[[2]Status{from, to}] {
				if err != nil {
					t.Errorf("ValidateTransition(%s, %s) = %v, want nil", from, to, err)
				}
			} else {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("ValidateTransition(%s, %s) = %v, want ErrInvalidTransition", from, to, err)
				}
			}
		}
	}
}

func TestTerminalStatesHaveNoOutgoingTransitions(t *testing.T) {
	for _, terminal := range []Status{StatusCancelled, StatusCompleted} {
		if !terminal.IsTerminal() {
			t.Errorf("%s should be terminal", terminal)
		}
		for _, to := range []Status{StatusActive, StatusPaused, StatusCancelled, StatusCompleted} {
			if terminal.CanTransitionTo(to) {
				t.Errorf("terminal status %s must not transition to %s", terminal, to)
			}
		}
	}
	if StatusActive.IsTerminal() || StatusPaused.IsTerminal() {
		t.Error("Active and Paused must not be terminal")
	}
}
