package workflow

import (
	"context"
	"errors"
	"testing"
)

type testState string

const (
	stateOpen   testState = "open"
	stateHeld   testState = "held"
	stateClosed testState = "closed"
)

func (s testState) IsValid() bool {
	return s == stateOpen || s == stateHeld || s == stateClosed
}

func (s testState) IsTerminal() bool {
	return s == stateClosed
}

type testTrigger string

const (
	triggerHold    testTrigger = "hold"
	triggerRelease testTrigger = "release"
	triggerClose   testTrigger = "close"
)

func newTestBuilder() StateMachineBuilder[testState, testTrigger] {
	b := NewBuilder[testState, testTrigger]()
	b.Configure(stateOpen).
		Permit(triggerHold, stateHeld).
		Permit(triggerClose, stateClosed)
	b.Configure(stateHeld).
		Permit(triggerRelease, stateOpen).
		Permit(triggerClose, stateClosed)
	return b
}

func TestStateMachine_Fire(t *testing.T) {
	tests := []struct {
		name     string
		initial  testState
		trigger  testTrigger
		expected testState
		wantErr  error
	}{
		{"open to held", stateOpen, triggerHold, stateHeld, nil},
		{"held to open", stateHeld, triggerRelease, stateOpen, nil},
		{"held to closed", stateHeld, triggerClose, stateClosed, nil},
		{"release from open rejected", stateOpen, triggerRelease, stateOpen, ErrInvalidTransition},
		{"terminal state rejects everything", stateClosed, triggerRelease, stateClosed, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := newTestBuilder().Build(tt.initial)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}

			err = m.Fire(context.Background(), tt.trigger)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Fire() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("Fire() unexpected error = %v", err)
			}

			if got := m.State(); got != tt.expected {
				t.Errorf("State() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStateMachine_GuardOrder(t *testing.T) {
	b := NewBuilder[testState, testTrigger]()
	b.Configure(stateOpen).
		PermitIf(triggerClose, stateHeld, func(ctx context.Context) bool { return false }).
		PermitIf(triggerClose, stateClosed, func(ctx context.Context) bool { return true })

	m, err := b.Build(stateOpen)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := m.Fire(context.Background(), triggerClose); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if m.State() != stateClosed {
		t.Errorf("State() = %v, want %v", m.State(), stateClosed)
	}
}

func TestStateMachine_AllGuardsFail(t *testing.T) {
	b := NewBuilder[testState, testTrigger]()
	b.Configure(stateOpen).
		PermitIf(triggerHold, stateHeld, func(ctx context.Context) bool { return false })

	m, _ := b.Build(stateOpen)
	err := m.Fire(context.Background(), triggerHold)
	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}
	if m.State() != stateOpen {
		t.Errorf("State() = %v, want %v", m.State(), stateOpen)
	}
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	m, _ := newTestBuilder().Build(stateHeld)

	got := m.PermittedTriggers()
	want := []testTrigger{triggerClose, triggerRelease}
	if len(got) != len(want) {
		t.Fatalf("PermittedTriggers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PermittedTriggers()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if !m.CanFire(triggerRelease) {
		t.Error("CanFire(release) = false, want true")
	}
	if m.CanFire(triggerHold) {
		t.Error("CanFire(hold) = true, want false")
	}
}

func TestBuilder_BuildRejectsInvalidState(t *testing.T) {
	_, err := newTestBuilder().Build(testState("bogus"))
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("Build() error = %v, want %v", err, ErrInvalidState)
	}
}

func TestBuilder_MachinesAreIndependent(t *testing.T) {
	b := newTestBuilder()
	m1, _ := b.Build(stateOpen)
	m2, _ := b.Build(stateOpen)

	if err := m1.Fire(context.Background(), triggerHold); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if m2.State() != stateOpen {
		t.Errorf("second machine State() = %v, want %v", m2.State(), stateOpen)
	}
}

func TestBuilder_ConfigureTerminalPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Configure(terminal) did not panic")
		}
	}()
	NewBuilder[testState, testTrigger]().Configure(stateClosed)
}
