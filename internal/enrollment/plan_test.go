package enrollment

import (
	"testing"
)

func TestApplicableStepsAllFlagCombos(t *testing.T) {
	bools := []bool{false, true}
	for _, existing := range bools {
		for _, sig := range bools {
			for _, pay := range bools {
				flags := Flags{ExistingAccount: existing, RequiresSignature: sig, PaymentRequired: pay}
				steps := ApplicableSteps(flags)

				if steps[len(steps)-1] != StepComplete {
					t.Errorf("flags %+v: steps %v do not end with complete", flags, steps)
				}
				if existing {
					for _, s := range steps {
						if s == StepProfile || s == StepPassword {
							t.Errorf("flags %+v: %s applicable for existing account", flags, s)
						}
					}
				}
				if sig != (stepIndex(steps, StepSignature) >= 0) {
					t.Errorf("flags %+v: signature applicability mismatch in %v", flags, steps)
				}
				if pay != (stepIndex(steps, StepPayment) >= 0) {
					t.Errorf("flags %+v: payment applicability mismatch in %v", flags, steps)
				}
			}
		}
	}
}

func TestApplicableStepsOrder(t *testing.T) {
	flags := Flags{ExistingAccount: false, RequiresSignature: true, PaymentRequired: true}
	steps := ApplicableSteps(flags)
	want := []Step{StepProfile, StepSignature, StepPayment, StepPassword, StepComplete}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("steps = %v, want %v", steps, want)
		}
	}
}

func TestCurrentStepReturnsFirstIncomplete(t *testing.T) {
	flags := Flags{RequiresSignature: true, PaymentRequired: true}
	steps := ApplicableSteps(flags)

	cases := []struct {
		name       string
		completion Completion
		want       Step
	}{
		{"nothing done", Completion{}, StepProfile},
		{"profile done", Completion{Profile: true}, StepSignature},
		{"through signature", Completion{Profile: true, Signature: true}, StepPayment},
		{"through payment", Completion{Profile: true, Signature: true, Payment: true}, StepPassword},
		{"all done", Completion{Profile: true, Signature: true, Payment: true, Password: true}, StepComplete},
		// Gaps are ignored: the scan stops at the first false flag.
		{"later step done early", Completion{Payment: true}, StepProfile},
	}

	for _, tc := range cases {
		if got := CurrentStep(steps, tc.completion); got != tc.want {
			t.Errorf("%s: CurrentStep = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestExistingAccountNothingRequiredFinalizesImmediately(t *testing.T) {
	flags := Flags{ExistingAccount: true}
	steps := ApplicableSteps(flags)
	if len(steps) != 1 || steps[0] != StepComplete {
		t.Fatalf("steps = %v, want [complete]", steps)
	}
	if got := CurrentStep(steps, Completion{}); got != StepComplete {
		t.Fatalf("CurrentStep = %s, want complete", got)
	}
}

func TestCurrentStepIsPure(t *testing.T) {
	flags := Flags{RequiresSignature: true}
	steps := ApplicableSteps(flags)
	completion := Completion{Profile: true}
	first := CurrentStep(steps, completion)
	for i := 0; i < 5; i++ {
		if got := CurrentStep(steps, completion); got != first {
			t.Fatalf("call %d: CurrentStep = %s, want %s", i, got, first)
		}
	}
}
