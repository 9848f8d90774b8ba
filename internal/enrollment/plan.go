package enrollment

// ApplicableSteps builds the ordered step list for the given flags. The order
// is fixed: profile data must exist before an envelope can be generated from
// it, and payment is only requested once the contractual signature is
// secured.
func ApplicableSteps(flags Flags) []Step {
	steps := make([]Step, 0, 5)
	if !flags.ExistingAccount {
		steps = append(steps, StepProfile)
	}
	if flags.RequiresSignature {
		steps = append(steps, StepSignature)
	}
	if flags.PaymentRequired {
		steps = append(steps, StepPayment)
	}
	if !flags.ExistingAccount {
		steps = append(steps, StepPassword)
	}
	steps = append(steps, StepComplete)
	return steps
}

// CurrentStep returns the first applicable step whose completion flag is
// false, or StepComplete when every step is done. It is pure: callers
// recompute it whenever completion state changes instead of tracking a
// current-step variable.
func CurrentStep(steps []Step, completion Completion) Step {
	for _, step := range steps {
		if !completion.Done(step) {
			return step
		}
	}
	return StepComplete
}

func stepIndex(steps []Step, step Step) int {
	for i, s := range steps {
		if s == step {
			return i
		}
	}
	return -1
}
