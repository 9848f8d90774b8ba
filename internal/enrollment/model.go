package enrollment

import (
	"enrollment-backend/internal/gateway"
)

// Step identifies one stage of the activation wizard.
type Step string

const (
	StepProfile   Step = "profile"
	StepSignature Step = "signature"
	StepPayment   Step = "payment"
	StepPassword  Step = "password"
	StepComplete  Step = "complete"
)

// Flags determine which steps apply to an enrollment. They are computed once
// from the first snapshot and stay fixed for the life of the session.
type Flags struct {
	ExistingAccount   bool
	RequiresSignature bool
	PaymentRequired   bool
}

// FlagsFromSnapshot derives the step-applicability flags from a remote read.
func FlagsFromSnapshot(snap gateway.Snapshot) Flags {
	return Flags{
		ExistingAccount:   snap.AccountID != "",
		RequiresSignature: snap.SignatureRequired,
		PaymentRequired:   snap.PaymentRequired,
	}
}

// Completion records which steps the session considers done. Flags only ever
// move false -> true within a session; remote reads may raise them, never
// lower them.
type Completion struct {
	Profile   bool `json:"profileDone"`
	Signature bool `json:"signatureDone"`
	Payment   bool `json:"paymentDone"`
	Password  bool `json:"passwordDone"`
}

// Done reports whether the given step's flag is set. StepComplete has no flag
// and always reports true.
func (c Completion) Done(step Step) bool {
	switch step {
	case StepProfile:
		return c.Profile
	case StepSignature:
		return c.Signature
	case StepPayment:
		return c.Payment
	case StepPassword:
		return c.Password
	default:
		return true
	}
}

// Payload accumulates everything the terminal commit needs. It lives in
// memory only; nothing is written to the remote before the commit so an
// abandoned flow leaves no half-created account behind.
type Payload struct {
	Profile    gateway.Profile
	EnvelopeID string
	Password   string
}

// Resumption marks that control just returned from an external provider
// redirect. Markers are single-shot: one reconcile pass consumes them.
type Resumption struct {
	FromSignature bool
	FromPayment   bool
}

// Active reports whether any marker is set.
func (r Resumption) Active() bool {
	return r.FromSignature || r.FromPayment
}
