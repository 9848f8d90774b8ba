package enrollment

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"enrollment-backend/internal/gateway"
)

// Session is the authoritative in-memory record of what the user has
// completed in this wizard run. It is the sole mutator of completion flags
// and payload; collaborators read from it or propose updates through
// Reconcile. The visible step is always derived from flags and completion,
// never stored.
type Session struct {
	mu sync.Mutex

	token      string
	flags      Flags
	steps      []Step
	completion Completion
	payload    Payload
	resumption Resumption
	snapshot   gateway.Snapshot

	// displayed overrides the derived step after explicit back navigation;
	// empty means follow the derivation.
	displayed Step

	idemKey   string
	seq       uint64
	committed bool
	outcome   Outcome

	// commitMu serializes terminal commit attempts without holding mu across
	// the network call.
	commitMu sync.Mutex

	lastSeen time.Time
}

// NewSession seeds a session from the initial snapshot. Signature and payment
// flags come from the remote booleans; profile and password start false for a
// fresh session, or true immediately for an existing account since those
// steps do not apply.
func NewSession(token string, snap gateway.Snapshot) *Session {
	flags := FlagsFromSnapshot(snap)
	s := &Session{
		token:    token,
		flags:    flags,
		steps:    ApplicableSteps(flags),
		snapshot: snap,
		idemKey:  uuid.NewString(),
		lastSeen: time.Now().UTC(),
	}
	if flags.ExistingAccount {
		s.completion.Profile = true
		s.completion.Password = true
	}
	if snap.SignatureStatus == gateway.SignatureCompleted {
		s.completion.Signature = true
	}
	if snap.PaymentComplete {
		s.completion.Payment = true
	}
	s.payload.Profile = snap.Profile
	return s
}

func (s *Session) Token() string {
	return s.token
}

func (s *Session) Flags() Flags {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags
}

// Steps returns the applicable step list in order.
func (s *Session) Steps() []Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Step, len(s.steps))
	copy(out, s.steps)
	return out
}

func (s *Session) CompletionState() Completion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completion
}

func (s *Session) Profile() gateway.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payload.Profile
}

func (s *Session) PaymentURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.PaymentURL
}

// Seq returns the mutation counter. Callers capture it before starting a
// remote read and hand it back to Reconcile so responses that lost the race
// against a newer local mutation are discarded.
func (s *Session) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Current derives the first incomplete applicable step.
func (s *Session) Current() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CurrentStep(s.steps, s.completion)
}

// Shown is the step the UI should render: the derived step, unless the user
// navigated back.
func (s *Session) Shown() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shownLocked()
}

func (s *Session) shownLocked() Step {
	if s.displayed != "" {
		return s.displayed
	}
	return CurrentStep(s.steps, s.completion)
}

// ArmSignatureReturn sets the single-shot marker guarding the next reconcile
// pass after a return from the signature provider.
func (s *Session) ArmSignatureReturn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumption.FromSignature = true
	s.seq++
}

// MarkPaymentReturned optimistically records payment completion: the payment
// provider only redirects back after confirming success. The marker shields
// the flag from the reconcile read that follows.
func (s *Session) MarkPaymentReturned() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumption.FromPayment = true
	s.completion.Payment = true
	s.displayed = ""
	s.seq++
}

// CompleteProfile stores the validated profile and marks the step done,
// returning the next derived step.
func (s *Session) CompleteProfile(p gateway.Profile) Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload.Profile = p
	s.completion.Profile = true
	s.displayed = ""
	s.seq++
	return CurrentStep(s.steps, s.completion)
}

// AttachEnvelope records the provider envelope generated for this enrollment.
func (s *Session) AttachEnvelope(envelopeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload.EnvelopeID = envelopeID
	s.seq++
}

// CompleteSignature marks the signature step done. Only the post-return
// status sync or a reconcile pass call this; the user never signals it.
func (s *Session) CompleteSignature() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completion.Signature = true
	s.displayed = ""
	s.seq++
	return CurrentStep(s.steps, s.completion)
}

// CompletePassword holds the password in memory for the terminal commit and
// marks the step done.
func (s *Session) CompletePassword(password string) Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload.Password = password
	s.completion.Password = true
	s.displayed = ""
	s.seq++
	return CurrentStep(s.steps, s.completion)
}

// Reconcile folds a snapshot into the session. For steps whose resumption
// marker is armed the local flag and payload are kept untouched regardless of
// the snapshot; otherwise flags take the union of local and remote state, so
// a flag never flips back to false. The armed markers are consumed by this
// one pass. Reconcile reports false, applying nothing, when seq shows a local
// mutation won the race against this read.
func (s *Session) Reconcile(seq uint64, snap gateway.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return false
	}

	if !s.resumption.FromSignature && snap.SignatureStatus == gateway.SignatureCompleted {
		s.completion.Signature = true
	}
	if !s.resumption.FromPayment && snap.PaymentComplete {
		s.completion.Payment = true
	}

	// Remote profile fields are advisory prefill; a locally captured profile
	// always wins.
	if !s.completion.Profile {
		mergeProfile(&s.payload.Profile, snap.Profile)
	}

	s.snapshot = snap
	s.resumption = Resumption{}
	return true
}

func mergeProfile(dst *gateway.Profile, src gateway.Profile) {
	if dst.FirstName == "" {
		dst.FirstName = src.FirstName
	}
	if dst.LastName == "" {
		dst.LastName = src.LastName
	}
	if dst.Email == "" {
		dst.Email = src.Email
	}
	if dst.Phone == "" {
		dst.Phone = src.Phone
	}
	if dst.Address == "" {
		dst.Address = src.Address
	}
}

// NavigateBack moves the displayed step one position earlier among the
// applicable steps. Completion flags are untouched.
func (s *Session) NavigateBack() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	shown := s.shownLocked()
	if idx := stepIndex(s.steps, shown); idx > 0 {
		s.displayed = s.steps[idx-1]
	}
	return s.shownLocked()
}

// NavigateForward moves the displayed step one position later, but never past
// the first incomplete step.
func (s *Session) NavigateForward() (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shown := s.shownLocked()
	current := CurrentStep(s.steps, s.completion)
	shownIdx := stepIndex(s.steps, shown)
	if shownIdx < 0 || shownIdx >= stepIndex(s.steps, current) {
		return shown, ErrForwardBlocked
	}
	target := s.steps[shownIdx+1]
	if target == current {
		s.displayed = ""
	} else {
		s.displayed = target
	}
	return s.shownLocked(), nil
}

// CommitOutcome returns the recorded terminal-commit result, if any.
func (s *Session) CommitOutcome() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome, s.committed
}

func (s *Session) recordOutcome(out Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcome = out
	s.committed = true
	s.seq++
}

// commitPayload assembles the terminal write. It fails until every
// applicable step is complete. The password travels only for new accounts.
func (s *Session) commitPayload() (gateway.CommitPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return gateway.CommitPayload{}, ErrMissingToken
	}
	if CurrentStep(s.steps, s.completion) != StepComplete {
		return gateway.CommitPayload{}, ErrStepsIncomplete
	}
	payload := gateway.CommitPayload{
		Profile:        s.payload.Profile,
		EnvelopeID:     s.payload.EnvelopeID,
		IdempotencyKey: s.idemKey,
	}
	if !s.flags.ExistingAccount {
		payload.Password = s.payload.Password
	}
	return payload, nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) seenBefore(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(cutoff)
}
