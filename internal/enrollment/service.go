package enrollment

import (
	"context"
	"errors"
	"strings"
	"time"

	"enrollment-backend/internal/authclient"
	"enrollment-backend/internal/gateway"
	sharedauth "enrollment-backend/internal/shared/auth"
	"enrollment-backend/internal/shared/telemetry"
)

const (
	defaultSettleDelay = 500 * time.Millisecond
	defaultPhoneRegion = "US"
	defaultStaleReads  = 3
)

// Options tune the service; zero values select defaults.
type Options struct {
	// SettleDelay is the remote's read-after-write window honored after
	// account linking, before the first snapshot fetch.
	SettleDelay time.Duration
	// PhoneRegion is the default country for phone numbers submitted without
	// a country code.
	PhoneRegion string
	// SessionTTL bounds how long an idle session survives.
	SessionTTL time.Duration
	// StaleReadAttempts is the read budget on the post-signature return
	// path, the one place staleness is expected.
	StaleReadAttempts int
}

// Service orchestrates the wizard: it owns the session registry and drives
// the gateway, consistency reader, and committer on behalf of the handler.
type Service struct {
	gw        gateway.Client
	reader    *Reader
	auth      authclient.Client
	committer *Committer
	sessions  *registry

	settle      time.Duration
	region      string
	staleBudget int
}

func NewService(gw gateway.Client, authc authclient.Client, signer *sharedauth.Signer, opts Options) *Service {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = defaultSettleDelay
	}
	if opts.PhoneRegion == "" {
		opts.PhoneRegion = defaultPhoneRegion
	}
	if opts.StaleReadAttempts < 1 {
		opts.StaleReadAttempts = defaultStaleReads
	}
	return &Service{
		gw:          gw,
		reader:      NewReader(gw),
		auth:        authc,
		committer:   NewCommitter(gw, signer),
		sessions:    newRegistry(opts.SessionTTL),
		settle:      opts.SettleDelay,
		region:      opts.PhoneRegion,
		staleBudget: opts.StaleReadAttempts,
	}
}

// View is what the UI renders: the derived step plus everything needed to
// draw the wizard.
type View struct {
	Step            Step            `json:"step"`
	Steps           []Step          `json:"steps"`
	Completion      Completion      `json:"completion"`
	Profile         gateway.Profile `json:"profile"`
	ExistingAccount bool            `json:"existingAccount"`
	Committed       bool            `json:"committed"`
}

func (s *Service) view(sess *Session) View {
	_, committed := sess.CommitOutcome()
	return View{
		Step:            sess.Shown(),
		Steps:           sess.Steps(),
		Completion:      sess.CompletionState(),
		Profile:         sess.Profile(),
		ExistingAccount: sess.Flags().ExistingAccount,
		Committed:       committed,
	}
}

// Begin creates or resumes the session for a token. For an authenticated
// caller the account link completes, including its settling delay, before
// the first snapshot fetch; otherwise that fetch can miss the link.
func (s *Service) Begin(ctx context.Context, token string, user *authclient.User) (View, error) {
	sess, err := s.ensure(ctx, token, user)
	if err != nil {
		return View{}, err
	}
	return s.view(sess), nil
}

func (s *Service) ensure(ctx context.Context, token string, user *authclient.User) (*Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}

	if sess, ok := s.sessions.get(token); ok {
		seq := sess.Seq()
		snap, err := s.reader.FetchSnapshot(ctx, token, FetchOptions{MaxAttempts: 1})
		switch {
		case err == nil:
			sess.Reconcile(seq, snap)
		case errors.Is(err, gateway.ErrExpired):
			s.sessions.drop(token)
			return nil, err
		default:
			// Best effort; the session already holds local state.
			telemetry.Error("enrollment.refresh.failed", map[string]any{"error": err.Error()})
		}
		return sess, nil
	}

	if user != nil {
		if err := s.gw.LinkAccount(ctx, token, s.settle); err != nil {
			return nil, err
		}
		telemetry.Info("enrollment.linked", map[string]any{"user_id": user.ID})
	}

	snap, err := s.reader.FetchSnapshot(ctx, token, FetchOptions{MaxAttempts: 1})
	if err != nil {
		return nil, err
	}

	sess := NewSession(token, snap)
	s.sessions.put(sess)
	return sess, nil
}

// Current returns the view for a live session without touching the remote.
func (s *Service) Current(token string) (View, error) {
	sess, ok := s.sessions.get(token)
	if !ok {
		return View{}, ErrSessionNotFound
	}
	return s.view(sess), nil
}

// SubmitProfile validates and records the profile step. Unless the caller is
// an authenticated returning owner, the email must not already belong to an
// account.
func (s *Service) SubmitProfile(ctx context.Context, token string, in ProfileInput, user *authclient.User) (View, error) {
	sess, ok := s.sessions.get(token)
	if !ok {
		return View{}, ErrSessionNotFound
	}
	if sess.Flags().ExistingAccount {
		return View{}, ErrStepNotApplicable
	}

	profile, verr := validateProfile(in, s.region)
	if verr != nil {
		return View{}, verr
	}

	if user == nil {
		exists, err := s.auth.EmailExists(ctx, profile.Email)
		if err != nil {
			return View{}, err
		}
		if exists {
			return View{}, ErrEmailExists
		}
	}

	sess.CompleteProfile(profile)
	return s.view(sess), nil
}

// StartSignature generates the provider envelope from the collected profile
// and returns the signing URL to redirect to. The call has side effects, so
// failures surface for a manual retry instead of being repeated silently.
func (s *Service) StartSignature(ctx context.Context, token string) (string, error) {
	sess, ok := s.sessions.get(token)
	if !ok {
		return "", ErrSessionNotFound
	}
	if !sess.Flags().RequiresSignature {
		return "", ErrStepNotApplicable
	}

	env, err := s.gw.RequestSignature(ctx, token, sess.Profile())
	if err != nil {
		return "", err
	}
	sess.AttachEnvelope(env.EnvelopeID)
	return env.SigningURL, nil
}

// PaymentURL returns the external payment page for the enrollment.
func (s *Service) PaymentURL(token string) (string, error) {
	sess, ok := s.sessions.get(token)
	if !ok {
		return "", ErrSessionNotFound
	}
	if !sess.Flags().PaymentRequired {
		return "", ErrStepNotApplicable
	}
	return sess.PaymentURL(), nil
}

// SubmitPassword validates and records the password step for new accounts.
// The password stays in memory until the terminal commit.
func (s *Service) SubmitPassword(token string, in PasswordInput) (View, error) {
	sess, ok := s.sessions.get(token)
	if !ok {
		return View{}, ErrSessionNotFound
	}
	if sess.Flags().ExistingAccount {
		return View{}, ErrStepNotApplicable
	}
	if verr := validatePassword(in); verr != nil {
		return View{}, verr
	}
	sess.CompletePassword(in.Password)
	return s.view(sess), nil
}

// HandleReturn processes the redirect back from an external provider. The
// armed resumption markers make the reconcile pass keep local completion
// state regardless of what a possibly stale snapshot claims.
func (s *Service) HandleReturn(ctx context.Context, token string, res Resumption, user *authclient.User) (View, error) {
	sess, err := s.ensure(ctx, token, user)
	if err != nil {
		return View{}, err
	}
	if !res.Active() {
		return s.view(sess), nil
	}

	if res.FromSignature {
		sess.ArmSignatureReturn()

		status, err := s.gw.SyncSignatureStatus(ctx, token)
		if err != nil {
			telemetry.Error("enrollment.signature.sync_failed", map[string]any{"error": err.Error()})
		} else if status == gateway.SignatureCompleted && sess.Shown() == StepSignature {
			sess.CompleteSignature()
		}

		// The webhook that ran before the redirect should have persisted
		// phone and address; read with the staleness-aware budget.
		seq := sess.Seq()
		snap, err := s.reader.FetchSnapshot(ctx, token, FetchOptions{
			MaxAttempts:   s.staleBudget,
			ExpectProfile: true,
		})
		if err == nil {
			sess.Reconcile(seq, snap)
		} else if errors.Is(err, gateway.ErrExpired) {
			s.sessions.drop(token)
			return View{}, err
		}
	}

	if res.FromPayment {
		sess.MarkPaymentReturned()

		seq := sess.Seq()
		snap, err := s.reader.FetchSnapshot(ctx, token, FetchOptions{MaxAttempts: 1})
		if err == nil {
			sess.Reconcile(seq, snap)
		}
	}

	return s.view(sess), nil
}

// Navigate moves the displayed step backward or forward among the applicable
// steps without touching completion state.
func (s *Service) Navigate(token, direction string) (View, error) {
	sess, ok := s.sessions.get(token)
	if !ok {
		return View{}, ErrSessionNotFound
	}
	switch direction {
	case "back":
		sess.NavigateBack()
	case "forward":
		if _, err := sess.NavigateForward(); err != nil {
			return View{}, err
		}
	default:
		return View{}, &ValidationError{Fields: map[string]string{"direction": "must be back or forward"}}
	}
	return s.view(sess), nil
}

// Commit performs the terminal write and decides the post-commit route.
func (s *Service) Commit(ctx context.Context, token string, user *authclient.User) (Outcome, error) {
	sess, ok := s.sessions.get(token)
	if !ok {
		return Outcome{}, ErrSessionNotFound
	}
	out, err := s.committer.Commit(ctx, sess, user != nil)
	if err != nil {
		return Outcome{}, err
	}
	telemetry.Info("enrollment.committed", map[string]any{
		"account_id": out.AccountID,
		"route":      out.Route,
	})
	return out, nil
}
