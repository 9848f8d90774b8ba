package enrollment

import (
	"context"

	"enrollment-backend/internal/gateway"
	sharedauth "enrollment-backend/internal/shared/auth"
)

// Post-commit destinations. A returning user who is already signed in goes
// straight to the app instead of through a redundant login screen.
const (
	RouteApp    = "app"
	RouteSignin = "signin"
)

// Outcome is the result of the terminal commit plus where to send the user.
type Outcome struct {
	AccountID    string `json:"accountId"`
	Route        string `json:"route"`
	SigninEmail  string `json:"signinEmail,omitempty"`
	SessionToken string `json:"sessionToken,omitempty"`
}

// Committer performs the single terminal write that finalizes an enrollment
// from the session's accumulated in-memory data.
type Committer struct {
	gw     gateway.Client
	signer *sharedauth.Signer
}

func NewCommitter(gw gateway.Client, signer *sharedauth.Signer) *Committer {
	return &Committer{gw: gw, signer: signer}
}

// Commit finalizes the enrollment at most once per session: a repeat call
// returns the recorded outcome without touching the remote. On failure the
// session keeps all entered data so the user can retry without re-entering
// anything.
func (c *Committer) Commit(ctx context.Context, sess *Session, authed bool) (Outcome, error) {
	sess.commitMu.Lock()
	defer sess.commitMu.Unlock()

	if out, ok := sess.CommitOutcome(); ok {
		return out, nil
	}

	payload, err := sess.commitPayload()
	if err != nil {
		return Outcome{}, err
	}

	res, err := c.gw.Commit(ctx, sess.Token(), payload)
	if err != nil {
		return Outcome{}, err
	}

	flags := sess.Flags()
	profile := sess.Profile()

	out := Outcome{AccountID: res.AccountID}
	switch {
	case !flags.ExistingAccount:
		out.Route = RouteApp
		out.SessionToken = res.SessionToken
		if out.SessionToken == "" && c.signer != nil {
			token, err := c.signer.Sign(sharedauth.Claims{
				Sub:   res.AccountID,
				Email: profile.Email,
				Name:  profile.FirstName + " " + profile.LastName,
			})
			if err == nil {
				out.SessionToken = token
			}
		}
	case authed:
		out.Route = RouteApp
	default:
		out.Route = RouteSignin
		out.SigninEmail = profile.Email
	}

	sess.recordOutcome(out)
	return out, nil
}
