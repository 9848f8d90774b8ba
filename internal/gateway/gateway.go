package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SignatureStatus is the remote's view of the e-signature envelope.
type SignatureStatus string

const (
	SignaturePending   SignatureStatus = "pending"
	SignatureCompleted SignatureStatus = "completed"
)

// Profile holds the enrollee contact fields exchanged with the remote.
type Profile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// Snapshot is a point-in-time read of the enrollment record. It is advisory:
// the remote may serve a pre-write snapshot for a short window after a
// provider webhook lands.
type Snapshot struct {
	AccountID         string          `json:"accountId"`
	SignatureRequired bool            `json:"signatureRequired"`
	SignatureStatus   SignatureStatus `json:"signatureStatus"`
	PaymentRequired   bool            `json:"paymentRequired"`
	PaymentComplete   bool            `json:"paymentComplete"`
	PaymentURL        string          `json:"paymentUrl"`
	Profile           Profile         `json:"profile"`
}

// Envelope identifies a document routed for signature and where to sign it.
type Envelope struct {
	EnvelopeID string `json:"envelopeId"`
	SigningURL string `json:"signingUrl"`
}

// CommitPayload is the terminal write finalizing an enrollment. Password is
// only set when the commit creates a new account.
type CommitPayload struct {
	Profile        Profile `json:"profile"`
	EnvelopeID     string  `json:"envelopeId,omitempty"`
	Password       string  `json:"password,omitempty"`
	IdempotencyKey string  `json:"-"`
}

// CommitResult is the remote's answer to a successful commit. SessionToken is
// present only when the commit created the account.
type CommitResult struct {
	AccountID    string `json:"accountId"`
	SessionToken string `json:"sessionToken,omitempty"`
}

// Client is the surface of the remote enrollment system of record. All calls
// are keyed by the opaque enrollment token rather than account identity so
// the flow works for unauthenticated guests.
type Client interface {
	// Status fetches the current enrollment snapshot.
	Status(ctx context.Context, token string) (Snapshot, error)
	// LinkAccount binds the authenticated browser user to the enrollment and
	// then waits out the remote's read-after-write settling window so the
	// next Status read observes the link.
	LinkAccount(ctx context.Context, token string, settle time.Duration) error
	// RequestSignature generates a provider envelope populated with the
	// collected profile and returns the URL to redirect the signer to.
	RequestSignature(ctx context.Context, token string, profile Profile) (Envelope, error)
	// SyncSignatureStatus asks the remote to refresh the envelope state from
	// the provider, without waiting for the asynchronous webhook.
	SyncSignatureStatus(ctx context.Context, token string) (SignatureStatus, error)
	// Commit performs the terminal write that activates the enrollment.
	Commit(ctx context.Context, token string, payload CommitPayload) (CommitResult, error)
}

var (
	// ErrExpired means the remote reported the enrollment link as expired.
	// Terminal; never retried.
	ErrExpired = errors.New("gateway: enrollment link expired")
	// ErrUnavailable covers transport failures and remote 5xx answers.
	ErrUnavailable = errors.New("gateway: remote unavailable")
)

// RejectedError carries the remote's verbatim reason for refusing a commit.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("gateway: commit rejected: %s", e.Reason)
}
