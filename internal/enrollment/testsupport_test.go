package enrollment

import (
	"context"
	"sync"
	"time"

	"enrollment-backend/internal/authclient"
	"enrollment-backend/internal/gateway"
)

type statusReply struct {
	snap gateway.Snapshot
	err  error
}

// fakeGateway records calls in order and serves queued status replies; the
// last reply repeats once the queue drains.
type fakeGateway struct {
	mu sync.Mutex

	statusQueue []statusReply
	lastStatus  statusReply

	calls      []string
	linkSettle time.Duration
	linkErr    error

	envelope   gateway.Envelope
	requestErr error

	syncStatus gateway.SignatureStatus
	syncErr    error

	commitResult gateway.CommitResult
	commitErr    error
	commits      []gateway.CommitPayload
}

func (f *fakeGateway) pushStatus(snap gateway.Snapshot, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusQueue = append(f.statusQueue, statusReply{snap: snap, err: err})
}

func (f *fakeGateway) record(op string) {
	f.calls = append(f.calls, op)
}

func (f *fakeGateway) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeGateway) Status(ctx context.Context, token string) (gateway.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("status")
	if len(f.statusQueue) > 0 {
		f.lastStatus = f.statusQueue[0]
		f.statusQueue = f.statusQueue[1:]
	}
	return f.lastStatus.snap, f.lastStatus.err
}

func (f *fakeGateway) LinkAccount(ctx context.Context, token string, settle time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("link")
	f.linkSettle = settle
	return f.linkErr
}

func (f *fakeGateway) RequestSignature(ctx context.Context, token string, profile gateway.Profile) (gateway.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("signature")
	return f.envelope, f.requestErr
}

func (f *fakeGateway) SyncSignatureStatus(ctx context.Context, token string) (gateway.SignatureStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("sync")
	return f.syncStatus, f.syncErr
}

func (f *fakeGateway) Commit(ctx context.Context, token string, payload gateway.CommitPayload) (gateway.CommitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("commit")
	f.commits = append(f.commits, payload)
	return f.commitResult, f.commitErr
}

// fakeAuth satisfies authclient.Client for service tests.
type fakeAuth struct {
	mu          sync.Mutex
	user        *authclient.User
	exists      bool
	existsErr   error
	emailChecks int
}

func (f *fakeAuth) CurrentUser(ctx context.Context, bearer string) (*authclient.User, error) {
	return f.user, nil
}

func (f *fakeAuth) EmailExists(ctx context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emailChecks++
	return f.exists, f.existsErr
}

// freshSnapshot is a snapshot with fully persisted profile fields, so the
// staleness heuristic does not fire.
func freshSnapshot() gateway.Snapshot {
	return gateway.Snapshot{
		SignatureRequired: true,
		SignatureStatus:   gateway.SignaturePending,
		PaymentRequired:   true,
		PaymentURL:        "https://pay.example.com/p/abc",
		Profile: gateway.Profile{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
			Phone:     "+12025550123",
			Address:   "12 Analytical Way",
		},
	}
}

// noWait replaces the reader's backoff sleep and records requested delays.
func noWait(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}
