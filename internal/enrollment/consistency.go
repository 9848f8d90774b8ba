package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"enrollment-backend/internal/gateway"
	"enrollment-backend/internal/shared/telemetry"
)

const (
	retryBaseInterval = 500 * time.Millisecond
	retryMaxInterval  = 10 * time.Second
)

// FetchOptions tune one snapshot read.
type FetchOptions struct {
	// MaxAttempts bounds the read budget; values below 1 mean a single
	// attempt.
	MaxAttempts int
	// ExpectProfile arms the staleness heuristic: on the post-signature
	// return path the provider webhook has already persisted phone and
	// address, so a snapshot missing them is a cached pre-write read.
	ExpectProfile bool
}

// Reader wraps gateway reads with staleness detection and a bounded
// exponential-backoff retry. On exhausting the budget while still stale it
// returns the last snapshot anyway; callers proceed with whatever the session
// already holds rather than blocking the flow.
type Reader struct {
	gw gateway.Client

	// wait is replaced in tests to observe the backoff schedule.
	wait func(ctx context.Context, d time.Duration) error
}

func NewReader(gw gateway.Client) *Reader {
	return &Reader{
		gw:   gw,
		wait: sleep,
	}
}

// FetchSnapshot reads the enrollment snapshot, retrying stale or failed reads
// at 500ms, 1s, 2s, ... capped at 10s per attempt, up to the caller's budget.
// ErrExpired is terminal and surfaced immediately, never retried.
func (r *Reader) FetchSnapshot(ctx context.Context, token string, opts FetchOptions) (gateway.Snapshot, error) {
	attempts := opts.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryBaseInterval
	bo.Multiplier = 2
	bo.MaxInterval = retryMaxInterval
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()

	var (
		last     gateway.Snapshot
		haveLast bool
		lastErr  error
	)

	for attempt := 1; attempt <= attempts; attempt++ {
		snap, err := r.gw.Status(ctx, token)
		switch {
		case err == nil:
			if !opts.ExpectProfile || !snapshotStale(snap) {
				return snap, nil
			}
			last, haveLast = snap, true
			lastErr = nil
		case errors.Is(err, gateway.ErrExpired):
			return gateway.Snapshot{}, err
		case ctx.Err() != nil:
			return gateway.Snapshot{}, ctx.Err()
		default:
			lastErr = err
		}

		if attempt == attempts {
			break
		}
		delay := bo.NextBackOff()
		telemetry.Info("enrollment.snapshot.retry", map[string]any{
			"attempt":  attempt,
			"delay_ms": delay.Milliseconds(),
			"stale":    lastErr == nil,
		})
		if err := r.wait(ctx, delay); err != nil {
			return gateway.Snapshot{}, err
		}
	}

	if haveLast {
		// Best effort: still stale after the budget, hand back what we got.
		return last, nil
	}
	if lastErr != nil {
		return gateway.Snapshot{}, fmt.Errorf("enrollment: fetch snapshot: %w", lastErr)
	}
	return gateway.Snapshot{}, fmt.Errorf("enrollment: fetch snapshot: %w", gateway.ErrUnavailable)
}

// snapshotStale reports the known read-after-write symptom: the webhook that
// fired before the signature redirect has persisted phone and address, so a
// snapshot without them came from a cached pre-write read.
func snapshotStale(snap gateway.Snapshot) bool {
	return snap.Profile.Phone == "" || snap.Profile.Address == ""
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
