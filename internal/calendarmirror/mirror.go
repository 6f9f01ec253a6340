// Package calendarmirror reflects committed CalendarBlock changes to an
// external calendar provider, treating external-owned blocks as read-only.
package calendarmirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/hawlion/ai-planner/internal/domain"
)

// AuthError indicates the mirror's credentials are missing or invalid.
type AuthError struct{ Err error }

func (e *AuthError) Error() string { return fmt.Sprintf("mirror auth error: %v", e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// ApiError indicates the remote provider rejected a request.
type ApiError struct {
	StatusCode int
	Err        error
}

func (e *ApiError) Error() string { return fmt.Sprintf("mirror api error (status %d): %v", e.StatusCode, e.Err) }
func (e *ApiError) Unwrap() error { return e.Err }

// GraphClient is the thin transport the mirror drives; spec.md scopes the
// actual wire protocol as an external collaborator, so this is a narrow
// interface any provider (Microsoft Graph, Google Calendar, ...) can
// implement and tests can fake.
type GraphClient interface {
	IsConnected(ctx context.Context) bool
	// CreateOrUpdate pushes block keyed by a deterministic transactionID,
	// returning the remote event id.
	CreateOrUpdate(ctx context.Context, block domain.CalendarBlock, transactionID string) (eventID string, err error)
	Delete(ctx context.Context, eventID string) error
}

// IdempotencyLedger records which transaction ids have already been pushed,
// so repeated mirror(blocks) calls yield the same set of remote events. The
// redis-backed implementation lives in internal/calendarmirror/ledger.go;
// this interface lets tests substitute an in-process map.
type IdempotencyLedger interface {
	Seen(ctx context.Context, transactionID string) (bool, error)
	Mark(ctx context.Context, transactionID string) error
}

// ThrottleRecorder exposes SyncStatus 429 bookkeeping so the mirror can
// update last_throttle_at/recent_throttle_count as it retries.
type ThrottleRecorder interface {
	RecordThrottle(ctx context.Context, at time.Time) error
	RecordSuccess(ctx context.Context, at time.Time) error
}

// MaxBackoffAttempts bounds retried 429 responses per spec's "bounded
// exponential backoff on 429 (up to 4 attempts)".
const MaxBackoffAttempts = 4

// MetricsRecorder is the narrow surface internal/metrics implements for
// mirror push/throttle counters; declared here rather than imported to
// avoid a dependency cycle with internal/metrics.
type MetricsRecorder interface {
	ObserveMirrorPush(success bool)
	ObserveMirrorThrottle()
}

// Mirror reflects local CalendarBlock state to GraphClient, idempotent on
// transaction id and rate-limited ahead of the reactive 429 backoff.
type Mirror struct {
	client  GraphClient
	ledger  IdempotencyLedger
	status  ThrottleRecorder
	limiter *rate.Limiter
	metrics MetricsRecorder
}

// NewMirror constructs a Mirror. limiter may be nil to disable pre-emptive
// throttling (backoff on actual 429s still applies).
func NewMirror(client GraphClient, ledger IdempotencyLedger, status ThrottleRecorder, limiter *rate.Limiter) *Mirror {
	return &Mirror{client: client, ledger: ledger, status: status, limiter: limiter}
}

// SetMetrics attaches a MetricsRecorder; nil disables metrics recording.
func (m *Mirror) SetMetrics(metrics MetricsRecorder) {
	m.metrics = metrics
}

// MirrorResult tallies the outcome of a batch mirror() call.
type MirrorResult struct {
	Created []string // block ids
	Updated []string
	Skipped []string
}

// IsConnected reports whether the mirror provider is reachable and
// authorized.
func (m *Mirror) IsConnected(ctx context.Context) bool {
	return m.client.IsConnected(ctx)
}

// Mirror pushes each block to the external calendar, skipping any with
// source==external. Each push is keyed by a deterministic per-block
// transaction id so repeated calls are idempotent (mirror(blocks) followed
// by mirror(blocks) yields the same remote event set).
func (m *Mirror) Mirror(ctx context.Context, blocks []domain.CalendarBlock) (MirrorResult, error) {
	var result MirrorResult
	for _, b := range blocks {
		if b.IsExternal() {
			result.Skipped = append(result.Skipped, b.ID)
			continue
		}
		txID := transactionID(b)
		if m.ledger != nil {
			seen, err := m.ledger.Seen(ctx, txID)
			if err != nil {
				return result, fmt.Errorf("mirror: ledger lookup: %w", err)
			}
			if seen {
				result.Updated = append(result.Updated, b.ID)
				continue
			}
		}

		if err := m.throttle(ctx); err != nil {
			return result, err
		}

		_, err := m.pushWithBackoff(ctx, b, txID)
		if err != nil {
			return result, err
		}
		if m.ledger != nil {
			if err := m.ledger.Mark(ctx, txID); err != nil {
				return result, fmt.Errorf("mirror: ledger mark: %w", err)
			}
		}
		result.Created = append(result.Created, b.ID)
	}
	return result, nil
}

// Delete removes blocks remotely; any failure here is fatal to the caller
// (local deletion must not orphan a remote copy).
func (m *Mirror) Delete(ctx context.Context, blocks []domain.CalendarBlock) (deleted []string, failed []string, err error) {
	for _, b := range blocks {
		if b.ExternalEventID == nil {
			continue
		}
		if derr := m.client.Delete(ctx, *b.ExternalEventID); derr != nil {
			var apiErr *ApiError
			if errors.As(derr, &apiErr) && apiErr.StatusCode == 404 {
				deleted = append(deleted, b.ID) // 404-as-success
				continue
			}
			failed = append(failed, b.ID)
			return deleted, failed, fmt.Errorf("mirror delete %s: %w", b.ID, derr)
		}
		deleted = append(deleted, b.ID)
	}
	return deleted, failed, nil
}

func (m *Mirror) throttle(ctx context.Context) error {
	if m.limiter == nil {
		return nil
	}
	return m.limiter.Wait(ctx)
}

func (m *Mirror) pushWithBackoff(ctx context.Context, block domain.CalendarBlock, txID string) (string, error) {
	backoff := time.Second
	for attempt := 0; attempt < MaxBackoffAttempts; attempt++ {
		eventID, err := m.client.CreateOrUpdate(ctx, block, txID)
		if err == nil {
			if m.status != nil {
				_ = m.status.RecordSuccess(ctx, time.Now().UTC())
			}
			if m.metrics != nil {
				m.metrics.ObserveMirrorPush(true)
			}
			return eventID, nil
		}

		var apiErr *ApiError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 429 {
			if m.status != nil {
				_ = m.status.RecordThrottle(ctx, time.Now().UTC())
			}
			if m.metrics != nil {
				m.metrics.ObserveMirrorThrottle()
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			backoff *= 2
			continue
		}
		if m.metrics != nil {
			m.metrics.ObserveMirrorPush(false)
		}
		return "", fmt.Errorf("mirror push %s: %w", block.ID, err)
	}
	if m.metrics != nil {
		m.metrics.ObserveMirrorPush(false)
	}
	return "", fmt.Errorf("mirror push %s: %w", block.ID, &ApiError{StatusCode: 429, Err: errors.New("throttled after max attempts")})
}

// transactionID is deterministic per block so retries are idempotent: same
// block id and version always yields the same transaction id.
func transactionID(b domain.CalendarBlock) string {
	return fmt.Sprintf("block-%s-v%d", b.ID, b.Version)
}
