package attendance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dawamlab/dawam/internal/clock"
	"github.com/dawamlab/dawam/internal/repository"
	"github.com/im7mortal/kmutex"
)

// Engine owns the per-(guild, member) check-in/check-out state machine. It is
// the sole writer of session and stats rows. Each transition runs under a
// keyed lock so the read-then-write sequence is a single atomic unit per
// member; the storage layer's partial unique index on open sessions backstops
// the same invariant across processes.
type Engine struct {
	repo repository.Repository
	cal  *clock.Calendar
	keys *kmutex.Kmutex
}

func NewEngine(repo repository.Repository, cal *clock.Calendar) *Engine {
	return &Engine{
		repo: repo,
		cal:  cal,
		keys: kmutex.New(),
	}
}

// MemberStatus is the side-effect-free view of a member's current state.
type MemberStatus struct {
	CheckedIn bool
	Sequence  int
	CheckinAt time.Time
	Elapsed   time.Duration
}

func transitionKey(guildID, userID string) string {
	return guildID + ":" + userID
}

// CheckIn opens a new session for the member. The sequence number counts all
// of the member's prior sessions in the guild, open or abandoned included,
// plus one. A member with an open session gets ErrAlreadyCheckedIn.
func (e *Engine) CheckIn(ctx context.Context, guildID, userID string) (*repository.AttendanceSession, error) {
	key := transitionKey(guildID, userID)
	e.keys.Lock(key)
	defer e.keys.Unlock(key)

	open, err := e.repo.GetOpenSession(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, ErrAlreadyCheckedIn
	}

	count, err := e.repo.CountSessions(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}

	now := e.cal.Now()
	s, err := e.repo.OpenSession(ctx, repository.OpenSessionInput{
		GuildID:     guildID,
		UserID:      userID,
		Sequence:    count + 1,
		CheckinAt:   now,
		CheckinDate: e.cal.DateOf(now),
	})
	if err != nil {
		if errors.Is(err, repository.ErrOpenSessionExists) {
			// Lost a cross-process race on the open-session index.
			return nil, ErrAlreadyCheckedIn
		}
		return nil, err
	}
	slog.Info("session opened", "guild_id", guildID, "user_id", userID, "session_id", s.ID, "seq", s.Sequence)
	return s, nil
}

// CheckOut closes the member's open session and folds its duration into the
// member's running totals. A member with no open session gets ErrNoOpenSession.
func (e *Engine) CheckOut(ctx context.Context, guildID, userID string) (*repository.AttendanceSession, error) {
	key := transitionKey(guildID, userID)
	e.keys.Lock(key)
	defer e.keys.Unlock(key)

	now := e.cal.Now()
	s, err := e.repo.CloseOpenSession(ctx, repository.CloseSessionInput{
		GuildID:      guildID,
		UserID:       userID,
		CheckoutAt:   now,
		CheckoutDate: e.cal.DateOf(now),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNoOpenSession) {
			return nil, ErrNoOpenSession
		}
		return nil, err
	}
	slog.Info("session closed", "guild_id", guildID, "user_id", userID, "session_id", s.ID, "seq", s.Sequence, "duration", s.Duration)
	return s, nil
}

// Status reports the member's current state without side effects. As a
// read-only query it is retried once on storage errors.
func (e *Engine) Status(ctx context.Context, guildID, userID string) (*MemberStatus, error) {
	open, err := e.repo.GetOpenSession(ctx, guildID, userID)
	if err != nil {
		slog.Warn("open session query failed, retrying once", "error", err, "guild_id", guildID, "user_id", userID)
		open, err = e.repo.GetOpenSession(ctx, guildID, userID)
		if err != nil {
			return nil, err
		}
	}
	if open == nil {
		return &MemberStatus{}, nil
	}
	elapsed := e.cal.Now().Sub(open.CheckinAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return &MemberStatus{
		CheckedIn: true,
		Sequence:  open.Sequence,
		CheckinAt: open.CheckinAt,
		Elapsed:   elapsed,
	}, nil
}
