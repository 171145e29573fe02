package repository

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrOpenSessionExists is returned by OpenSession when the member
	// already has an open session in the guild.
	ErrOpenSessionExists = errors.New("an open session already exists for this member")
	// ErrNoOpenSession is returned by CloseOpenSession when the member has
	// no open session in the guild.
	ErrNoOpenSession = errors.New("no open session exists for this member")
)

type OpenSessionInput struct {
	GuildID     string
	UserID      string
	Sequence    int
	CheckinAt   time.Time
	CheckinDate string
}

type CloseSessionInput struct {
	GuildID      string
	UserID       string
	CheckoutAt   time.Time
	CheckoutDate string
}

type InsertAuditLogInput struct {
	GuildID string
	UserID  string
	Action  AuditAction
	At      time.Time
	AtDate  string
	AtTime  string
}

type SettingsRepository interface {
	// GetSettings returns the guild's settings row, creating a default row
	// with empty optional fields if none exists yet.
	GetSettings(ctx context.Context, guildID string) (*Settings, error)
	SetLogChannel(ctx context.Context, guildID, channelID string) error
	SetManagersRole(ctx context.Context, guildID, roleID string) error
}

type SessionRepository interface {
	// OpenSession inserts a new open session. At most one open session may
	// exist per (guild, member); a conflicting insert fails with
	// ErrOpenSessionExists and leaves the store unchanged.
	OpenSession(ctx context.Context, input OpenSessionInput) (*AttendanceSession, error)
	// CloseOpenSession closes the member's unique open session, computing
	// its duration, and folds the closed interval into the member's stats
	// aggregate in the same atomic unit. Returns ErrNoOpenSession when the
	// member has no open session.
	CloseOpenSession(ctx context.Context, input CloseSessionInput) (*AttendanceSession, error)
	// GetOpenSession returns the member's open session, or nil if none.
	GetOpenSession(ctx context.Context, guildID, userID string) (*AttendanceSession, error)
	// CountSessions counts all of the member's sessions in the guild, open
	// or closed. Sequence numbers are assigned from this count.
	CountSessions(ctx context.Context, guildID, userID string) (int, error)
	// SumClosedSessions groups the guild's closed sessions whose checkout
	// date falls within [fromDate, toDate] by member. Order is unspecified.
	SumClosedSessions(ctx context.Context, guildID, fromDate, toDate string) ([]MemberTotal, error)
}

type StatsRepository interface {
	// ListGuildStats returns the guild's all-time per-member aggregates.
	// Order is unspecified.
	ListGuildStats(ctx context.Context, guildID string) ([]MemberTotal, error)
}

type AuditRepository interface {
	InsertAuditLog(ctx context.Context, input InsertAuditLogInput) error
}

type Repository interface {
	SettingsRepository
	SessionRepository
	StatsRepository
	AuditRepository
}
