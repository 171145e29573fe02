package repository

import "time"

// Settings holds per-guild configuration. A row is created lazily on first
// read with both optional fields empty; rows are never deleted.
type Settings struct {
	GuildID        string
	LogChannelID   string
	ManagersRoleID string
}

// AttendanceSession is one presence interval. CheckoutAt nil means the
// session is still open; Duration is set iff CheckoutAt is set.
type AttendanceSession struct {
	ID           int64
	GuildID      string
	UserID       string
	Sequence     int
	CheckinAt    time.Time
	CheckoutAt   *time.Time
	Duration     time.Duration
	CheckinDate  string
	CheckoutDate string
}

func (s *AttendanceSession) IsOpen() bool {
	return s.CheckoutAt == nil
}

// MemberTotal is one leaderboard row: a member's summed presence duration
// and completed-session count.
type MemberTotal struct {
	UserID  string
	Total   time.Duration
	Entries int
}

type AuditAction string

const (
	AuditActionCheckIn  AuditAction = "checkin"
	AuditActionCheckOut AuditAction = "checkout"
)

// AuditLog is one append-only trail row for a recorded state transition.
type AuditLog struct {
	ID      int64
	GuildID string
	UserID  string
	Action  AuditAction
	At      time.Time
	AtDate  string
	AtTime  string
}
