package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dawamlab/dawam/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) GetSettings(ctx context.Context, guildID string) (*repository.Settings, error) {
	s, err := r.selectSettings(ctx, guildID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	// Lazily create the default row; a concurrent creator wins harmlessly.
	_, err = r.pool.Exec(ctx,
		`INSERT INTO settings (guild_id, log_channel_id, managers_role_id)
		 VALUES ($1, NULL, NULL)
		 ON CONFLICT (guild_id) DO NOTHING`,
		guildID)
	if err != nil {
		return nil, err
	}
	return r.selectSettings(ctx, guildID)
}

func (r *PostgresRepository) selectSettings(ctx context.Context, guildID string) (*repository.Settings, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT guild_id, COALESCE(log_channel_id, ''), COALESCE(managers_role_id, '')
		 FROM settings WHERE guild_id = $1`,
		guildID)
	var s repository.Settings
	if err := row.Scan(&s.GuildID, &s.LogChannelID, &s.ManagersRoleID); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) SetLogChannel(ctx context.Context, guildID, channelID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO settings (guild_id, log_channel_id) VALUES ($1, $2)
		 ON CONFLICT (guild_id) DO UPDATE SET log_channel_id = EXCLUDED.log_channel_id`,
		guildID, channelID)
	return err
}

func (r *PostgresRepository) SetManagersRole(ctx context.Context, guildID, roleID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO settings (guild_id, managers_role_id) VALUES ($1, $2)
		 ON CONFLICT (guild_id) DO UPDATE SET managers_role_id = EXCLUDED.managers_role_id`,
		guildID, roleID)
	return err
}

func (r *PostgresRepository) OpenSession(ctx context.Context, input repository.OpenSessionInput) (*repository.AttendanceSession, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO attendance_sessions (guild_id, user_id, seq, checkin_at, checkin_date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		input.GuildID, input.UserID, input.Sequence, input.CheckinAt, input.CheckinDate)
	var id int64
	if err := row.Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrOpenSessionExists
		}
		return nil, err
	}
	return &repository.AttendanceSession{
		ID:          id,
		GuildID:     input.GuildID,
		UserID:      input.UserID,
		Sequence:    input.Sequence,
		CheckinAt:   input.CheckinAt,
		CheckinDate: input.CheckinDate,
	}, nil
}

func (r *PostgresRepository) CloseOpenSession(ctx context.Context, input repository.CloseSessionInput) (*repository.AttendanceSession, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx,
		`UPDATE attendance_sessions
		 SET checkout_at = $3,
		     checkout_date = $4,
		     duration_ms = GREATEST(0, (EXTRACT(EPOCH FROM ($3::timestamptz - checkin_at)) * 1000))::BIGINT
		 WHERE guild_id = $1 AND user_id = $2 AND checkout_at IS NULL
		 RETURNING id, seq, checkin_at, checkin_date, duration_ms`,
		input.GuildID, input.UserID, input.CheckoutAt, input.CheckoutDate)

	s := repository.AttendanceSession{
		GuildID:      input.GuildID,
		UserID:       input.UserID,
		CheckoutDate: input.CheckoutDate,
	}
	checkoutAt := input.CheckoutAt
	s.CheckoutAt = &checkoutAt
	var durationMS int64
	if err := row.Scan(&s.ID, &s.Sequence, &s.CheckinAt, &s.CheckinDate, &durationMS); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNoOpenSession
		}
		return nil, err
	}
	s.Duration = time.Duration(durationMS) * time.Millisecond

	_, err = tx.Exec(ctx,
		`INSERT INTO attendance_stats (guild_id, user_id, total_duration_ms, total_entries)
		 VALUES ($1, $2, $3, 1)
		 ON CONFLICT (guild_id, user_id) DO UPDATE
		 SET total_duration_ms = attendance_stats.total_duration_ms + EXCLUDED.total_duration_ms,
		     total_entries = attendance_stats.total_entries + 1`,
		input.GuildID, input.UserID, durationMS)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) GetOpenSession(ctx context.Context, guildID, userID string) (*repository.AttendanceSession, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, seq, checkin_at, checkin_date
		 FROM attendance_sessions
		 WHERE guild_id = $1 AND user_id = $2 AND checkout_at IS NULL`,
		guildID, userID)
	s := repository.AttendanceSession{GuildID: guildID, UserID: userID}
	if err := row.Scan(&s.ID, &s.Sequence, &s.CheckinAt, &s.CheckinDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) CountSessions(ctx context.Context, guildID, userID string) (int, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attendance_sessions WHERE guild_id = $1 AND user_id = $2`,
		guildID, userID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) SumClosedSessions(ctx context.Context, guildID, fromDate, toDate string) ([]repository.MemberTotal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, SUM(duration_ms), COUNT(*)
		 FROM attendance_sessions
		 WHERE guild_id = $1 AND checkout_at IS NOT NULL AND checkout_date BETWEEN $2 AND $3
		 GROUP BY user_id`,
		guildID, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMemberTotals(rows)
}

func (r *PostgresRepository) ListGuildStats(ctx context.Context, guildID string) ([]repository.MemberTotal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, total_duration_ms, total_entries
		 FROM attendance_stats WHERE guild_id = $1`,
		guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMemberTotals(rows)
}

func (r *PostgresRepository) InsertAuditLog(ctx context.Context, input repository.InsertAuditLogInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_logs (guild_id, user_id, action, at, at_date, at_time)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		input.GuildID, input.UserID, string(input.Action), input.At, input.AtDate, input.AtTime)
	return err
}

func scanMemberTotals(rows pgx.Rows) ([]repository.MemberTotal, error) {
	var list []repository.MemberTotal
	for rows.Next() {
		var mt repository.MemberTotal
		var durationMS int64
		if err := rows.Scan(&mt.UserID, &durationMS, &mt.Entries); err != nil {
			return nil, err
		}
		mt.Total = time.Duration(durationMS) * time.Millisecond
		list = append(list, mt)
	}
	return list, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
