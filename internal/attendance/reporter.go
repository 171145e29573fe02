package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dawamlab/dawam/internal/clock"
	"github.com/dawamlab/dawam/internal/repository"
)

type Range string

const (
	RangeAllTime Range = "all"
	RangeDay     Range = "day"
	RangeWeek    Range = "week"
	RangeMonth   Range = "month"
)

func ParseRange(s string) (Range, error) {
	switch Range(s) {
	case RangeAllTime, RangeDay, RangeWeek, RangeMonth:
		return Range(s), nil
	}
	return "", fmt.Errorf("unknown range %q", s)
}

// trailingDays is the number of days before today included in the window.
func (r Range) trailingDays() int {
	switch r {
	case RangeWeek:
		return 6
	case RangeMonth:
		return 29
	default:
		return 0
	}
}

// Reporter computes ranked leaderboard rows. It only reads; all-time rows
// come from the stats aggregate, dated windows from closed sessions bucketed
// by checkout date.
type Reporter struct {
	repo repository.Repository
	cal  *clock.Calendar
}

func NewReporter(repo repository.Repository, cal *clock.Calendar) *Reporter {
	return &Reporter{repo: repo, cal: cal}
}

// Leaderboard returns the guild's full ranked rows for the window, longest
// total first, ties broken by higher entry count. Truncation to a display
// limit is the caller's concern. An empty window yields an empty slice.
func (r *Reporter) Leaderboard(ctx context.Context, guildID string, rng Range) ([]repository.MemberTotal, error) {
	rows, err := r.collect(ctx, guildID, rng)
	if err != nil {
		slog.Warn("leaderboard query failed, retrying once", "error", err, "guild_id", guildID, "range", rng)
		rows, err = r.collect(ctx, guildID, rng)
		if err != nil {
			return nil, err
		}
	}
	rank(rows)
	return rows, nil
}

func (r *Reporter) collect(ctx context.Context, guildID string, rng Range) ([]repository.MemberTotal, error) {
	if rng == RangeAllTime {
		return r.repo.ListGuildStats(ctx, guildID)
	}
	from, to := r.cal.DateWindow(rng.trailingDays())
	return r.repo.SumClosedSessions(ctx, guildID, from, to)
}

// rank orders by duration desc, then entry count desc. The sort is stable so
// full ties keep their incoming order.
func rank(rows []repository.MemberTotal) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].Entries > rows[j].Entries
	})
}
