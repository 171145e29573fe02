package attendance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dawamlab/dawam/internal/clock"
	"github.com/dawamlab/dawam/internal/discord"
	"github.com/dawamlab/dawam/internal/repository"
)

const (
	auditColorCheckIn  = 0x57F287
	auditColorCheckOut = 0xED4245
)

// Auditor records state transitions: an append-only audit row first, then an
// embed to the guild's configured log channel. No log channel configured is a
// silent no-op, and no failure here ever reaches the acting member.
type Auditor struct {
	repo repository.Repository
	dc   discord.Client
	cal  *clock.Calendar
}

func NewAuditor(repo repository.Repository, dc discord.Client, cal *clock.Calendar) *Auditor {
	return &Auditor{repo: repo, dc: dc, cal: cal}
}

func (a *Auditor) RecordCheckIn(ctx context.Context, s *repository.AttendanceSession) {
	a.record(ctx, repository.AuditActionCheckIn, s)
}

func (a *Auditor) RecordCheckOut(ctx context.Context, s *repository.AttendanceSession) {
	a.record(ctx, repository.AuditActionCheckOut, s)
}

func (a *Auditor) record(ctx context.Context, action repository.AuditAction, s *repository.AttendanceSession) {
	at := s.CheckinAt
	if action == repository.AuditActionCheckOut && s.CheckoutAt != nil {
		at = *s.CheckoutAt
	}
	atDate := a.cal.DateOf(at)
	atTime := a.cal.TimeOf(at)

	if err := a.repo.InsertAuditLog(ctx, repository.InsertAuditLogInput{
		GuildID: s.GuildID,
		UserID:  s.UserID,
		Action:  action,
		At:      at,
		AtDate:  atDate,
		AtTime:  atTime,
	}); err != nil {
		slog.Error("failed to insert audit log", "error", err, "guild_id", s.GuildID, "user_id", s.UserID, "action", action)
	}

	settings, err := a.repo.GetSettings(ctx, s.GuildID)
	if err != nil {
		slog.Warn("failed to load settings for audit notification", "error", err, "guild_id", s.GuildID)
		return
	}
	if settings.LogChannelID == "" {
		return
	}
	embed := buildAuditEmbed(action, s, atDate, atTime)
	if err := a.dc.SendChannelEmbed(settings.LogChannelID, embed); err != nil {
		slog.Warn("failed to deliver audit notification", "error", err, "guild_id", s.GuildID, "channel_id", settings.LogChannelID)
	}
}

func buildAuditEmbed(action repository.AuditAction, s *repository.AttendanceSession, atDate, atTime string) discord.Embed {
	embed := discord.Embed{
		Fields: []discord.EmbedField{
			{Name: "Member", Value: fmt.Sprintf("<@%s>", s.UserID), Inline: true},
			{Name: "Session", Value: fmt.Sprintf("#%d", s.Sequence), Inline: true},
			{Name: "Date", Value: atDate, Inline: true},
			{Name: "Time", Value: atTime, Inline: true},
		},
	}
	if action == repository.AuditActionCheckOut {
		embed.Title = auditTitleCheckOut
		embed.Color = auditColorCheckOut
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:   "Duration",
			Value:  formatDuration(s.Duration),
			Inline: true,
		})
	} else {
		embed.Title = auditTitleCheckIn
		embed.Color = auditColorCheckIn
	}
	return embed
}
