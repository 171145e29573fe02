package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dawamlab/dawam/internal/clock"
	"github.com/dawamlab/dawam/internal/config"
	"github.com/dawamlab/dawam/internal/discord"
	"github.com/dawamlab/dawam/internal/repository"
)

// Manager dispatches inbound gateway interactions: it authorizes, calls the
// engine or reporter, renders the reply, and hands successful transitions to
// the auditor. It never surfaces raw errors to members.
type Manager struct {
	cfg      *config.Config
	repo     repository.Repository
	engine   *Engine
	reporter *Reporter
	auditor  *Auditor
	dc       discord.Client
	cal      *clock.Calendar
}

func NewManager(cfg *config.Config, repo repository.Repository, engine *Engine, reporter *Reporter, auditor *Auditor, dc discord.Client, cal *clock.Calendar) *Manager {
	return &Manager{
		cfg:      cfg,
		repo:     repo,
		engine:   engine,
		reporter: reporter,
		auditor:  auditor,
		dc:       dc,
		cal:      cal,
	}
}

func SlashCommandDefinitions() []discord.SlashCommandDefinition {
	rangeChoices := []discord.CommandOptionChoice{
		{Name: "today", Value: string(RangeDay)},
		{Name: "week", Value: string(RangeWeek)},
		{Name: "month", Value: string(RangeMonth)},
	}
	leaderboardChoices := append([]discord.CommandOptionChoice{
		{Name: "all time", Value: string(RangeAllTime)},
	}, rangeChoices...)

	return []discord.SlashCommandDefinition{
		{Name: commandCheckIn, Description: "Record that you are present."},
		{Name: commandCheckOut, Description: "Record that you are leaving."},
		{Name: commandStatus, Description: "Show your current attendance state."},
		{
			Name:        commandLeaderboard,
			Description: "Show the attendance leaderboard.",
			Options: []discord.CommandOptionDefinition{
				{Type: discord.CommandOptionString, Name: "range", Description: "Time window", Required: true, Choices: leaderboardChoices},
			},
		},
		{
			Name:        commandReport,
			Description: "Attendance report for managers.",
			Options: []discord.CommandOptionDefinition{
				{Type: discord.CommandOptionString, Name: "range", Description: "Time window", Required: true, Choices: rangeChoices},
			},
		},
		{Name: commandPanel, Description: "Post the attendance panel in this channel."},
		{
			Name:        commandSetLog,
			Description: "Set the audit log channel.",
			AdminOnly:   true,
			Options: []discord.CommandOptionDefinition{
				{Type: discord.CommandOptionChannel, Name: "channel", Description: "Log channel", Required: true},
			},
		},
		{
			Name:        commandSetManagers,
			Description: "Set the managers role.",
			AdminOnly:   true,
			Options: []discord.CommandOptionDefinition{
				{Type: discord.CommandOptionRole, Name: "role", Description: "Managers role", Required: true},
			},
		},
	}
}

func (m *Manager) HandleCommand(event discord.CommandEvent) {
	switch event.CommandName {
	case commandCheckIn:
		m.checkIn(event.GuildID, event.UserID, event.RespondEphemeral)
	case commandCheckOut:
		m.checkOut(event.GuildID, event.UserID, event.RespondEphemeral)
	case commandStatus:
		m.status(event.GuildID, event.UserID, event.RespondEphemeral)
	case commandLeaderboard:
		m.leaderboard(event.GuildID, event.Options["range"], event.RespondEphemeral)
	case commandReport:
		m.report(event)
	case commandPanel:
		m.postPanel(event)
	case commandSetLog:
		m.setLogChannel(event)
	case commandSetManagers:
		m.setManagersRole(event)
	default:
		slog.Warn("unknown slash command", "command", event.CommandName, "guild_id", event.GuildID)
	}
}

func (m *Manager) HandleComponent(event discord.ComponentEvent) {
	switch event.ComponentID {
	case buttonCheckIn:
		m.checkIn(event.GuildID, event.UserID, event.RespondEphemeral)
	case buttonCheckOut:
		m.checkOut(event.GuildID, event.UserID, event.RespondEphemeral)
	default:
		slog.Warn("unknown component interaction", "component_id", event.ComponentID, "guild_id", event.GuildID)
	}
}

func (m *Manager) checkIn(guildID, userID string, respond func(string) error) {
	ctx := context.Background()
	s, err := m.engine.CheckIn(ctx, guildID, userID)
	switch {
	case errors.Is(err, ErrAlreadyCheckedIn):
		m.reply(respond, messageAlreadyCheckedIn)
	case err != nil:
		slog.Error("check-in failed", "error", err, "guild_id", guildID, "user_id", userID)
		m.reply(respond, messageActionFailed)
	default:
		m.reply(respond, fmt.Sprintf(messageCheckedInFormat, s.Sequence))
		m.auditor.RecordCheckIn(ctx, s)
	}
}

func (m *Manager) checkOut(guildID, userID string, respond func(string) error) {
	ctx := context.Background()
	s, err := m.engine.CheckOut(ctx, guildID, userID)
	switch {
	case errors.Is(err, ErrNoOpenSession):
		m.reply(respond, messageNotCheckedIn)
	case err != nil:
		slog.Error("check-out failed", "error", err, "guild_id", guildID, "user_id", userID)
		m.reply(respond, messageActionFailed)
	default:
		m.reply(respond, fmt.Sprintf(messageCheckedOutFormat, s.Sequence, formatDuration(s.Duration)))
		m.auditor.RecordCheckOut(ctx, s)
	}
}

func (m *Manager) status(guildID, userID string, respond func(string) error) {
	status, err := m.engine.Status(context.Background(), guildID, userID)
	if err != nil {
		slog.Error("status query failed", "error", err, "guild_id", guildID, "user_id", userID)
		m.reply(respond, messageActionFailed)
		return
	}
	m.reply(respond, statusMessage(status, m.cal.TimeOf(status.CheckinAt)))
}

func (m *Manager) leaderboard(guildID, rawRange string, respond func(string) error) {
	rng, err := ParseRange(rawRange)
	if err != nil {
		m.reply(respond, messageUnknownRange)
		return
	}
	rows, err := m.reporter.Leaderboard(context.Background(), guildID, rng)
	if err != nil {
		slog.Error("leaderboard query failed", "error", err, "guild_id", guildID, "range", rng)
		m.reply(respond, messageActionFailed)
		return
	}
	if len(rows) > m.cfg.LeaderboardLimit {
		rows = rows[:m.cfg.LeaderboardLimit]
	}
	m.reply(respond, leaderboardMessage(rng, rows))
}

func (m *Manager) report(event discord.CommandEvent) {
	allowed, err := m.isManager(event.GuildID, event.IsAdministrator, event.RoleIDs)
	if err != nil {
		slog.Error("manager check failed", "error", err, "guild_id", event.GuildID, "user_id", event.UserID)
		m.reply(event.RespondEphemeral, messageActionFailed)
		return
	}
	if !allowed {
		m.reply(event.RespondEphemeral, messageNotAuthorized)
		return
	}
	m.leaderboard(event.GuildID, event.Options["range"], event.RespondEphemeral)
}

func (m *Manager) postPanel(event discord.CommandEvent) {
	allowed, err := m.isManager(event.GuildID, event.IsAdministrator, event.RoleIDs)
	if err != nil {
		slog.Error("manager check failed", "error", err, "guild_id", event.GuildID, "user_id", event.UserID)
		m.reply(event.RespondEphemeral, messageActionFailed)
		return
	}
	if !allowed {
		m.reply(event.RespondEphemeral, messageNotAuthorized)
		return
	}
	err = m.dc.SendPanelMessage(discord.PanelMessage{
		ChannelID: event.ChannelID,
		Embed: discord.Embed{
			Title:       panelTitle,
			Description: panelDescription,
			Color:       panelColor,
		},
		Buttons: []discord.Button{
			{ID: buttonCheckIn, Label: "Check in", Emoji: "⏰", Style: discord.ButtonStyleSuccess},
			{ID: buttonCheckOut, Label: "Check out", Emoji: "💤", Style: discord.ButtonStyleDanger},
		},
	})
	if err != nil {
		slog.Error("failed to post attendance panel", "error", err, "guild_id", event.GuildID, "channel_id", event.ChannelID)
		m.reply(event.RespondEphemeral, messageActionFailed)
		return
	}
	m.reply(event.RespondEphemeral, messagePanelPosted)
}

func (m *Manager) setLogChannel(event discord.CommandEvent) {
	if !event.IsAdministrator {
		m.reply(event.RespondEphemeral, messageNotAuthorized)
		return
	}
	channelID := event.Options["channel"]
	if err := m.repo.SetLogChannel(context.Background(), event.GuildID, channelID); err != nil {
		slog.Error("failed to set log channel", "error", err, "guild_id", event.GuildID)
		m.reply(event.RespondEphemeral, messageActionFailed)
		return
	}
	m.reply(event.RespondEphemeral, messageLogChannelSet)
}

func (m *Manager) setManagersRole(event discord.CommandEvent) {
	if !event.IsAdministrator {
		m.reply(event.RespondEphemeral, messageNotAuthorized)
		return
	}
	roleID := event.Options["role"]
	if err := m.repo.SetManagersRole(context.Background(), event.GuildID, roleID); err != nil {
		slog.Error("failed to set managers role", "error", err, "guild_id", event.GuildID)
		m.reply(event.RespondEphemeral, messageActionFailed)
		return
	}
	m.reply(event.RespondEphemeral, messageManagersRoleSet)
}

// isManager grants the privileged capability to administrators and to
// holders of the guild's configured managers role.
func (m *Manager) isManager(guildID string, isAdministrator bool, roleIDs []string) (bool, error) {
	if isAdministrator {
		return true, nil
	}
	settings, err := m.repo.GetSettings(context.Background(), guildID)
	if err != nil {
		return false, err
	}
	if settings.ManagersRoleID == "" {
		return false, nil
	}
	for _, roleID := range roleIDs {
		if roleID == settings.ManagersRoleID {
			return true, nil
		}
	}
	return false, nil
}

func (m *Manager) reply(respond func(string) error, content string) {
	if respond == nil {
		return
	}
	if err := respond(content); err != nil {
		slog.Warn("failed to respond to interaction", "error", err)
	}
}
