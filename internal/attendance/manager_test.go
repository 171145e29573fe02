package attendance

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dawamlab/dawam/internal/config"
	"github.com/dawamlab/dawam/internal/discord"
	"github.com/juju/clock/testclock"
)

type testBot struct {
	manager *Manager
	repo    *fakeRepo
	dc      *fakeDiscordClient
	clk     *testclock.Clock
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()
	repo := newFakeRepo()
	dc := &fakeDiscordClient{}
	clk := testclock.NewClock(testEpoch)
	cal := newTestCalendar(t, clk)
	cfg := &config.Config{
		DiscordToken:     "token",
		DatabaseURL:      "postgres://localhost/dawam",
		Timezone:         "UTC",
		LeaderboardLimit: 15,
		KeepalivePort:    3000,
	}
	engine := NewEngine(repo, cal)
	reporter := NewReporter(repo, cal)
	auditor := NewAuditor(repo, dc, cal)
	return &testBot{
		manager: NewManager(cfg, repo, engine, reporter, auditor, dc, cal),
		repo:    repo,
		dc:      dc,
		clk:     clk,
	}
}

type replyRecorder struct {
	replies []string
}

func (r *replyRecorder) respond(content string) error {
	r.replies = append(r.replies, content)
	return nil
}

func (r *replyRecorder) last(t *testing.T) string {
	t.Helper()
	if len(r.replies) == 0 {
		t.Fatal("expected a reply")
	}
	return r.replies[len(r.replies)-1]
}

func commandEvent(name string, rec *replyRecorder) discord.CommandEvent {
	return discord.CommandEvent{
		GuildID:          testGuild,
		ChannelID:        "channel-1",
		CommandName:      name,
		UserID:           testMember,
		Options:          map[string]string{},
		RespondEphemeral: rec.respond,
	}
}

func componentEvent(id string, rec *replyRecorder) discord.ComponentEvent {
	return discord.ComponentEvent{
		GuildID:          testGuild,
		ChannelID:        "channel-1",
		ComponentID:      id,
		UserID:           testMember,
		RespondEphemeral: rec.respond,
	}
}

func TestPanelButtons_FullDay(t *testing.T) {
	bot := newTestBot(t)
	rec := &replyRecorder{}

	// Check in at 09:00.
	bot.manager.HandleComponent(componentEvent(buttonCheckIn, rec))
	if got := rec.last(t); got != fmt.Sprintf(messageCheckedInFormat, 1) {
		t.Fatalf("unexpected check-in reply %q", got)
	}

	// Check out at 17:00 the same day.
	bot.clk.Advance(8 * time.Hour)
	bot.manager.HandleComponent(componentEvent(buttonCheckOut, rec))
	if got := rec.last(t); !strings.Contains(got, "8h 0m 0s") {
		t.Fatalf("expected 8h 0m 0s in reply, got %q", got)
	}

	stats := bot.repo.statsFor(testGuild, testMember)
	if stats.Total != 8*time.Hour || stats.Entries != 1 {
		t.Fatalf("unexpected aggregate %+v", stats)
	}

	bot.manager.HandleCommand(commandEvent(commandStatus, rec))
	if got := rec.last(t); got != messageStatusOut {
		t.Fatalf("expected checked-out status, got %q", got)
	}
}

func TestCheckInCommand_DuplicateIsInformative(t *testing.T) {
	bot := newTestBot(t)
	rec := &replyRecorder{}

	bot.manager.HandleCommand(commandEvent(commandCheckIn, rec))
	bot.manager.HandleCommand(commandEvent(commandCheckIn, rec))
	if got := rec.last(t); got != messageAlreadyCheckedIn {
		t.Fatalf("expected duplicate check-in notice, got %q", got)
	}
}

func TestCheckOutCommand_WithoutSession(t *testing.T) {
	bot := newTestBot(t)
	rec := &replyRecorder{}

	bot.manager.HandleCommand(commandEvent(commandCheckOut, rec))
	if got := rec.last(t); got != messageNotCheckedIn {
		t.Fatalf("expected not-checked-in notice, got %q", got)
	}
}

func TestStatusCommand_CheckedIn(t *testing.T) {
	bot := newTestBot(t)
	rec := &replyRecorder{}

	bot.manager.HandleCommand(commandEvent(commandCheckIn, rec))
	bot.clk.Advance(30 * time.Minute)
	bot.manager.HandleCommand(commandEvent(commandStatus, rec))

	got := rec.last(t)
	if !strings.Contains(got, "#1") || !strings.Contains(got, "0h 30m 0s") {
		t.Fatalf("unexpected status reply %q", got)
	}
}

func TestLeaderboardCommand_TruncatesToLimit(t *testing.T) {
	bot := newTestBot(t)
	bot.manager.cfg.LeaderboardLimit = 2
	rec := &replyRecorder{}

	bot.repo.seedStats(testGuild, "A", 3*time.Hour, 3)
	bot.repo.seedStats(testGuild, "B", 2*time.Hour, 2)
	bot.repo.seedStats(testGuild, "C", 1*time.Hour, 1)

	event := commandEvent(commandLeaderboard, rec)
	event.Options["range"] = "all"
	bot.manager.HandleCommand(event)

	got := rec.last(t)
	if !strings.Contains(got, "<@A>") || !strings.Contains(got, "<@B>") {
		t.Fatalf("expected top two members, got %q", got)
	}
	if strings.Contains(got, "<@C>") {
		t.Fatalf("expected truncation to 2 rows, got %q", got)
	}
}

func TestLeaderboardCommand_UnknownRange(t *testing.T) {
	bot := newTestBot(t)
	rec := &replyRecorder{}

	event := commandEvent(commandLeaderboard, rec)
	event.Options["range"] = "fortnight"
	bot.manager.HandleCommand(event)

	if got := rec.last(t); got != messageUnknownRange {
		t.Fatalf("expected unknown-range notice, got %q", got)
	}
}

func TestReportCommand_RequiresManager(t *testing.T) {
	bot := newTestBot(t)
	rec := &replyRecorder{}

	event := commandEvent(commandReport, rec)
	event.Options["range"] = "day"
	bot.manager.HandleCommand(event)

	if got := rec.last(t); got != messageNotAuthorized {
		t.Fatalf("expected authorization rejection, got %q", got)
	}
}

func TestReportCommand_ManagersRoleGrantsAccess(t *testing.T) {
	bot := newTestBot(t)
	rec := &replyRecorder{}
	if err := bot.repo.SetManagersRole(context.Background(), testGuild, "role-managers"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	bot.repo.seedClosedSession(testGuild, testMember, 1, time.Hour, testEpoch, "2024-03-10")

	event := commandEvent(commandReport, rec)
	event.Options["range"] = "day"
	event.RoleIDs = []string{"role-other", "role-managers"}
	bot.manager.HandleCommand(event)

	got := rec.last(t)
	if !strings.Contains(got, fmt.Sprintf("<@%s>", testMember)) {
		t.Fatalf("expected report rows, got %q", got)
	}
}

func TestReportCommand_AdministratorBypassesRole(t *testing.T) {
	bot := newTestBot(t)
	rec := &replyRecorder{}

	event := commandEvent(commandReport, rec)
	event.Options["range"] = "week"
	event.IsAdministrator = true
	bot.manager.HandleCommand(event)

	got := rec.last(t)
	if got == messageNotAuthorized {
		t.Fatalf("administrator must be allowed, got %q", got)
	}
}

func TestSetLogCommand_RequiresAdministrator(t *testing.T) {
	bot := newTestBot(t)
	rec := &replyRecorder{}

	event := commandEvent(commandSetLog, rec)
	event.Options["channel"] = "log-channel"
	bot.manager.HandleCommand(event)
	if got := rec.last(t); got != messageNotAuthorized {
		t.Fatalf("expected authorization rejection, got %q", got)
	}

	event.IsAdministrator = true
	bot.manager.HandleCommand(event)
	if got := rec.last(t); got != messageLogChannelSet {
		t.Fatalf("expected ack, got %q", got)
	}
	settings, err := bot.repo.GetSettings(context.Background(), testGuild)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if settings.LogChannelID != "log-channel" {
		t.Fatalf("log channel not stored, got %q", settings.LogChannelID)
	}
}

func TestSetManagersCommand_RequiresAdministrator(t *testing.T) {
	bot := newTestBot(t)
	rec := &replyRecorder{}

	event := commandEvent(commandSetManagers, rec)
	event.Options["role"] = "role-managers"
	bot.manager.HandleCommand(event)
	if got := rec.last(t); got != messageNotAuthorized {
		t.Fatalf("expected authorization rejection, got %q", got)
	}

	event.IsAdministrator = true
	bot.manager.HandleCommand(event)
	if got := rec.last(t); got != messageManagersRoleSet {
		t.Fatalf("expected ack, got %q", got)
	}
}

func TestPanelCommand_PostsButtons(t *testing.T) {
	bot := newTestBot(t)
	rec := &replyRecorder{}

	event := commandEvent(commandPanel, rec)
	event.IsAdministrator = true
	bot.manager.HandleCommand(event)

	if got := rec.last(t); got != messagePanelPosted {
		t.Fatalf("expected ack, got %q", got)
	}
	if len(bot.dc.panels) != 1 {
		t.Fatalf("expected 1 panel message, got %d", len(bot.dc.panels))
	}
	panel := bot.dc.panels[0]
	if panel.ChannelID != "channel-1" {
		t.Fatalf("unexpected channel %s", panel.ChannelID)
	}
	if len(panel.Buttons) != 2 || panel.Buttons[0].ID != buttonCheckIn || panel.Buttons[1].ID != buttonCheckOut {
		t.Fatalf("unexpected buttons %+v", panel.Buttons)
	}
}

func TestPanelCommand_RequiresManager(t *testing.T) {
	bot := newTestBot(t)
	rec := &replyRecorder{}

	bot.manager.HandleCommand(commandEvent(commandPanel, rec))
	if got := rec.last(t); got != messageNotAuthorized {
		t.Fatalf("expected authorization rejection, got %q", got)
	}
	if len(bot.dc.panels) != 0 {
		t.Fatalf("panel must not be posted, got %d", len(bot.dc.panels))
	}
}

func TestCheckIn_AuditNotificationSentToLogChannel(t *testing.T) {
	bot := newTestBot(t)
	rec := &replyRecorder{}
	if err := bot.repo.SetLogChannel(context.Background(), testGuild, "log-channel"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	bot.manager.HandleCommand(commandEvent(commandCheckIn, rec))

	sent := bot.dc.sentEmbeds()
	if len(sent) != 1 || sent[0].channelID != "log-channel" {
		t.Fatalf("expected audit embed in log channel, got %+v", sent)
	}
}
