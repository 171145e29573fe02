package attendance

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dawamlab/dawam/internal/discord"
	"github.com/dawamlab/dawam/internal/repository"
)

// fakeRepo is an in-memory repository that mirrors the storage contract:
// the one-open-session invariant is checked under its mutex, and closing a
// session updates the stats aggregate in the same critical section.
type fakeRepo struct {
	mu         sync.Mutex
	nextID     int64
	settings   map[string]*repository.Settings
	sessions   []*repository.AttendanceSession
	stats      map[string]*repository.MemberTotal
	statsOrder []string
	audits     []repository.InsertAuditLogInput

	getOpenFailures   int
	listStatsFailures int
	sumFailures       int
	failErr           error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		settings: make(map[string]*repository.Settings),
		stats:    make(map[string]*repository.MemberTotal),
	}
}

func statsKey(guildID, userID string) string {
	return guildID + ":" + userID
}

func (f *fakeRepo) GetSettings(_ context.Context, guildID string) (*repository.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[guildID]
	if !ok {
		s = &repository.Settings{GuildID: guildID}
		f.settings[guildID] = s
	}
	copied := *s
	return &copied, nil
}

func (f *fakeRepo) SetLogChannel(_ context.Context, guildID, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[guildID]
	if !ok {
		s = &repository.Settings{GuildID: guildID}
		f.settings[guildID] = s
	}
	s.LogChannelID = channelID
	return nil
}

func (f *fakeRepo) SetManagersRole(_ context.Context, guildID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[guildID]
	if !ok {
		s = &repository.Settings{GuildID: guildID}
		f.settings[guildID] = s
	}
	s.ManagersRoleID = roleID
	return nil
}

func (f *fakeRepo) OpenSession(_ context.Context, input repository.OpenSessionInput) (*repository.AttendanceSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findOpenLocked(input.GuildID, input.UserID) != nil {
		return nil, repository.ErrOpenSessionExists
	}
	f.nextID++
	s := &repository.AttendanceSession{
		ID:          f.nextID,
		GuildID:     input.GuildID,
		UserID:      input.UserID,
		Sequence:    input.Sequence,
		CheckinAt:   input.CheckinAt,
		CheckinDate: input.CheckinDate,
	}
	f.sessions = append(f.sessions, s)
	copied := *s
	return &copied, nil
}

func (f *fakeRepo) CloseOpenSession(_ context.Context, input repository.CloseSessionInput) (*repository.AttendanceSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.findOpenLocked(input.GuildID, input.UserID)
	if s == nil {
		return nil, repository.ErrNoOpenSession
	}
	checkoutAt := input.CheckoutAt
	s.CheckoutAt = &checkoutAt
	s.CheckoutDate = input.CheckoutDate
	s.Duration = checkoutAt.Sub(s.CheckinAt)
	if s.Duration < 0 {
		s.Duration = 0
	}

	f.addStatsLocked(input.GuildID, input.UserID, s.Duration, 1)

	copied := *s
	return &copied, nil
}

func (f *fakeRepo) GetOpenSession(_ context.Context, guildID, userID string) (*repository.AttendanceSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getOpenFailures > 0 {
		f.getOpenFailures--
		return nil, f.failErr
	}
	s := f.findOpenLocked(guildID, userID)
	if s == nil {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeRepo) CountSessions(_ context.Context, guildID, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, s := range f.sessions {
		if s.GuildID == guildID && s.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) SumClosedSessions(_ context.Context, guildID, fromDate, toDate string) ([]repository.MemberTotal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sumFailures > 0 {
		f.sumFailures--
		return nil, f.failErr
	}
	byUser := make(map[string]*repository.MemberTotal)
	var order []string
	for _, s := range f.sessions {
		if s.GuildID != guildID || s.CheckoutAt == nil {
			continue
		}
		if s.CheckoutDate < fromDate || s.CheckoutDate > toDate {
			continue
		}
		mt, ok := byUser[s.UserID]
		if !ok {
			mt = &repository.MemberTotal{UserID: s.UserID}
			byUser[s.UserID] = mt
			order = append(order, s.UserID)
		}
		mt.Total += s.Duration
		mt.Entries++
	}
	out := make([]repository.MemberTotal, 0, len(order))
	for _, userID := range order {
		out = append(out, *byUser[userID])
	}
	return out, nil
}

func (f *fakeRepo) ListGuildStats(_ context.Context, guildID string) ([]repository.MemberTotal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listStatsFailures > 0 {
		f.listStatsFailures--
		return nil, f.failErr
	}
	// Preserve first-checkout order so tie-break tests are deterministic.
	var out []repository.MemberTotal
	prefix := guildID + ":"
	for _, key := range f.statsOrder {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, *f.stats[key])
	}
	return out, nil
}

func (f *fakeRepo) addStatsLocked(guildID, userID string, total time.Duration, entries int) {
	key := statsKey(guildID, userID)
	mt, ok := f.stats[key]
	if !ok {
		mt = &repository.MemberTotal{UserID: userID}
		f.stats[key] = mt
		f.statsOrder = append(f.statsOrder, key)
	}
	mt.Total += total
	mt.Entries += entries
}

// seedStats plants an all-time aggregate row directly.
func (f *fakeRepo) seedStats(guildID, userID string, total time.Duration, entries int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addStatsLocked(guildID, userID, total, entries)
}

func (f *fakeRepo) InsertAuditLog(_ context.Context, input repository.InsertAuditLogInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, input)
	return nil
}

// seedClosedSession plants a completed session without going through the
// engine or touching the stats aggregate.
func (f *fakeRepo) seedClosedSession(guildID, userID string, seq int, duration time.Duration, checkoutAt time.Time, checkoutDate string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	out := checkoutAt
	f.sessions = append(f.sessions, &repository.AttendanceSession{
		ID:           f.nextID,
		GuildID:      guildID,
		UserID:       userID,
		Sequence:     seq,
		CheckinAt:    checkoutAt.Add(-duration),
		CheckoutAt:   &out,
		Duration:     duration,
		CheckinDate:  checkoutDate,
		CheckoutDate: checkoutDate,
	})
}

// abandonOpen marks the member's open session as closed without recording a
// duration or touching stats, simulating an out-of-band cleanup of a session
// that was never checked out.
func (f *fakeRepo) abandonOpen(guildID, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.findOpenLocked(guildID, userID)
	if s == nil {
		return
	}
	checkoutAt := s.CheckinAt
	s.CheckoutAt = &checkoutAt
	s.CheckoutDate = s.CheckinDate
}

func (f *fakeRepo) openSessionCount(guildID, userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, s := range f.sessions {
		if s.GuildID == guildID && s.UserID == userID && s.CheckoutAt == nil {
			count++
		}
	}
	return count
}

func (f *fakeRepo) statsFor(guildID, userID string) repository.MemberTotal {
	f.mu.Lock()
	defer f.mu.Unlock()
	if mt, ok := f.stats[statsKey(guildID, userID)]; ok {
		return *mt
	}
	return repository.MemberTotal{UserID: userID}
}

func (f *fakeRepo) findOpenLocked(guildID, userID string) *repository.AttendanceSession {
	for _, s := range f.sessions {
		if s.GuildID == guildID && s.UserID == userID && s.CheckoutAt == nil {
			return s
		}
	}
	return nil
}

type sentEmbed struct {
	channelID string
	embed     discord.Embed
}

type fakeDiscordClient struct {
	mu         sync.Mutex
	embeds     []sentEmbed
	panels     []discord.PanelMessage
	sendErr    error
	panelErr   error
	connectErr error
}

func (f *fakeDiscordClient) Connect(_ context.Context) error { return f.connectErr }
func (f *fakeDiscordClient) Close() error                    { return nil }
func (f *fakeDiscordClient) UpsertSlashCommands(_ string, _ []discord.SlashCommandDefinition) error {
	return nil
}
func (f *fakeDiscordClient) RegisterCommandHandler(_ func(discord.CommandEvent))     {}
func (f *fakeDiscordClient) RegisterComponentHandler(_ func(discord.ComponentEvent)) {}

func (f *fakeDiscordClient) SendChannelEmbed(channelID string, embed discord.Embed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.embeds = append(f.embeds, sentEmbed{channelID: channelID, embed: embed})
	return nil
}

func (f *fakeDiscordClient) SendPanelMessage(msg discord.PanelMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panelErr != nil {
		return f.panelErr
	}
	f.panels = append(f.panels, msg)
	return nil
}

func (f *fakeDiscordClient) Run() error { return nil }

func (f *fakeDiscordClient) sentEmbeds() []sentEmbed {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentEmbed(nil), f.embeds...)
}
