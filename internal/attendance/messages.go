package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/dawamlab/dawam/internal/repository"
)

const (
	commandCheckIn     = "checkin"
	commandCheckOut    = "checkout"
	commandStatus      = "status"
	commandLeaderboard = "leaderboard"
	commandReport      = "report"
	commandPanel       = "panel"
	commandSetLog      = "setlog"
	commandSetManagers = "setmanagers"

	buttonCheckIn  = "att_in"
	buttonCheckOut = "att_out"

	panelColor = 0x2B2D31

	messageCheckedInFormat  = ":white_check_mark: **Checked in.** This is your session #%d."
	messageCheckedOutFormat = ":wave: **Checked out.** Session #%d lasted %s."
	messageAlreadyCheckedIn = ":warning: **You are already checked in.**"
	messageNotCheckedIn     = ":warning: **You are not checked in.**"

	messageStatusOut      = ":zzz: **You are currently checked out.**"
	messageStatusInFormat = ":clock3: **You are checked in** (session #%d) since %s — %s so far."

	messageNotAuthorized = ":no_entry: **You are not allowed to use this command.**"
	messageActionFailed  = ":warning: **Something went wrong. Please try again.**"
	messageUnknownRange  = ":warning: **Unknown range.**"

	messageEmptyLeaderboard = "No completed sessions in this range yet."

	messagePanelPosted     = ":white_check_mark: **Attendance panel posted.**"
	messageLogChannelSet   = ":white_check_mark: **Log channel updated.**"
	messageManagersRoleSet = ":white_check_mark: **Managers role updated.**"

	auditTitleCheckIn  = ":white_check_mark: Check-in recorded"
	auditTitleCheckOut = ":zzz: Check-out recorded"

	panelTitle       = "Attendance panel"
	panelDescription = "Use the buttons below to record your presence. Every action is posted to the configured log channel."
)

var rangeTitles = map[Range]string{
	RangeAllTime: "All time",
	RangeDay:     "Today",
	RangeWeek:    "Last 7 days",
	RangeMonth:   "Last 30 days",
}

// formatDuration renders a duration as "8h 0m 0s", clamping negatives to 0.
func formatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

func statusMessage(status *MemberStatus, checkinTime string) string {
	if !status.CheckedIn {
		return messageStatusOut
	}
	return fmt.Sprintf(messageStatusInFormat, status.Sequence, checkinTime, formatDuration(status.Elapsed))
}

func leaderboardMessage(rng Range, rows []repository.MemberTotal) string {
	title := rangeTitles[rng]
	if len(rows) == 0 {
		return fmt.Sprintf(":trophy: **%s**\n%s", title, messageEmptyLeaderboard)
	}
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, fmt.Sprintf(":trophy: **%s**", title))
	for i, row := range rows {
		noun := "sessions"
		if row.Entries == 1 {
			noun = "session"
		}
		lines = append(lines, fmt.Sprintf("%d. <@%s> — %s (%d %s)", i+1, row.UserID, formatDuration(row.Total), row.Entries, noun))
	}
	return strings.Join(lines, "\n")
}
