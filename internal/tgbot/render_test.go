package tgbot

import (
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"

	"xports-bot/internal/lifecycle"
	"xports-bot/internal/models"
)

func detailContest() models.Contest {
	return models.Contest{
		ID:       "c1",
		Name:     "Logo sprint",
		Type:     "Design",
		Deadline: time.Now().Add(24 * time.Hour),
		Status:   models.StatusConfirmed,
	}
}

func actionButtons(kb tgbotapi.InlineKeyboardMarkup) []string {
	var out []string
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData == nil {
				continue
			}
			d := *b.CallbackData
			if strings.HasPrefix(d, "c:pay:") || strings.HasPrefix(d, "c:submit:") || strings.HasPrefix(d, "c:review:") {
				out = append(out, d)
			}
		}
	}
	return out
}

func TestDetailHasAtMostOneCallToAction(t *testing.T) {
	now := time.Now()
	cases := []struct {
		state lifecycle.State
		want  []string
	}{
		{lifecycle.StateNotRegisteredOpen, []string{"c:pay:c1"}},
		{lifecycle.StateRegisteredPending, []string{"c:submit:c1"}},
		{lifecycle.StateOwnerView, []string{"c:review:c1"}},
		{lifecycle.StateNotRegisteredClosed, nil},
		{lifecycle.StateRegisteredSubmitted, nil},
		{lifecycle.StateRegisteredClosed, nil},
		{lifecycle.StateRestrictedRole, nil},
	}
	for _, tc := range cases {
		t.Run(tc.state.String(), func(t *testing.T) {
			_, kb := renderContestDetail(detailContest(), tc.state, now)
			assert.Equal(t, tc.want, actionButtons(kb))
		})
	}
}

func TestDetailClosureLabels(t *testing.T) {
	now := time.Now()

	ended := detailContest()
	ended.Deadline = now.Add(-time.Hour)
	text, _ := renderContestDetail(ended, lifecycle.StateNotRegisteredClosed, now)
	assert.Contains(t, text, lifecycle.EndedToken)

	// A declared winner outranks the deadline label even when the deadline
	// has also passed.
	won := ended
	won.Winner = &models.Winner{Name: "Ada", Photo: "p", Email: "ada@example.com"}
	text, _ = renderContestDetail(won, lifecycle.StateNotRegisteredClosed, now)
	assert.Contains(t, text, "Winner declared")
	assert.NotContains(t, text, lifecycle.EndedToken)
	assert.Contains(t, text, "Ada")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a ve…", truncate("a very long name", 5))
	assert.Equal(t, "héllo", truncate("héllo", 5))
}
