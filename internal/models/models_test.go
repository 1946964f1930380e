package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContestDecode(t *testing.T) {
	raw := `{
		"_id": "c1",
		"contestName": "Logo sprint",
		"contestType": "Design",
		"price": "25.00",
		"prizeMoney": "500",
		"deadline": "2026-06-01T18:00:00Z",
		"status": "confirmed",
		"participantsCount": 12,
		"ownerEmail": "owner@example.com"
	}`

	var c Contest
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, "Logo sprint", c.Name)
	assert.Equal(t, StatusConfirmed, c.Status)
	assert.Equal(t, "25", c.Price.String())
	assert.Equal(t, time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC), c.Deadline)
	assert.Nil(t, c.Winner)
}

func TestContestDecodeWinnerAllOrNothing(t *testing.T) {
	base := `{"_id":"c1","contestName":"x","deadline":"2026-06-01T18:00:00Z","status":"confirmed"`

	cases := []struct {
		name    string
		extra   string
		wantErr bool
		winner  bool
	}{
		{"no winner fields", ``, false, false},
		{"all three winner fields", `,"winnerName":"W","winnerPhoto":"p","winnerEmail":"w@example.com"`, false, true},
		{"name only", `,"winnerName":"W"`, true, false},
		{"name and email only", `,"winnerName":"W","winnerEmail":"w@example.com"`, true, false},
		{"whitespace counts as absent", `,"winnerName":"  "`, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var c Contest
			err := json.Unmarshal([]byte(base+tc.extra+`}`), &c)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.winner, c.Winner != nil)
		})
	}
}

func TestContestDecodeCompletedNeedsWinner(t *testing.T) {
	raw := `{"_id":"c1","contestName":"x","deadline":"2026-06-01T18:00:00Z","status":"completed"}`
	var c Contest
	require.Error(t, json.Unmarshal([]byte(raw), &c))

	withWinner := `{"_id":"c1","contestName":"x","deadline":"2026-06-01T18:00:00Z","status":"completed",
		"winnerName":"W","winnerPhoto":"p","winnerEmail":"w@example.com"}`
	require.NoError(t, json.Unmarshal([]byte(withWinner), &c))
	assert.Equal(t, StatusCompleted, c.Status)
}

func TestContestDecodeRejectsUnknownStatus(t *testing.T) {
	raw := `{"_id":"c1","contestName":"x","deadline":"2026-06-01T18:00:00Z","status":"archived"}`
	var c Contest
	require.Error(t, json.Unmarshal([]byte(raw), &c))
}

func TestParseDeadline(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"2026-06-01T18:00:00Z", false},
		{"2026-06-01T18:00:00.000Z", false},
		{"2026-06-01T18:00", false},
		{"2026-06-01", false},
		{"", true},
		{"next tuesday", true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			_, err := ParseDeadline(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestContestEnded(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := Contest{Deadline: now.Add(time.Second)}
	assert.False(t, c.Ended(now))
	c.Deadline = now
	assert.True(t, c.Ended(now))
	c.Deadline = now.Add(-time.Second)
	assert.True(t, c.Ended(now))
}

func TestRegistrationDecode(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Registration
	}{
		{"not registered", `{"registered":false}`, Registration{SubmissionStatus: SubmissionNone}},
		{"registered no submission", `{"registered":true,"status":"pending"}`,
			Registration{Registered: true, SubmissionStatus: SubmissionNone}},
		{"registered submitted", `{"registered":true,"status":"submitted"}`,
			Registration{Registered: true, SubmissionStatus: SubmissionSubmitted}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var r Registration
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &r))
			assert.Equal(t, tc.want, r)
		})
	}
}

func TestRoleInfoDecode(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want RoleInfo
	}{
		{"admin", `{"role":"admin"}`, RoleInfo{Role: RoleAdmin, Status: RoleStatusNone}},
		{"unknown role maps to none", `{"role":"superuser"}`, RoleInfo{Role: RoleNone, Status: RoleStatusNone}},
		{"pending creator", `{"role":"user","status":"pending_creator"}`,
			RoleInfo{Role: RoleUser, Status: RoleStatusPendingCreator}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ri RoleInfo
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &ri))
			assert.Equal(t, tc.want, ri)
		})
	}
}

func TestRoleElevated(t *testing.T) {
	assert.True(t, RoleAdmin.Elevated())
	assert.True(t, RoleCreator.Elevated())
	assert.False(t, RoleUser.Elevated())
	assert.False(t, RoleNone.Elevated())
}
