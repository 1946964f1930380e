package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ContestStatus string

const (
	StatusPending   ContestStatus = "pending"
	StatusConfirmed ContestStatus = "confirmed"
	StatusRejected  ContestStatus = "rejected"
	StatusCompleted ContestStatus = "completed"
)

// Winner fields are all-or-nothing on the wire; decoding enforces that.
type Winner struct {
	Name  string
	Photo string
	Email string
}

type Contest struct {
	ID                string
	Name              string
	Type              string
	BannerImage       string
	Description       string
	Instruction       string
	Price             decimal.Decimal
	PrizeMoney        decimal.Decimal
	Deadline          time.Time
	Status            ContestStatus
	ParticipantsCount int
	OwnerEmail        string
	Winner            *Winner
}

type contestWire struct {
	ID                string          `json:"_id"`
	ContestName       string          `json:"contestName"`
	ContestType       string          `json:"contestType"`
	BannerImage       string          `json:"bannerImage"`
	Description       string          `json:"description"`
	Instruction       string          `json:"instruction"`
	Price             decimal.Decimal `json:"price"`
	PrizeMoney        decimal.Decimal `json:"prizeMoney"`
	Deadline          string          `json:"deadline"`
	Status            string          `json:"status"`
	ParticipantsCount int             `json:"participantsCount"`
	OwnerEmail        string          `json:"ownerEmail"`
	WinnerName        string          `json:"winnerName"`
	WinnerPhoto       string          `json:"winnerPhoto"`
	WinnerEmail       string          `json:"winnerEmail"`
}

func (c *Contest) UnmarshalJSON(b []byte) error {
	var w contestWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	deadline, err := ParseDeadline(w.Deadline)
	if err != nil {
		return fmt.Errorf("contest %s: %w", w.ID, err)
	}

	status := ContestStatus(strings.TrimSpace(w.Status))
	if status == "" {
		status = StatusPending
	}
	switch status {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCompleted:
	default:
		return fmt.Errorf("contest %s: unknown status %q", w.ID, w.Status)
	}

	var winner *Winner
	populated := 0
	for _, f := range []string{w.WinnerName, w.WinnerPhoto, w.WinnerEmail} {
		if strings.TrimSpace(f) != "" {
			populated++
		}
	}
	switch populated {
	case 0:
	case 3:
		winner = &Winner{Name: w.WinnerName, Photo: w.WinnerPhoto, Email: w.WinnerEmail}
	default:
		return fmt.Errorf("contest %s: winner fields must be all present or all absent", w.ID)
	}
	if status == StatusCompleted && winner == nil {
		return fmt.Errorf("contest %s: completed contest has no winner", w.ID)
	}

	*c = Contest{
		ID:                w.ID,
		Name:              w.ContestName,
		Type:              w.ContestType,
		BannerImage:       w.BannerImage,
		Description:       w.Description,
		Instruction:       w.Instruction,
		Price:             w.Price,
		PrizeMoney:        w.PrizeMoney,
		Deadline:          deadline,
		Status:            status,
		ParticipantsCount: w.ParticipantsCount,
		OwnerEmail:        w.OwnerEmail,
		Winner:            winner,
	}
	return nil
}

// Ended is the only temporal state derived client-side; the backend stays
// the authority for anything that mutates.
func (c Contest) Ended(now time.Time) bool {
	return !c.Deadline.After(now)
}

var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

func ParseDeadline(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("deadline is empty")
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable deadline %q", raw)
}

type SubmissionStatus string

const (
	SubmissionNone      SubmissionStatus = "none"
	SubmissionSubmitted SubmissionStatus = "submitted"
)

// Registration links a viewer to a contest after a successful payment.
type Registration struct {
	Registered       bool
	SubmissionStatus SubmissionStatus
}

type registrationWire struct {
	Registered bool   `json:"registered"`
	Status     string `json:"status"`
}

func (r *Registration) UnmarshalJSON(b []byte) error {
	var w registrationWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	r.Registered = w.Registered
	if strings.TrimSpace(w.Status) == string(SubmissionSubmitted) {
		r.SubmissionStatus = SubmissionSubmitted
	} else {
		r.SubmissionStatus = SubmissionNone
	}
	return nil
}

type Submission struct {
	ID               string    `json:"_id"`
	ContestID        string    `json:"contestId"`
	ParticipantName  string    `json:"participantName"`
	ParticipantEmail string    `json:"participantEmail"`
	ParticipantPhoto string    `json:"participantPhoto"`
	SubmissionLink   string    `json:"submissionLink"`
	SubmittedAt      time.Time `json:"submittedAt"`
	IsWinner         bool      `json:"isWinner"`
}

type Role string

const (
	RoleNone    Role = "none"
	RoleUser    Role = "user"
	RoleCreator Role = "creator"
	RoleAdmin   Role = "admin"
)

// Elevated roles host or moderate contests rather than enter them.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleCreator
}

type RoleStatus string

const (
	RoleStatusNone           RoleStatus = "none"
	RoleStatusPendingCreator RoleStatus = "pending_creator"
)

type RoleInfo struct {
	Role   Role
	Status RoleStatus
}

type roleInfoWire struct {
	Role   string `json:"role"`
	Status string `json:"status"`
}

func (ri *RoleInfo) UnmarshalJSON(b []byte) error {
	var w roleInfoWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	switch Role(w.Role) {
	case RoleUser, RoleCreator, RoleAdmin:
		ri.Role = Role(w.Role)
	default:
		ri.Role = RoleNone
	}
	if RoleStatus(w.Status) == RoleStatusPendingCreator {
		ri.Status = RoleStatusPendingCreator
	} else {
		ri.Status = RoleStatusNone
	}
	return nil
}

// Identity is the authenticated viewer as the auth provider reports it.
type Identity struct {
	Email       string
	DisplayName string
	PhotoURL    string
}

type UserRecord struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhotoURL string `json:"photoURL"`
	Role     Role   `json:"role"`
}

type CheckoutSession struct {
	SessionID     string          `json:"sessionId"`
	ContestID     string          `json:"contestId"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
}

// ContestInput is what creators send; the backend assigns identity, status
// and counters.
type ContestInput struct {
	Name        string          `json:"contestName"`
	Type        string          `json:"contestType"`
	BannerImage string          `json:"bannerImage"`
	Description string          `json:"description"`
	Instruction string          `json:"instruction"`
	Price       decimal.Decimal `json:"price"`
	PrizeMoney  decimal.Decimal `json:"prizeMoney"`
	Deadline    string          `json:"deadline"`
	OwnerEmail  string          `json:"ownerEmail"`
}

type AdminStats struct {
	TotalUsers     int             `json:"totalUsers"`
	GeneralUsers   int             `json:"generalUsers"`
	TotalCreators  int             `json:"totalCreators"`
	ActiveContests int             `json:"activeContests"`
	Revenue        decimal.Decimal `json:"revenue"`
}
