package models

import "time"

// Awaiting marks which free-text input the dialogue expects next.
type Awaiting string

const (
	AwaitingNone    Awaiting = ""
	AwaitingDetails Awaiting = "details"
	AwaitingName    Awaiting = "name"
)

// Stage is the dialogue position derived from a ConversationState.
type Stage int

const (
	StageInitial Stage = iota
	StageAwaitingDetails
	StageAwaitingName
	StageAwaitingSalon
	StageAwaitingSlot
)

func (s Stage) String() string {
	switch s {
	case StageAwaitingDetails:
		return "awaiting_details"
	case StageAwaitingName:
		return "awaiting_name"
	case StageAwaitingSalon:
		return "awaiting_salon"
	case StageAwaitingSlot:
		return "awaiting_slot"
	default:
		return "initial"
	}
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ConversationState is the booking draft of one user.
type ConversationState struct {
	UserID    int64        `json:"user_id"`
	Location  *Coordinates `json:"location,omitempty"`
	Awaiting  Awaiting     `json:"awaiting,omitempty"`
	Service   string       `json:"service,omitempty"`
	Date      *time.Time   `json:"date,omitempty"`
	Name      string       `json:"name,omitempty"`
	SalonID   int64        `json:"salon_id,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// StatePatch lists the fields to overwrite; nil fields are left untouched.
type StatePatch struct {
	Location *Coordinates
	Awaiting *Awaiting
	Service  *string
	Date     *time.Time
	Name     *string
	SalonID  *int64
}

// HasDetails reports whether service, date and name are all known.
func (s *ConversationState) HasDetails() bool {
	return s != nil && s.Service != "" && s.Date != nil && s.Name != ""
}

func (s *ConversationState) Stage() Stage {
	switch {
	case s == nil:
		return StageInitial
	case s.Awaiting == AwaitingName:
		return StageAwaitingName
	case !s.HasDetails():
		return StageAwaitingDetails
	case s.SalonID == 0:
		return StageAwaitingSalon
	default:
		return StageAwaitingSlot
	}
}

// Apply merges the patch into the state field by field.
func (s *ConversationState) Apply(p StatePatch) {
	if p.Location != nil {
		loc := *p.Location
		s.Location = &loc
	}
	if p.Awaiting != nil {
		s.Awaiting = *p.Awaiting
	}
	if p.Service != nil {
		s.Service = *p.Service
	}
	if p.Date != nil {
		date := *p.Date
		s.Date = &date
	}
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.SalonID != nil {
		s.SalonID = *p.SalonID
	}
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	out := *s
	if s.Location != nil {
		loc := *s.Location
		out.Location = &loc
	}
	if s.Date != nil {
		date := *s.Date
		out.Date = &date
	}
	return &out
}

func AwaitingPtr(a Awaiting) *Awaiting { return &a }
func StringPtr(s string) *string       { return &s }
func Int64Ptr(v int64) *int64          { return &v }
