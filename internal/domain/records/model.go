package records

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when the addressed record does not
// exist, including when a concurrent delete removed it first.
var ErrNotFound = errors.New("record not found")

// ReferenceError reports that a referenced parent record does not exist.
type ReferenceError struct {
	Resource string
}

func (e *ReferenceError) Error() string {
	return e.Resource + " does not exist"
}

type Status string

const (
	StatusPending     Status = "pending"
	StatusTranscribed Status = "transcribed"
	StatusSummarized  Status = "summarized"
	StatusFailed      Status = "failed"
)

// Statuses lists every accepted voice note status. Any status may move to
// any other.
var Statuses = []string{
	string(StatusPending),
	string(StatusTranscribed),
	string(StatusSummarized),
	string(StatusFailed),
}

// Patient is the root of the ownership hierarchy. Deleting a patient
// removes its voice notes and their summaries.
type Patient struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	Email       *string   `json:"email"`
	Phone       *string   `json:"phone"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	VoiceNotes []*VoiceNote `json:"voiceNotes,omitempty"`
}

// VoiceNote is a recording made by a doctor for one patient.
type VoiceNote struct {
	ID         uuid.UUID `json:"id"`
	PatientID  uuid.UUID `json:"patientId"`
	DoctorID   uuid.UUID `json:"doctorId"`
	Duration   float64   `json:"duration"`
	RecordedAt time.Time `json:"recordedAt"`
	Status     Status    `json:"status"`
	FileSize   *float64  `json:"fileSize"`
	Format     *string   `json:"format"`
	Location   *string   `json:"location"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	Patient   *Patient   `json:"patient,omitempty"`
	Summaries []*Summary `json:"summaries,omitempty"`
}

// Summary is derived text for one voice note. KeyPoints and Recommendations
// are nil when not supplied and otherwise non-empty.
type Summary struct {
	ID              uuid.UUID `json:"id"`
	VoiceNoteID     uuid.UUID `json:"voiceNoteId"`
	Content         string    `json:"content"`
	KeyPoints       []string  `json:"keyPoints"`
	Recommendations []string  `json:"recommendations"`
	GeneratedAt     time.Time `json:"generatedAt"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	VoiceNote *VoiceNote `json:"voiceNote,omitempty"`
}

// VoiceNoteRelations selects which related records a voice note read loads.
type VoiceNoteRelations struct {
	WithPatient   bool
	WithSummaries bool
}

// SummaryRelations selects which related records a summary read loads.
// WithVoiceNotePatient implies WithVoiceNote.
type SummaryRelations struct {
	WithVoiceNote        bool
	WithVoiceNotePatient bool
}

type VoiceNoteFilter struct {
	PatientID *uuid.UUID
}

type SummaryFilter struct {
	VoiceNoteID *uuid.UUID
}
