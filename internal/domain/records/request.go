package records

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicvoice/clinicvoice/internal/platform/validation"
)

// Validated inputs. Parse* functions are the only way raw request bodies
// become these types; every rule violation in a body is reported together.

type CreatePatientInput struct {
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Email       *string
	Phone       *string
}

// UpdatePatientInput is a partial patch: nil fields are left unchanged.
type UpdatePatientInput struct {
	FirstName   *string
	LastName    *string
	DateOfBirth *time.Time
	Email       *string
	Phone       *string
}

func (in UpdatePatientInput) IsEmpty() bool {
	return in.FirstName == nil && in.LastName == nil && in.DateOfBirth == nil &&
		in.Email == nil && in.Phone == nil
}

type CreateVoiceNoteInput struct {
	PatientID  uuid.UUID
	DoctorID   uuid.UUID
	Duration   float64
	RecordedAt time.Time
	Status     Status
	FileSize   *float64
	Format     *string
	Location   *string
}

type UpdateVoiceNoteInput struct {
	PatientID  *uuid.UUID
	DoctorID   *uuid.UUID
	Duration   *float64
	RecordedAt *time.Time
	Status     *Status
	FileSize   *float64
	Format     *string
	Location   *string
}

func (in UpdateVoiceNoteInput) IsEmpty() bool {
	return in.PatientID == nil && in.DoctorID == nil && in.Duration == nil &&
		in.RecordedAt == nil && in.Status == nil && in.FileSize == nil &&
		in.Format == nil && in.Location == nil
}

type CreateSummaryInput struct {
	VoiceNoteID     uuid.UUID
	Content         string
	KeyPoints       []string
	Recommendations []string
	GeneratedAt     time.Time
}

const (
	msgFirstName = "First name is required"
	msgLastName  = "Last name is required"
	msgEmail     = "Invalid email address"
	msgDuration  = "Duration must be positive"
	msgContent   = "Summary must be at least 10 characters"

	minSummaryLength = 10
)

func ParseCreatePatient(body []byte) (CreatePatientInput, error) {
	r := validation.NewReader(body)
	first := r.MinLength("firstName", 1, validation.Required, msgFirstName)
	last := r.MinLength("lastName", 1, validation.Required, msgLastName)
	dob := r.Date("dateOfBirth", validation.Required)
	email := r.Email("email", validation.Optional, msgEmail)
	phone := r.String("phone", validation.Optional)
	if err := r.Err(); err != nil {
		return CreatePatientInput{}, err
	}
	return CreatePatientInput{
		FirstName:   *first,
		LastName:    *last,
		DateOfBirth: *dob,
		Email:       email,
		Phone:       phone,
	}, nil
}

func ParseUpdatePatient(body []byte) (UpdatePatientInput, error) {
	r := validation.NewReader(body)
	in := UpdatePatientInput{
		FirstName:   r.MinLength("firstName", 1, validation.Optional, msgFirstName),
		LastName:    r.MinLength("lastName", 1, validation.Optional, msgLastName),
		DateOfBirth: r.Date("dateOfBirth", validation.Optional),
		Email:       r.Email("email", validation.Optional, msgEmail),
		Phone:       r.String("phone", validation.Optional),
	}
	if err := r.Err(); err != nil {
		return UpdatePatientInput{}, err
	}
	return in, nil
}

func ParseCreateVoiceNote(body []byte) (CreateVoiceNoteInput, error) {
	r := validation.NewReader(body)
	patientID := r.UUID("patientId", validation.Required)
	doctorID := r.UUID("doctorId", validation.Required)
	duration := r.Positive("duration", validation.Required, msgDuration)
	recordedAt := r.Date("recordedAt", validation.Required)
	status := r.Enum("status", Statuses, validation.Required)
	fileSize := r.Number("fileSize", validation.Optional)
	format := r.String("format", validation.Optional)
	location := r.String("location", validation.Optional)
	if err := r.Err(); err != nil {
		return CreateVoiceNoteInput{}, err
	}
	return CreateVoiceNoteInput{
		PatientID:  *patientID,
		DoctorID:   *doctorID,
		Duration:   *duration,
		RecordedAt: *recordedAt,
		Status:     Status(*status),
		FileSize:   fileSize,
		Format:     format,
		Location:   location,
	}, nil
}

func ParseUpdateVoiceNote(body []byte) (UpdateVoiceNoteInput, error) {
	r := validation.NewReader(body)
	in := UpdateVoiceNoteInput{
		PatientID:  r.UUID("patientId", validation.Optional),
		DoctorID:   r.UUID("doctorId", validation.Optional),
		Duration:   r.Positive("duration", validation.Optional, msgDuration),
		RecordedAt: r.Date("recordedAt", validation.Optional),
		FileSize:   r.Number("fileSize", validation.Optional),
		Format:     r.String("format", validation.Optional),
		Location:   r.String("location", validation.Optional),
	}
	if s := r.Enum("status", Statuses, validation.Optional); s != nil {
		st := Status(*s)
		in.Status = &st
	}
	if err := r.Err(); err != nil {
		return UpdateVoiceNoteInput{}, err
	}
	return in, nil
}

func ParseCreateSummary(body []byte) (CreateSummaryInput, error) {
	r := validation.NewReader(body)
	voiceNoteID := r.UUID("voiceNoteId", validation.Required)
	content := r.MinLength("content", minSummaryLength, validation.Required, msgContent)
	keyPoints := r.StringList("keyPoints", validation.Optional)
	recommendations := r.StringList("recommendations", validation.Optional)
	generatedAt := r.Date("generatedAt", validation.Required)
	if err := r.Err(); err != nil {
		return CreateSummaryInput{}, err
	}
	return CreateSummaryInput{
		VoiceNoteID:     *voiceNoteID,
		Content:         *content,
		KeyPoints:       keyPoints,
		Recommendations: recommendations,
		GeneratedAt:     *generatedAt,
	}, nil
}
