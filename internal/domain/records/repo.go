package records

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicvoice/clinicvoice/pkg/pagination"
)

// PatientRelations selects which related records a patient read loads.
type PatientRelations struct {
	WithVoiceNotes bool
}

type PatientRepository interface {
	Create(ctx context.Context, in CreatePatientInput) (*Patient, error)
	GetByID(ctx context.Context, id uuid.UUID, rel PatientRelations) (*Patient, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// List orders by creation time, newest first.
	List(ctx context.Context, page pagination.Params) ([]*Patient, error)
	Update(ctx context.Context, id uuid.UUID, in UpdatePatientInput) (*Patient, error)
	// Delete removes the patient, its voice notes and their summaries in one
	// transaction.
	Delete(ctx context.Context, id uuid.UUID) error
}

type VoiceNoteRepository interface {
	Create(ctx context.Context, in CreateVoiceNoteInput) (*VoiceNote, error)
	GetByID(ctx context.Context, id uuid.UUID, rel VoiceNoteRelations) (*VoiceNote, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// List orders by recording time, newest first.
	List(ctx context.Context, f VoiceNoteFilter, page pagination.Params, rel VoiceNoteRelations) ([]*VoiceNote, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateVoiceNoteInput) (*VoiceNote, error)
	// Delete removes the voice note and its summaries in one transaction.
	Delete(ctx context.Context, id uuid.UUID) error
}

type SummaryRepository interface {
	Create(ctx context.Context, in CreateSummaryInput) (*Summary, error)
	GetByID(ctx context.Context, id uuid.UUID, rel SummaryRelations) (*Summary, error)
	// List orders by generation time, newest first.
	List(ctx context.Context, f SummaryFilter, page pagination.Params, rel SummaryRelations) ([]*Summary, error)
}
