package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicvoice/clinicvoice/pkg/pagination"
)

// Service applies referential-integrity checks on top of the repositories.
// Inputs arrive already validated; parents are looked up before any write.
type Service struct {
	patients   PatientRepository
	voiceNotes VoiceNoteRepository
	summaries  SummaryRepository
}

func NewService(patients PatientRepository, voiceNotes VoiceNoteRepository, summaries SummaryRepository) *Service {
	return &Service{patients: patients, voiceNotes: voiceNotes, summaries: summaries}
}

// -- Patient --

func (s *Service) ListPatients(ctx context.Context, page pagination.Params) ([]*Patient, error) {
	return s.patients.List(ctx, page)
}

// GetPatient returns the patient with its voice notes, newest recording first.
func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id, PatientRelations{WithVoiceNotes: true})
}

func (s *Service) CreatePatient(ctx context.Context, in CreatePatientInput) (*Patient, error) {
	return s.patients.Create(ctx, in)
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, in UpdatePatientInput) (*Patient, error) {
	return s.patients.Update(ctx, id, in)
}

// DeletePatient removes the patient together with its voice notes and their
// summaries.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

// -- VoiceNote --

func (s *Service) ListVoiceNotes(ctx context.Context, f VoiceNoteFilter, page pagination.Params) ([]*VoiceNote, error) {
	return s.voiceNotes.List(ctx, f, page, VoiceNoteRelations{WithPatient: true})
}

func (s *Service) GetVoiceNote(ctx context.Context, id uuid.UUID) (*VoiceNote, error) {
	return s.voiceNotes.GetByID(ctx, id, VoiceNoteRelations{WithPatient: true, WithSummaries: true})
}

// CreateVoiceNote fails with a *ReferenceError when the patient does not
// exist. The returned note carries its patient.
func (s *Service) CreateVoiceNote(ctx context.Context, in CreateVoiceNoteInput) (*VoiceNote, error) {
	patient, err := s.patients.GetByID(ctx, in.PatientID, PatientRelations{})
	if errors.Is(err, ErrNotFound) {
		return nil, &ReferenceError{Resource: "Patient"}
	}
	if err != nil {
		return nil, fmt.Errorf("lookup patient: %w", err)
	}

	note, err := s.voiceNotes.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	note.Patient = patient
	return note, nil
}

// UpdateVoiceNote applies a partial patch. Moving a note to another patient
// re-runs the patient existence check.
func (s *Service) UpdateVoiceNote(ctx context.Context, id uuid.UUID, in UpdateVoiceNoteInput) (*VoiceNote, error) {
	if in.PatientID != nil {
		ok, err := s.patients.Exists(ctx, *in.PatientID)
		if err != nil {
			return nil, fmt.Errorf("lookup patient: %w", err)
		}
		if !ok {
			return nil, &ReferenceError{Resource: "Patient"}
		}
	}

	note, err := s.voiceNotes.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}

	patient, err := s.patients.GetByID(ctx, note.PatientID, PatientRelations{})
	if err != nil {
		// The patient and this note were deleted after the update.
		return nil, err
	}
	note.Patient = patient
	return note, nil
}

func (s *Service) DeleteVoiceNote(ctx context.Context, id uuid.UUID) error {
	return s.voiceNotes.Delete(ctx, id)
}

// -- Summary --

func (s *Service) ListSummaries(ctx context.Context, f SummaryFilter, page pagination.Params) ([]*Summary, error) {
	return s.summaries.List(ctx, f, page, SummaryRelations{WithVoiceNote: true, WithVoiceNotePatient: true})
}

func (s *Service) GetSummary(ctx context.Context, id uuid.UUID) (*Summary, error) {
	return s.summaries.GetByID(ctx, id, SummaryRelations{WithVoiceNote: true, WithVoiceNotePatient: true})
}

// CreateSummary fails with a *ReferenceError when the voice note does not
// exist. The returned summary carries its voice note and that note's patient.
func (s *Service) CreateSummary(ctx context.Context, in CreateSummaryInput) (*Summary, error) {
	note, err := s.voiceNotes.GetByID(ctx, in.VoiceNoteID, VoiceNoteRelations{WithPatient: true})
	if errors.Is(err, ErrNotFound) {
		return nil, &ReferenceError{Resource: "Voice note"}
	}
	if err != nil {
		return nil, fmt.Errorf("lookup voice note: %w", err)
	}

	summary, err := s.summaries.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	summary.VoiceNote = note
	return summary, nil
}
