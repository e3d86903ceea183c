package records

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicvoice/clinicvoice/internal/platform/db"
)

// SeedResult reports what Seed inserted.
type SeedResult struct {
	Patients   []*Patient
	VoiceNotes []*VoiceNote
	Summaries  []*Summary
}

var seedDoctorID = uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")

func ptr[T any](v T) *T { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Reset deletes every record.
func Reset(ctx context.Context, q db.Queryable) error {
	if _, err := q.Exec(ctx, `TRUNCATE summary, voice_note, patient`); err != nil {
		return fmt.Errorf("reset records: %w", err)
	}
	return nil
}

// Seed replaces all records with the demo data set in one transaction.
func Seed(ctx context.Context, pool *pgxpool.Pool) (*SeedResult, error) {
	svc := NewService(NewPatientRepo(pool), NewVoiceNoteRepo(pool), NewSummaryRepo(pool))
	res := &SeedResult{}

	err := db.InTx(ctx, pool, func(ctx context.Context) error {
		if err := Reset(ctx, db.Conn(ctx, pool)); err != nil {
			return err
		}

		for _, in := range []CreatePatientInput{
			{FirstName: "John", LastName: "Doe", DateOfBirth: day(1990, time.January, 15), Email: ptr("john.doe@example.com"), Phone: ptr("+1234567890")},
			{FirstName: "Jane", LastName: "Smith", DateOfBirth: day(1985, time.May, 20), Email: ptr("jane.smith@example.com"), Phone: ptr("+0987654321")},
		} {
			p, err := svc.CreatePatient(ctx, in)
			if err != nil {
				return err
			}
			res.Patients = append(res.Patients, p)
		}

		for _, in := range []CreateVoiceNoteInput{
			{
				PatientID: res.Patients[0].ID, DoctorID: seedDoctorID, Duration: 180,
				RecordedAt: time.Date(2025, time.January, 10, 10, 30, 0, 0, time.UTC), Status: StatusSummarized,
				FileSize: ptr(2048.0), Format: ptr("wav"), Location: ptr("storage/2025/01/recording1.wav"),
			},
			{
				PatientID: res.Patients[1].ID, DoctorID: seedDoctorID, Duration: 240,
				RecordedAt: time.Date(2025, time.January, 11, 14, 15, 0, 0, time.UTC), Status: StatusTranscribed,
				FileSize: ptr(3072.0), Format: ptr("mp3"), Location: ptr("storage/2025/01/recording2.mp3"),
			},
		} {
			v, err := svc.CreateVoiceNote(ctx, in)
			if err != nil {
				return err
			}
			res.VoiceNotes = append(res.VoiceNotes, v)
		}

		s, err := svc.CreateSummary(ctx, CreateSummaryInput{
			VoiceNoteID: res.VoiceNotes[0].ID,
			Content: "Patient reports recurring headaches and fatigue over the past week. " +
				"No fever or other symptoms. Prescribed rest, hydration, and over-the-counter pain relief.",
			KeyPoints:       []string{"Headache", "Fatigue", "No fever"},
			Recommendations: []string{"Rest", "Hydration", "OTC pain relief", "Follow-up in 1 week"},
			GeneratedAt:     time.Date(2025, time.January, 10, 10, 35, 0, 0, time.UTC),
		})
		if err != nil {
			return err
		}
		res.Summaries = append(res.Summaries, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return res, nil
}
