package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicvoice/clinicvoice/internal/platform/db"
	"github.com/clinicvoice/clinicvoice/pkg/pagination"
)

// Column lists are written against fixed aliases (p, vn, s) so joined reads
// can scan several records from one row.
const (
	patientCols = `p.id, p.first_name, p.last_name, p.date_of_birth, p.email, p.phone,
	p.created_at, p.updated_at`

	voiceNoteCols = `vn.id, vn.patient_id, vn.doctor_id, vn.duration, vn.recorded_at, vn.status,
	vn.file_size, vn.format, vn.location, vn.created_at, vn.updated_at`

	summaryCols = `s.id, s.voice_note_id, s.content, s.key_points, s.recommendations,
	s.generated_at, s.created_at, s.updated_at`
)

const pgForeignKeyViolation = "23503"

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

func (p *Patient) scanDest() []interface{} {
	return []interface{}{
		&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Email, &p.Phone,
		&p.CreatedAt, &p.UpdatedAt,
	}
}

func (v *VoiceNote) scanDest() []interface{} {
	return []interface{}{
		&v.ID, &v.PatientID, &v.DoctorID, &v.Duration, &v.RecordedAt, (*string)(&v.Status),
		&v.FileSize, &v.Format, &v.Location, &v.CreatedAt, &v.UpdatedAt,
	}
}

// summaryRow holds a summary as stored, with its list columns still encoded.
type summaryRow struct {
	Summary
	keyPoints       *string
	recommendations *string
}

func (s *summaryRow) scanDest() []interface{} {
	return []interface{}{
		&s.ID, &s.VoiceNoteID, &s.Content, &s.keyPoints, &s.recommendations,
		&s.GeneratedAt, &s.CreatedAt, &s.UpdatedAt,
	}
}

func (s *summaryRow) decode() (*Summary, error) {
	var err error
	out := s.Summary
	if out.KeyPoints, err = decodeList(s.keyPoints); err != nil {
		return nil, fmt.Errorf("summary %s key points: %w", s.ID, err)
	}
	if out.Recommendations, err = decodeList(s.recommendations); err != nil {
		return nil, fmt.Errorf("summary %s recommendations: %w", s.ID, err)
	}
	return &out, nil
}

// encodeList stores a string list as JSON text. A nil list is NULL; an
// empty list is stored as "[]".
func encodeList(list []string) (*string, error) {
	if list == nil {
		return nil, nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func decodeList(raw *string) ([]string, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	list := []string{}
	if err := json.Unmarshal([]byte(*raw), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

func (r *patientRepoPG) Create(ctx context.Context, in CreatePatientInput) (*Patient, error) {
	var p Patient
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient AS p (first_name, last_name, date_of_birth, email, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+patientCols,
		in.FirstName, in.LastName, in.DateOfBirth, in.Email, in.Phone,
	).Scan(p.scanDest()...)
	if err != nil {
		return nil, fmt.Errorf("patient create: %w", err)
	}
	return &p, nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID, rel PatientRelations) (*Patient, error) {
	var p Patient
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient p WHERE p.id = $1`, id).
		Scan(p.scanDest()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("patient get: %w", err)
	}

	if rel.WithVoiceNotes {
		notes, err := queryVoiceNotes(ctx, r.conn(ctx), VoiceNoteFilter{PatientID: &id}, pagination.Params{}, VoiceNoteRelations{})
		if err != nil {
			return nil, fmt.Errorf("patient voice notes: %w", err)
		}
		p.VoiceNotes = notes
	}
	return &p, nil
}

func (r *patientRepoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patient WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("patient exists: %w", err)
	}
	return exists, nil
}

func (r *patientRepoPG) List(ctx context.Context, page pagination.Params) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patient p ORDER BY p.created_at DESC, p.id`+page.SQL())
	if err != nil {
		return nil, fmt.Errorf("patient list: %w", err)
	}
	defer rows.Close()

	patients := []*Patient{}
	for rows.Next() {
		var p Patient
		if err := rows.Scan(p.scanDest()...); err != nil {
			return nil, fmt.Errorf("patient scan: %w", err)
		}
		patients = append(patients, &p)
	}
	return patients, rows.Err()
}

func (r *patientRepoPG) Update(ctx context.Context, id uuid.UUID, in UpdatePatientInput) (*Patient, error) {
	if in.IsEmpty() {
		return r.GetByID(ctx, id, PatientRelations{})
	}

	var p Patient
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient AS p SET
			first_name    = COALESCE($2, p.first_name),
			last_name     = COALESCE($3, p.last_name),
			date_of_birth = COALESCE($4, p.date_of_birth),
			email         = COALESCE($5, p.email),
			phone         = COALESCE($6, p.phone),
			updated_at    = NOW()
		WHERE p.id = $1
		RETURNING `+patientCols,
		id, in.FirstName, in.LastName, in.DateOfBirth, in.Email, in.Phone,
	).Scan(p.scanDest()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("patient update: %w", err)
	}
	return &p, nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	return db.InTx(ctx, r.pool, func(ctx context.Context) error {
		c := r.conn(ctx)
		if _, err := c.Exec(ctx, `
			DELETE FROM summary
			WHERE voice_note_id IN (SELECT id FROM voice_note WHERE patient_id = $1)`, id); err != nil {
			return fmt.Errorf("patient delete summaries: %w", err)
		}
		if _, err := c.Exec(ctx, `DELETE FROM voice_note WHERE patient_id = $1`, id); err != nil {
			return fmt.Errorf("patient delete voice notes: %w", err)
		}
		tag, err := c.Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("patient delete: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// -- VoiceNote Repository --

type voiceNoteRepoPG struct {
	pool *pgxpool.Pool
}

func NewVoiceNoteRepo(pool *pgxpool.Pool) VoiceNoteRepository {
	return &voiceNoteRepoPG{pool: pool}
}

func (r *voiceNoteRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

func (r *voiceNoteRepoPG) Create(ctx context.Context, in CreateVoiceNoteInput) (*VoiceNote, error) {
	var v VoiceNote
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO voice_note AS vn (
			patient_id, doctor_id, duration, recorded_at, status, file_size, format, location
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+voiceNoteCols,
		in.PatientID, in.DoctorID, in.Duration, in.RecordedAt, string(in.Status),
		in.FileSize, in.Format, in.Location,
	).Scan(v.scanDest()...)
	if isForeignKeyViolation(err) {
		return nil, &ReferenceError{Resource: "Patient"}
	}
	if err != nil {
		return nil, fmt.Errorf("voice note create: %w", err)
	}
	return &v, nil
}

func voiceNoteSelect(rel VoiceNoteRelations) string {
	if rel.WithPatient {
		return `SELECT ` + voiceNoteCols + `, ` + patientCols + `
		FROM voice_note vn JOIN patient p ON p.id = vn.patient_id`
	}
	return `SELECT ` + voiceNoteCols + ` FROM voice_note vn`
}

func scanVoiceNote(row pgx.Row, rel VoiceNoteRelations) (*VoiceNote, error) {
	var v VoiceNote
	dest := v.scanDest()
	if rel.WithPatient {
		v.Patient = &Patient{}
		dest = append(dest, v.Patient.scanDest()...)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *voiceNoteRepoPG) GetByID(ctx context.Context, id uuid.UUID, rel VoiceNoteRelations) (*VoiceNote, error) {
	c := r.conn(ctx)
	v, err := scanVoiceNote(c.QueryRow(ctx, voiceNoteSelect(rel)+` WHERE vn.id = $1`, id), rel)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("voice note get: %w", err)
	}
	if rel.WithSummaries {
		if err := attachSummaries(ctx, c, []*VoiceNote{v}); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (r *voiceNoteRepoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM voice_note WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("voice note exists: %w", err)
	}
	return exists, nil
}

func (r *voiceNoteRepoPG) List(ctx context.Context, f VoiceNoteFilter, page pagination.Params, rel VoiceNoteRelations) ([]*VoiceNote, error) {
	return queryVoiceNotes(ctx, r.conn(ctx), f, page, rel)
}

func queryVoiceNotes(ctx context.Context, c db.Queryable, f VoiceNoteFilter, page pagination.Params, rel VoiceNoteRelations) ([]*VoiceNote, error) {
	query := voiceNoteSelect(rel)
	var args []interface{}
	if f.PatientID != nil {
		query += ` WHERE vn.patient_id = $1`
		args = append(args, *f.PatientID)
	}
	query += ` ORDER BY vn.recorded_at DESC, vn.id` + page.SQL()

	rows, err := c.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("voice note list: %w", err)
	}
	defer rows.Close()

	notes := []*VoiceNote{}
	for rows.Next() {
		v, err := scanVoiceNote(rows, rel)
		if err != nil {
			return nil, fmt.Errorf("voice note scan: %w", err)
		}
		notes = append(notes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("voice note list: %w", err)
	}

	if rel.WithSummaries && len(notes) > 0 {
		if err := attachSummaries(ctx, c, notes); err != nil {
			return nil, err
		}
	}
	return notes, nil
}

// attachSummaries loads the summaries of notes in one query, newest first.
func attachSummaries(ctx context.Context, c db.Queryable, notes []*VoiceNote) error {
	ids := make([]uuid.UUID, len(notes))
	byID := make(map[uuid.UUID]*VoiceNote, len(notes))
	for i, v := range notes {
		ids[i] = v.ID
		v.Summaries = []*Summary{}
		byID[v.ID] = v
	}

	rows, err := c.Query(ctx, `
		SELECT `+summaryCols+` FROM summary s
		WHERE s.voice_note_id = ANY($1::uuid[])
		ORDER BY s.generated_at DESC, s.id`, ids)
	if err != nil {
		return fmt.Errorf("voice note summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row summaryRow
		if err := rows.Scan(row.scanDest()...); err != nil {
			return fmt.Errorf("summary scan: %w", err)
		}
		s, err := row.decode()
		if err != nil {
			return err
		}
		if v := byID[s.VoiceNoteID]; v != nil {
			v.Summaries = append(v.Summaries, s)
		}
	}
	return rows.Err()
}

func (r *voiceNoteRepoPG) Update(ctx context.Context, id uuid.UUID, in UpdateVoiceNoteInput) (*VoiceNote, error) {
	if in.IsEmpty() {
		return r.GetByID(ctx, id, VoiceNoteRelations{})
	}

	var status *string
	if in.Status != nil {
		s := string(*in.Status)
		status = &s
	}

	var v VoiceNote
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE voice_note AS vn SET
			patient_id  = COALESCE($2, vn.patient_id),
			doctor_id   = COALESCE($3, vn.doctor_id),
			duration    = COALESCE($4, vn.duration),
			recorded_at = COALESCE($5, vn.recorded_at),
			status      = COALESCE($6, vn.status),
			file_size   = COALESCE($7, vn.file_size),
			format      = COALESCE($8, vn.format),
			location    = COALESCE($9, vn.location),
			updated_at  = NOW()
		WHERE vn.id = $1
		RETURNING `+voiceNoteCols,
		id, in.PatientID, in.DoctorID, in.Duration, in.RecordedAt, status,
		in.FileSize, in.Format, in.Location,
	).Scan(v.scanDest()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if isForeignKeyViolation(err) {
		return nil, &ReferenceError{Resource: "Patient"}
	}
	if err != nil {
		return nil, fmt.Errorf("voice note update: %w", err)
	}
	return &v, nil
}

func (r *voiceNoteRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	return db.InTx(ctx, r.pool, func(ctx context.Context) error {
		c := r.conn(ctx)
		if _, err := c.Exec(ctx, `DELETE FROM summary WHERE voice_note_id = $1`, id); err != nil {
			return fmt.Errorf("voice note delete summaries: %w", err)
		}
		tag, err := c.Exec(ctx, `DELETE FROM voice_note WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("voice note delete: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// -- Summary Repository --

type summaryRepoPG struct {
	pool *pgxpool.Pool
}

func NewSummaryRepo(pool *pgxpool.Pool) SummaryRepository {
	return &summaryRepoPG{pool: pool}
}

func (r *summaryRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

func (r *summaryRepoPG) Create(ctx context.Context, in CreateSummaryInput) (*Summary, error) {
	keyPoints, err := encodeList(in.KeyPoints)
	if err != nil {
		return nil, fmt.Errorf("summary key points: %w", err)
	}
	recommendations, err := encodeList(in.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("summary recommendations: %w", err)
	}

	var row summaryRow
	err = r.conn(ctx).QueryRow(ctx, `
		INSERT INTO summary AS s (voice_note_id, content, key_points, recommendations, generated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+summaryCols,
		in.VoiceNoteID, in.Content, keyPoints, recommendations, in.GeneratedAt,
	).Scan(row.scanDest()...)
	if isForeignKeyViolation(err) {
		return nil, &ReferenceError{Resource: "Voice note"}
	}
	if err != nil {
		return nil, fmt.Errorf("summary create: %w", err)
	}
	return row.decode()
}

func summarySelect(rel SummaryRelations) string {
	switch {
	case rel.WithVoiceNotePatient:
		return `SELECT ` + summaryCols + `, ` + voiceNoteCols + `, ` + patientCols + `
		FROM summary s
		JOIN voice_note vn ON vn.id = s.voice_note_id
		JOIN patient p ON p.id = vn.patient_id`
	case rel.WithVoiceNote:
		return `SELECT ` + summaryCols + `, ` + voiceNoteCols + `
		FROM summary s JOIN voice_note vn ON vn.id = s.voice_note_id`
	default:
		return `SELECT ` + summaryCols + ` FROM summary s`
	}
}

func scanSummary(row pgx.Row, rel SummaryRelations) (*Summary, error) {
	var sr summaryRow
	dest := sr.scanDest()
	var vn *VoiceNote
	if rel.WithVoiceNote || rel.WithVoiceNotePatient {
		vn = &VoiceNote{}
		dest = append(dest, vn.scanDest()...)
		if rel.WithVoiceNotePatient {
			vn.Patient = &Patient{}
			dest = append(dest, vn.Patient.scanDest()...)
		}
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	s, err := sr.decode()
	if err != nil {
		return nil, err
	}
	s.VoiceNote = vn
	return s, nil
}

func (r *summaryRepoPG) GetByID(ctx context.Context, id uuid.UUID, rel SummaryRelations) (*Summary, error) {
	s, err := scanSummary(r.conn(ctx).QueryRow(ctx, summarySelect(rel)+` WHERE s.id = $1`, id), rel)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("summary get: %w", err)
	}
	return s, nil
}

func (r *summaryRepoPG) List(ctx context.Context, f SummaryFilter, page pagination.Params, rel SummaryRelations) ([]*Summary, error) {
	query := summarySelect(rel)
	var args []interface{}
	if f.VoiceNoteID != nil {
		query += ` WHERE s.voice_note_id = $1`
		args = append(args, *f.VoiceNoteID)
	}
	query += ` ORDER BY s.generated_at DESC, s.id` + page.SQL()

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("summary list: %w", err)
	}
	defer rows.Close()

	summaries := []*Summary{}
	for rows.Next() {
		s, err := scanSummary(rows, rel)
		if err != nil {
			return nil, fmt.Errorf("summary scan: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
