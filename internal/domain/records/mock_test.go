package records

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinicvoice/clinicvoice/pkg/pagination"
)

// memStore backs the in-memory repositories. One mutex makes every
// operation, cascade deletes included, atomic like a store transaction.
type memStore struct {
	mu        sync.Mutex
	patients  map[uuid.UUID]*Patient
	notes     map[uuid.UUID]*VoiceNote
	summaries map[uuid.UUID]*Summary
	clock     time.Time
	err       error
}

func newMemStore() *memStore {
	return &memStore{
		patients:  make(map[uuid.UUID]*Patient),
		notes:     make(map[uuid.UUID]*VoiceNote),
		summaries: make(map[uuid.UUID]*Summary),
		clock:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick advances a fake clock so creation order is observable.
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) repos() (*memPatientRepo, *memVoiceNoteRepo, *memSummaryRepo) {
	return &memPatientRepo{m}, &memVoiceNoteRepo{m}, &memSummaryRepo{m}
}

func (m *memStore) service() *Service {
	p, v, s := m.repos()
	return NewService(p, v, s)
}

func copyPatient(p *Patient) *Patient {
	cp := *p
	cp.VoiceNotes = nil
	return &cp
}

func copyVoiceNote(v *VoiceNote) *VoiceNote {
	cp := *v
	cp.Patient = nil
	cp.Summaries = nil
	return &cp
}

func copySummary(s *Summary) *Summary {
	cp := *s
	cp.VoiceNote = nil
	return &cp
}

func (m *memStore) notesFor(f VoiceNoteFilter) []*VoiceNote {
	out := []*VoiceNote{}
	for _, v := range m.notes {
		if f.PatientID != nil && v.PatientID != *f.PatientID {
			continue
		}
		out = append(out, copyVoiceNote(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	return out
}

func (m *memStore) summariesFor(f SummaryFilter) []*Summary {
	out := []*Summary{}
	for _, s := range m.summaries {
		if f.VoiceNoteID != nil && s.VoiceNoteID != *f.VoiceNoteID {
			continue
		}
		out = append(out, copySummary(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out
}

func (m *memStore) withNoteRelations(v *VoiceNote, rel VoiceNoteRelations) {
	if rel.WithPatient {
		v.Patient = copyPatient(m.patients[v.PatientID])
	}
	if rel.WithSummaries {
		v.Summaries = m.summariesFor(SummaryFilter{VoiceNoteID: &v.ID})
	}
}

func (m *memStore) withSummaryRelations(s *Summary, rel SummaryRelations) {
	if !rel.WithVoiceNote && !rel.WithVoiceNotePatient {
		return
	}
	s.VoiceNote = copyVoiceNote(m.notes[s.VoiceNoteID])
	if rel.WithVoiceNotePatient {
		s.VoiceNote.Patient = copyPatient(m.patients[s.VoiceNote.PatientID])
	}
}

// -- Patients --

type memPatientRepo struct{ m *memStore }

func (r *memPatientRepo) Create(_ context.Context, in CreatePatientInput) (*Patient, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return nil, r.m.err
	}
	now := r.m.tick()
	p := &Patient{
		ID:          uuid.New(),
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		DateOfBirth: in.DateOfBirth,
		Email:       in.Email,
		Phone:       in.Phone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.m.patients[p.ID] = p
	return copyPatient(p), nil
}

func (r *memPatientRepo) GetByID(_ context.Context, id uuid.UUID, rel PatientRelations) (*Patient, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return nil, r.m.err
	}
	p, ok := r.m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyPatient(p)
	if rel.WithVoiceNotes {
		out.VoiceNotes = r.m.notesFor(VoiceNoteFilter{PatientID: &id})
	}
	return out, nil
}

func (r *memPatientRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return false, r.m.err
	}
	_, ok := r.m.patients[id]
	return ok, nil
}

func (r *memPatientRepo) List(_ context.Context, page pagination.Params) ([]*Patient, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return nil, r.m.err
	}
	out := []*Patient{}
	for _, p := range r.m.patients {
		out = append(out, copyPatient(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paged(out, page), nil
}

func (r *memPatientRepo) Update(_ context.Context, id uuid.UUID, in UpdatePatientInput) (*Patient, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return nil, r.m.err
	}
	p, ok := r.m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	if in.IsEmpty() {
		return copyPatient(p), nil
	}
	if in.FirstName != nil {
		p.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		p.LastName = *in.LastName
	}
	if in.DateOfBirth != nil {
		p.DateOfBirth = *in.DateOfBirth
	}
	if in.Email != nil {
		p.Email = in.Email
	}
	if in.Phone != nil {
		p.Phone = in.Phone
	}
	p.UpdatedAt = r.m.tick()
	return copyPatient(p), nil
}

func (r *memPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return r.m.err
	}
	if _, ok := r.m.patients[id]; !ok {
		return ErrNotFound
	}
	for nid, v := range r.m.notes {
		if v.PatientID != id {
			continue
		}
		for sid, s := range r.m.summaries {
			if s.VoiceNoteID == nid {
				delete(r.m.summaries, sid)
			}
		}
		delete(r.m.notes, nid)
	}
	delete(r.m.patients, id)
	return nil
}

// -- Voice notes --

type memVoiceNoteRepo struct{ m *memStore }

func (r *memVoiceNoteRepo) Create(_ context.Context, in CreateVoiceNoteInput) (*VoiceNote, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return nil, r.m.err
	}
	if _, ok := r.m.patients[in.PatientID]; !ok {
		return nil, &ReferenceError{Resource: "Patient"}
	}
	now := r.m.tick()
	v := &VoiceNote{
		ID:         uuid.New(),
		PatientID:  in.PatientID,
		DoctorID:   in.DoctorID,
		Duration:   in.Duration,
		RecordedAt: in.RecordedAt,
		Status:     in.Status,
		FileSize:   in.FileSize,
		Format:     in.Format,
		Location:   in.Location,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.m.notes[v.ID] = v
	return copyVoiceNote(v), nil
}

func (r *memVoiceNoteRepo) GetByID(_ context.Context, id uuid.UUID, rel VoiceNoteRelations) (*VoiceNote, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return nil, r.m.err
	}
	v, ok := r.m.notes[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyVoiceNote(v)
	r.m.withNoteRelations(out, rel)
	return out, nil
}

func (r *memVoiceNoteRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return false, r.m.err
	}
	_, ok := r.m.notes[id]
	return ok, nil
}

func (r *memVoiceNoteRepo) List(_ context.Context, f VoiceNoteFilter, page pagination.Params, rel VoiceNoteRelations) ([]*VoiceNote, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return nil, r.m.err
	}
	out := paged(r.m.notesFor(f), page)
	for _, v := range out {
		r.m.withNoteRelations(v, rel)
	}
	return out, nil
}

func (r *memVoiceNoteRepo) Update(_ context.Context, id uuid.UUID, in UpdateVoiceNoteInput) (*VoiceNote, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return nil, r.m.err
	}
	v, ok := r.m.notes[id]
	if !ok {
		return nil, ErrNotFound
	}
	if in.IsEmpty() {
		return copyVoiceNote(v), nil
	}
	if in.PatientID != nil {
		if _, ok := r.m.patients[*in.PatientID]; !ok {
			return nil, &ReferenceError{Resource: "Patient"}
		}
		v.PatientID = *in.PatientID
	}
	if in.DoctorID != nil {
		v.DoctorID = *in.DoctorID
	}
	if in.Duration != nil {
		v.Duration = *in.Duration
	}
	if in.RecordedAt != nil {
		v.RecordedAt = *in.RecordedAt
	}
	if in.Status != nil {
		v.Status = *in.Status
	}
	if in.FileSize != nil {
		v.FileSize = in.FileSize
	}
	if in.Format != nil {
		v.Format = in.Format
	}
	if in.Location != nil {
		v.Location = in.Location
	}
	v.UpdatedAt = r.m.tick()
	return copyVoiceNote(v), nil
}

func (r *memVoiceNoteRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return r.m.err
	}
	if _, ok := r.m.notes[id]; !ok {
		return ErrNotFound
	}
	for sid, s := range r.m.summaries {
		if s.VoiceNoteID == id {
			delete(r.m.summaries, sid)
		}
	}
	delete(r.m.notes, id)
	return nil
}

// -- Summaries --

type memSummaryRepo struct{ m *memStore }

func (r *memSummaryRepo) Create(_ context.Context, in CreateSummaryInput) (*Summary, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return nil, r.m.err
	}
	if _, ok := r.m.notes[in.VoiceNoteID]; !ok {
		return nil, &ReferenceError{Resource: "Voice note"}
	}
	now := r.m.tick()
	s := &Summary{
		ID:              uuid.New(),
		VoiceNoteID:     in.VoiceNoteID,
		Content:         in.Content,
		KeyPoints:       in.KeyPoints,
		Recommendations: in.Recommendations,
		GeneratedAt:     in.GeneratedAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.m.summaries[s.ID] = s
	return copySummary(s), nil
}

func (r *memSummaryRepo) GetByID(_ context.Context, id uuid.UUID, rel SummaryRelations) (*Summary, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return nil, r.m.err
	}
	s, ok := r.m.summaries[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copySummary(s)
	r.m.withSummaryRelations(out, rel)
	return out, nil
}

func (r *memSummaryRepo) List(_ context.Context, f SummaryFilter, page pagination.Params, rel SummaryRelations) ([]*Summary, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return nil, r.m.err
	}
	out := paged(r.m.summariesFor(f), page)
	for _, s := range out {
		r.m.withSummaryRelations(s, rel)
	}
	return out, nil
}

// paged applies p to an in-memory result set the way LIMIT/OFFSET would.
func paged[T any](items []T, p pagination.Params) []T {
	if p.Offset >= len(items) {
		return items[:0]
	}
	items = items[p.Offset:]
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}
