package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openhealth/openhealth/internal/model"
	"github.com/openhealth/openhealth/internal/store"
)

// NewWithDB constructs a SQLite-backed store on an existing connection.
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

// New opens (or creates) the database file, applies the schema and
// returns a ready store.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := Bootstrap(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Profiles() store.Profiles       { return &profiles{db: s.db} }
func (s *sqliteStore) Vitals() store.Vitals           { return &vitals{db: s.db} }
func (s *sqliteStore) Symptoms() store.Symptoms       { return &symptoms{db: s.db} }
func (s *sqliteStore) Medications() store.Medications { return &medications{db: s.db} }

// HealthPing implements health.HealthPinger for the SQLite-backed store.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Profiles ---

type profiles struct{ db *sql.DB }

func (p *profiles) Create(ctx context.Context, in *model.UserProfile) (*model.UserProfile, error) {
	now := time.Now().UTC()
	condJSON, _ := json.Marshal(in.Conditions)
	_, err := p.db.ExecContext(ctx, `INSERT INTO profiles (user_id, age, sex, conditions, creation_time) VALUES (?,?,?,?,?)`,
		in.UserID, in.Age, in.Sex, string(condJSON), now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("profile %s already exists: %w", in.UserID, model.ErrConflict)
		}
		return nil, err
	}
	out := *in
	out.CreationTime = now
	return &out, nil
}

func (p *profiles) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	row := p.db.QueryRowContext(ctx, `SELECT user_id, age, sex, conditions, creation_time FROM profiles WHERE user_id = ?`, userID)
	return scanProfile(row)
}

func (p *profiles) Update(ctx context.Context, in *model.UserProfile) (*model.UserProfile, error) {
	condJSON, _ := json.Marshal(in.Conditions)
	res, err := p.db.ExecContext(ctx, `UPDATE profiles SET age = ?, sex = ?, conditions = ? WHERE user_id = ?`,
		in.Age, in.Sex, string(condJSON), in.UserID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return p.Get(ctx, in.UserID)
}

func scanProfile(row *sql.Row) (*model.UserProfile, error) {
	var out model.UserProfile
	var condJSON string
	err := row.Scan(&out.UserID, &out.Age, &out.Sex, &condJSON, &out.CreationTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(condJSON), &out.Conditions)
	return &out, nil
}

// --- Vitals ---

type vitals struct{ db *sql.DB }

func (v *vitals) Append(ctx context.Context, r *model.VitalReading) (*model.VitalReading, error) {
	now := time.Now().UTC()
	id := uuid.New().String()
	res, err := v.db.ExecContext(ctx, `INSERT INTO vitals (reading_id, user_id, kind, value, unit, ts, note) VALUES (?,?,?,?,?,?,?)`,
		id, r.UserID, string(r.Kind), r.Value, r.Unit, now, r.Note)
	if err != nil {
		return nil, err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	out := *r
	out.ReadingID = id
	out.Timestamp = now
	out.Seq = seq
	return &out, nil
}

func (v *vitals) List(ctx context.Context, req model.ListVitalsRequest) ([]*model.VitalReading, error) {
	q := `SELECT seq, reading_id, user_id, kind, value, unit, ts, note FROM vitals WHERE user_id = ?`
	args := []interface{}{req.UserID}
	if req.Kind != nil {
		q += " AND kind = ?"
		args = append(args, string(*req.Kind))
	}
	if req.After != nil {
		q += " AND ts >= ?"
		args = append(args, req.After.UTC())
	}
	if req.Before != nil {
		q += " AND ts < ?"
		args = append(args, req.Before.UTC())
	}
	q += " ORDER BY ts ASC, seq ASC"
	if req.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", req.Limit)
	}

	rows, err := v.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.VitalReading
	for rows.Next() {
		var r model.VitalReading
		var kind string
		if err := rows.Scan(&r.Seq, &r.ReadingID, &r.UserID, &kind, &r.Value, &r.Unit, &r.Timestamp, &r.Note); err != nil {
			return nil, err
		}
		r.Kind = model.MetricKind(kind)
		r.Timestamp = r.Timestamp.UTC()
		out = append(out, &r)
	}
	return out, rows.Err()
}

// --- Symptoms ---

type symptoms struct{ db *sql.DB }

func (s *symptoms) Append(ctx context.Context, e *model.SymptomEntry) (*model.SymptomEntry, error) {
	now := time.Now().UTC()
	id := uuid.New().String()
	res, err := s.db.ExecContext(ctx, `INSERT INTO symptoms (entry_id, user_id, symptom, severity, ts, note) VALUES (?,?,?,?,?,?)`,
		id, e.UserID, e.Symptom, e.Severity, now, e.Note)
	if err != nil {
		return nil, err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	out := *e
	out.EntryID = id
	out.Timestamp = now
	out.Seq = seq
	return &out, nil
}

func (s *symptoms) List(ctx context.Context, req model.ListSymptomsRequest) ([]*model.SymptomEntry, error) {
	q := `SELECT seq, entry_id, user_id, symptom, severity, ts, note FROM symptoms WHERE user_id = ?`
	args := []interface{}{req.UserID}
	if req.After != nil {
		q += " AND ts >= ?"
		args = append(args, req.After.UTC())
	}
	if req.Before != nil {
		q += " AND ts < ?"
		args = append(args, req.Before.UTC())
	}
	q += " ORDER BY ts ASC, seq ASC"
	if req.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", req.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.SymptomEntry
	for rows.Next() {
		var e model.SymptomEntry
		if err := rows.Scan(&e.Seq, &e.EntryID, &e.UserID, &e.Symptom, &e.Severity, &e.Timestamp, &e.Note); err != nil {
			return nil, err
		}
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, &e)
	}
	return out, rows.Err()
}

// --- Medications ---

type medications struct{ db *sql.DB }

func (m *medications) Create(ctx context.Context, in *model.MedicationEntry) (*model.MedicationEntry, error) {
	id := uuid.New().String()
	start := in.StartDate
	if start.IsZero() {
		start = time.Now().UTC()
	}
	_, err := m.db.ExecContext(ctx, `INSERT INTO medications (medication_id, user_id, name, dosage, frequency, start_date, end_date) VALUES (?,?,?,?,?,?,?)`,
		id, in.UserID, in.Name, in.Dosage, in.Frequency, start.UTC(), in.EndDate)
	if err != nil {
		return nil, err
	}
	out := *in
	out.MedicationID = id
	out.StartDate = start.UTC()
	return &out, nil
}

func (m *medications) List(ctx context.Context, userID string) ([]*model.MedicationEntry, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT medication_id, user_id, name, dosage, frequency, start_date, end_date FROM medications WHERE user_id = ? ORDER BY start_date ASC, medication_id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.MedicationEntry
	for rows.Next() {
		var e model.MedicationEntry
		if err := rows.Scan(&e.MedicationID, &e.UserID, &e.Name, &e.Dosage, &e.Frequency, &e.StartDate, &e.EndDate); err != nil {
			return nil, err
		}
		e.StartDate = e.StartDate.UTC()
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (m *medications) Discontinue(ctx context.Context, userID, medicationID string, end time.Time) (*model.MedicationEntry, error) {
	res, err := m.db.ExecContext(ctx, `UPDATE medications SET end_date = ? WHERE user_id = ? AND medication_id = ?`,
		end.UTC(), userID, medicationID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	row := m.db.QueryRowContext(ctx, `SELECT medication_id, user_id, name, dosage, frequency, start_date, end_date FROM medications WHERE user_id = ? AND medication_id = ?`, userID, medicationID)
	var e model.MedicationEntry
	if err := row.Scan(&e.MedicationID, &e.UserID, &e.Name, &e.Dosage, &e.Frequency, &e.StartDate, &e.EndDate); err != nil {
		return nil, err
	}
	e.StartDate = e.StartDate.UTC()
	return &e, nil
}
