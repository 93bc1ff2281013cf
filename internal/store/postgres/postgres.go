package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/openhealth/openhealth/internal/model"
	"github.com/openhealth/openhealth/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and
// verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres-backed store on an existing connection.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

// New opens the DSN, applies the schema and returns a ready store.
func New(dsn string) (store.Store, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := Bootstrap(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

type pgStore struct{ db *sql.DB }

func (s *pgStore) Profiles() store.Profiles       { return &profiles{db: s.db} }
func (s *pgStore) Vitals() store.Vitals           { return &vitals{db: s.db} }
func (s *pgStore) Symptoms() store.Symptoms       { return &symptoms{db: s.db} }
func (s *pgStore) Medications() store.Medications { return &medications{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Bootstrap creates the metrics-log tables when missing.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id       TEXT PRIMARY KEY,
			age           INTEGER,
			sex           TEXT,
			conditions    JSONB NOT NULL DEFAULT '[]',
			creation_time TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS vitals (
			seq        BIGSERIAL PRIMARY KEY,
			reading_id TEXT NOT NULL UNIQUE,
			user_id    TEXT NOT NULL,
			kind       TEXT NOT NULL,
			value      DOUBLE PRECISION NOT NULL,
			unit       TEXT NOT NULL,
			ts         TIMESTAMPTZ NOT NULL,
			note       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vitals_user_kind_ts ON vitals (user_id, kind, ts)`,
		`CREATE TABLE IF NOT EXISTS symptoms (
			seq      BIGSERIAL PRIMARY KEY,
			entry_id TEXT NOT NULL UNIQUE,
			user_id  TEXT NOT NULL,
			symptom  TEXT NOT NULL,
			severity INTEGER NOT NULL,
			ts       TIMESTAMPTZ NOT NULL,
			note     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_symptoms_user_ts ON symptoms (user_id, ts)`,
		`CREATE TABLE IF NOT EXISTS medications (
			medication_id TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			name          TEXT NOT NULL,
			dosage        TEXT NOT NULL,
			frequency     TEXT NOT NULL,
			start_date    TIMESTAMPTZ NOT NULL,
			end_date      TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_medications_user ON medications (user_id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres bootstrap: %w", err)
		}
	}
	return nil
}

// --- Profiles ---

type profiles struct{ db *sql.DB }

func (p *profiles) Create(ctx context.Context, in *model.UserProfile) (*model.UserProfile, error) {
	now := time.Now().UTC()
	condJSON, _ := json.Marshal(in.Conditions)
	_, err := p.db.ExecContext(ctx, `
        INSERT INTO profiles (user_id, age, sex, conditions, creation_time)
        VALUES ($1,$2,$3,$4,$5)
    `, in.UserID, in.Age, in.Sex, string(condJSON), now)
	if err != nil {
		if strings.Contains(err.Error(), "23505") {
			return nil, fmt.Errorf("profile %s already exists: %w", in.UserID, model.ErrConflict)
		}
		return nil, err
	}
	out := *in
	out.CreationTime = now
	return &out, nil
}

func (p *profiles) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	row := p.db.QueryRowContext(ctx, `
        SELECT user_id, age, sex, conditions, creation_time FROM profiles WHERE user_id=$1
    `, userID)
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

func (p *profiles) Update(ctx context.Context, in *model.UserProfile) (*model.UserProfile, error) {
	condJSON, _ := json.Marshal(in.Conditions)
	res, err := p.db.ExecContext(ctx, `
        UPDATE profiles SET age=$1, sex=$2, conditions=$3 WHERE user_id=$4
    `, in.Age, in.Sex, string(condJSON), in.UserID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return p.Get(ctx, in.UserID)
}

// --- Vitals ---

type vitals struct{ db *sql.DB }

func (v *vitals) Append(ctx context.Context, r *model.VitalReading) (*model.VitalReading, error) {
	now := time.Now().UTC()
	id := uuid.New().String()
	var seq int64
	row := v.db.QueryRowContext(ctx, `
        INSERT INTO vitals (reading_id, user_id, kind, value, unit, ts, note)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING seq
    `, id, r.UserID, string(r.Kind), r.Value, r.Unit, now, r.Note)
	if err := row.Scan(&seq); err != nil {
		return nil, err
	}
	out := *r
	out.ReadingID = id
	out.Timestamp = now
	out.Seq = seq
	return &out, nil
}

func (v *vitals) List(ctx context.Context, req model.ListVitalsRequest) ([]*model.VitalReading, error) {
	q := `SELECT seq, reading_id, user_id, kind, value, unit, ts, note FROM vitals WHERE user_id=$1`
	args := []interface{}{req.UserID}
	n := 1
	if req.Kind != nil {
		n++
		q += fmt.Sprintf(" AND kind=$%d", n)
		args = append(args, string(*req.Kind))
	}
	if req.After != nil {
		n++
		q += fmt.Sprintf(" AND ts >= $%d", n)
		args = append(args, req.After.UTC())
	}
	if req.Before != nil {
		n++
		q += fmt.Sprintf(" AND ts < $%d", n)
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
	var seq int64
	row := s.db.QueryRowContext(ctx, `
        INSERT INTO symptoms (entry_id, user_id, symptom, severity, ts, note)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING seq
    `, id, e.UserID, e.Symptom, e.Severity, now, e.Note)
	if err := row.Scan(&seq); err != nil {
		return nil, err
	}
	out := *e
	out.EntryID = id
	out.Timestamp = now
	out.Seq = seq
	return &out, nil
}

func (s *symptoms) List(ctx context.Context, req model.ListSymptomsRequest) ([]*model.SymptomEntry, error) {
	q := `SELECT seq, entry_id, user_id, symptom, severity, ts, note FROM symptoms WHERE user_id=$1`
	args := []interface{}{req.UserID}
	n := 1
	if req.After != nil {
		n++
		q += fmt.Sprintf(" AND ts >= $%d", n)
		args = append(args, req.After.UTC())
	}
	if req.Before != nil {
		n++
		q += fmt.Sprintf(" AND ts < $%d", n)
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
	_, err := m.db.ExecContext(ctx, `
        INSERT INTO medications (medication_id, user_id, name, dosage, frequency, start_date, end_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, id, in.UserID, in.Name, in.Dosage, in.Frequency, start.UTC(), in.EndDate)
	if err != nil {
		return nil, err
	}
	out := *in
	out.MedicationID = id
	out.StartDate = start.UTC()
	return &out, nil
}

func (m *medications) List(ctx context.Context, userID string) ([]*model.MedicationEntry, error) {
	rows, err := m.db.QueryContext(ctx, `
        SELECT medication_id, user_id, name, dosage, frequency, start_date, end_date
        FROM medications WHERE user_id=$1 ORDER BY start_date ASC, medication_id ASC
    `, userID)
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
	row := m.db.QueryRowContext(ctx, `
        UPDATE medications SET end_date=$1 WHERE user_id=$2 AND medication_id=$3
        RETURNING medication_id, user_id, name, dosage, frequency, start_date, end_date
    `, end.UTC(), userID, medicationID)
	var e model.MedicationEntry
	err := row.Scan(&e.MedicationID, &e.UserID, &e.Name, &e.Dosage, &e.Frequency, &e.StartDate, &e.EndDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e.StartDate = e.StartDate.UTC()
	return &e, nil
}
