package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"medication-refill-tracker/internal/models"
	"medication-refill-tracker/internal/utils"
)

//go:embed schema.sql
var ddl embed.FS

type DB struct{ *sql.DB }

func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	if err = migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DB{db}, nil
}

func migrate(db *sql.DB) error {
	b, err := ddl.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}

var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a ULID. Monotonic entropy keeps ids created within the same
// millisecond in creation order.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Now(), idEntropy).String()
}

// ---------- medications -----------------------------------------------------

const selectColumns = `id, name, dosage, schedule, stock, refill_threshold, expires_on, last_taken, image_url`

func (d *DB) List(ctx context.Context) ([]models.Medication, error) {
	rows, err := d.QueryContext(ctx, `SELECT `+selectColumns+` FROM medications ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (d *DB) Get(ctx context.Context, id string) (*models.Medication, error) {
	row := d.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM medications WHERE id = ?`, id)
	m, err := scanMedication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Insert stores m, assigning an id when it has none, and returns the stored row.
func (d *DB) Insert(ctx context.Context, m models.Medication) (models.Medication, error) {
	if m.ID == "" {
		m.ID = NewID()
	}
	schedule, err := json.Marshal(nonNil(m.Schedule))
	if err != nil {
		return m, err
	}
	_, err = d.ExecContext(ctx, `
        INSERT INTO medications
          (id, name, dosage, schedule, stock, refill_threshold, expires_on, last_taken, image_url, created_at)
        VALUES (?,?,?,?,?,?,?,?,?,?)
    `, m.ID, m.Name, m.Dosage, string(schedule), m.Stock, m.RefillThreshold,
		m.ExpiresOn.Format(utils.DateLayout), unixOrNil(m.LastTaken), nullString(m.ImageURL), time.Now().Unix())
	if err != nil {
		return m, fmt.Errorf("insert medication: %w", err)
	}
	return m, nil
}

// Update writes only the fields set in patch.
func (d *DB) Update(ctx context.Context, id string, patch models.MedicationPatch) error {
	sets, args, err := buildUpdate(patch)
	if err != nil {
		return err
	}
	args = append(args, id)
	res, err := d.ExecContext(ctx,
		`UPDATE medications SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update medication %s: %w", id, err)
	}
	return requireRow(res)
}

func (d *DB) Delete(ctx context.Context, id string) error {
	res, err := d.ExecContext(ctx, `DELETE FROM medications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete medication %s: %w", id, err)
	}
	return requireRow(res)
}

// buildUpdate maps patch fields to columns, sorted so the statement is stable.
func buildUpdate(p models.MedicationPatch) ([]string, []any, error) {
	fields := map[string]any{}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Dosage != nil {
		fields["dosage"] = *p.Dosage
	}
	if p.Schedule != nil {
		b, err := json.Marshal(p.Schedule)
		if err != nil {
			return nil, nil, err
		}
		fields["schedule"] = string(b)
	}
	if p.Stock != nil {
		fields["stock"] = *p.Stock
	}
	if p.RefillThreshold != nil {
		fields["refill_threshold"] = *p.RefillThreshold
	}
	if p.ExpiresOn != nil {
		fields["expires_on"] = p.ExpiresOn.Format(utils.DateLayout)
	}
	if p.LastTaken != nil {
		fields["last_taken"] = p.LastTaken.Unix()
	}
	if p.ImageURL != nil {
		fields["image_url"] = nullString(*p.ImageURL)
	}
	if len(fields) == 0 {
		return nil, nil, fmt.Errorf("no fields to update: %w", models.ErrBadRequest)
	}

	cols := make([]string, 0, len(fields))
	for k := range fields {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, c := range cols {
		sets = append(sets, c+" = ?")
		args = append(args, fields[c])
	}
	return sets, args, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMedication(s scanner) (models.Medication, error) {
	var (
		m         models.Medication
		schedule  string
		expiresOn string
		lastTaken sql.NullInt64
		imageURL  sql.NullString
	)
	if err := s.Scan(&m.ID, &m.Name, &m.Dosage, &schedule, &m.Stock, &m.RefillThreshold,
		&expiresOn, &lastTaken, &imageURL); err != nil {
		return m, err
	}
	if err := json.Unmarshal([]byte(schedule), &m.Schedule); err != nil {
		return m, fmt.Errorf("medication %s: schedule: %w", m.ID, err)
	}
	exp, err := utils.ParseDate(expiresOn)
	if err != nil {
		return m, fmt.Errorf("medication %s: expires_on: %w", m.ID, err)
	}
	m.ExpiresOn = exp
	if lastTaken.Valid {
		t := time.Unix(lastTaken.Int64, 0).UTC()
		m.LastTaken = &t
	}
	m.ImageURL = imageURL.String
	return m, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
