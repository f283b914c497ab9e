package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/patientbook/internal/record"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - patients + store_meta
const currentSchemaVersion = 1

const (
	metaGeneration  = "generation"
	metaSavedAt     = "saved_at"
	metaRecordCount = "record_count"
)

// Meta describes the last successful save of a durable file.
type Meta struct {
	Generation  string    `json:"generation,omitempty"`
	SavedAt     time.Time `json:"saved_at,omitempty"`
	RecordCount int       `json:"record_count"`
}

// selectColumns is the canonical column list joined for SELECT/INSERT.
var selectColumns = strings.Join(record.Columns, ", ")

// ReadFile reads a durable file without modifying it.
//
// All failures are *record.Error with ErrCodeCorruptStore: the file is not a
// database, the patients table or one of its columns is missing, the schema
// is newer than this build, or a cell cannot be parsed. The caller checks
// existence first; ReadFile on a missing path fails.
func ReadFile(path string) ([]record.Patient, Meta, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, Meta{}, record.NewCorruptStoreError(path, "cannot open file", err)
	}
	defer db.Close()

	if err := checkSchema(db); err != nil {
		return nil, Meta{}, record.NewCorruptStoreError(path, "invalid table layout", err)
	}

	rows, err := readPatients(db)
	if err != nil {
		return nil, Meta{}, record.NewCorruptStoreError(path, "cannot read records", err)
	}

	meta, err := readMeta(db)
	if err != nil {
		return nil, Meta{}, record.NewCorruptStoreError(path, "cannot read metadata", err)
	}

	return rows, meta, nil
}

// checkSchema verifies the patients table has every required column.
func checkSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	rows, err := db.Query("SELECT name FROM pragma_table_info('patients')")
	if err != nil {
		return fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan column: %w", err)
		}
		present[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate columns: %w", err)
	}

	if len(present) == 0 {
		return errors.New("missing table patients")
	}

	var missing []string
	for _, col := range record.Columns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// readPatients returns all rows in table order.
func readPatients(db *sql.DB) ([]record.Patient, error) {
	rows, err := db.Query("SELECT " + selectColumns + " FROM patients ORDER BY rowid ASC")
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	patients := []record.Patient{}
	line := 0
	for rows.Next() {
		line++
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return patients, nil
}

// scanPatient scans one row in canonical column order.
func scanPatient(rows *sql.Rows) (record.Patient, error) {
	var (
		serial                                                  sql.NullInt64
		name, email, gender, address, phone, aadhar, occupation sql.NullString
		symptoms, treatment, start, end, photo, satisfied       sql.NullString
		age                                                     sql.NullInt64
		dismissed                                               sql.NullBool
	)
	if err := rows.Scan(
		&serial, &name, &email, &age, &gender, &address, &phone, &aadhar,
		&occupation, &symptoms, &treatment, &start, &end, &photo, &satisfied, &dismissed,
	); err != nil {
		return record.Patient{}, fmt.Errorf("scan: %w", err)
	}

	if !serial.Valid || serial.Int64 <= 0 {
		return record.Patient{}, errors.New("missing or non-positive serial_no")
	}

	p := record.Patient{
		SerialNo:           serial.Int64,
		Name:               name.String,
		Email:              email.String,
		Address:            address.String,
		Phone:              phone.String,
		AadharNo:           aadhar.String,
		Occupation:         occupation.String,
		Symptoms:           symptoms.String,
		Treatment:          treatment.String,
		PhotoRef:           photo.String,
		DuplicateDismissed: dismissed.Valid && dismissed.Bool,
	}
	if age.Valid {
		if age.Int64 < 0 {
			return record.Patient{}, fmt.Errorf("negative age %d", age.Int64)
		}
		a := int(age.Int64)
		p.Age = &a
	}

	var err error
	if p.Gender, err = record.ParseGender(gender.String); err != nil {
		return record.Patient{}, err
	}
	if p.Satisfied, err = record.ParseSatisfaction(satisfied.String); err != nil {
		return record.Patient{}, err
	}
	if p.StartDate, err = record.ParseDate(start.String); err != nil {
		return record.Patient{}, err
	}
	if p.EndDate, err = record.ParseDate(end.String); err != nil {
		return record.Patient{}, err
	}
	return p, nil
}

// readMeta reads store_meta. Files without the table yield an empty Meta.
func readMeta(db *sql.DB) (Meta, error) {
	var n int
	if err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'store_meta'",
	).Scan(&n); err != nil {
		return Meta{}, fmt.Errorf("lookup store_meta: %w", err)
	}
	if n == 0 {
		return Meta{}, nil
	}

	rows, err := db.Query("SELECT key, value FROM store_meta")
	if err != nil {
		return Meta{}, fmt.Errorf("query store_meta: %w", err)
	}
	defer rows.Close()

	var meta Meta
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Meta{}, fmt.Errorf("scan store_meta: %w", err)
		}
		switch key {
		case metaGeneration:
			meta.Generation = value
		case metaSavedAt:
			if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
				meta.SavedAt = t
			}
		case metaRecordCount:
			if c, err := strconv.Atoi(value); err == nil {
				meta.RecordCount = c
			}
		}
	}
	if err := rows.Err(); err != nil {
		return Meta{}, fmt.Errorf("iterate store_meta: %w", err)
	}
	return meta, nil
}

// WriteFile creates a data file at path holding patients exactly as given,
// colliding serial numbers included. It is the counterpart of ReadFile; path
// must not exist yet.
func WriteFile(path string, patients []record.Patient, meta Meta) error {
	return writeFile(path, patients, meta)
}

// writeFile creates a complete durable file at path, which must not exist.
// The file is closed (and therefore fully on disk) when writeFile returns nil.
func writeFile(path string, patients []record.Patient, meta Meta) (err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close database: %w", closeErr)
		}
	}()

	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		return fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(record.Columns)), ", ")
	stmt, err := tx.Prepare("INSERT INTO patients (" + selectColumns + ") VALUES (" + placeholders + ")")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range patients {
		if _, err := stmt.Exec(patientArgs(p)...); err != nil {
			return fmt.Errorf("insert serial %d: %w", p.SerialNo, err)
		}
	}

	metaRows := [][2]string{
		{metaGeneration, meta.Generation},
		{metaSavedAt, meta.SavedAt.UTC().Format(time.RFC3339Nano)},
		{metaRecordCount, strconv.Itoa(len(patients))},
	}
	for _, kv := range metaRows {
		if _, err := tx.Exec("INSERT INTO store_meta (key, value) VALUES (?, ?)", kv[0], kv[1]); err != nil {
			return fmt.Errorf("write store_meta: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// applyPragmas configures a freshly created file for a one-shot bulk write.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = OFF",
		"PRAGMA synchronous = FULL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// patientArgs returns p's column values in canonical order. Unset age and
// dates are stored as NULL.
func patientArgs(p record.Patient) []any {
	var age, start, end any
	if p.Age != nil {
		age = *p.Age
	}
	if !p.StartDate.IsZero() {
		start = p.StartDate.String()
	}
	if !p.EndDate.IsZero() {
		end = p.EndDate.String()
	}
	return []any{
		p.SerialNo, p.Name, p.Email, age, string(p.Gender), p.Address, p.Phone,
		p.AadharNo, p.Occupation, p.Symptoms, p.Treatment, start, end,
		p.PhotoRef, string(p.Satisfied), p.DuplicateDismissed,
	}
}
