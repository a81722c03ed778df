package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"pass-eligibility-api/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist (or is not owned by
	// the requesting profile).
	ErrNotFound = errors.New("database: record not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("database: duplicate record")
)

// DB wraps the database connection and provides methods for data access.
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection and initializes the schema.
func NewDB(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=1&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// initSchema creates the necessary tables if they don't exist.
func (db *DB) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			employee_number TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			tenure_start TEXT NOT NULL,
			marital_status TEXT NOT NULL,
			hierarchical INTEGER NOT NULL DEFAULT 0,
			retired INTEGER NOT NULL DEFAULT 0,
			on_leave INTEGER NOT NULL DEFAULT 0,
			leave_kind TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS beneficiaries (
			id TEXT PRIMARY KEY,
			profile_id TEXT NOT NULL REFERENCES profiles(id),
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			birth_date TEXT NOT NULL,
			relationship TEXT NOT NULL,
			family_group TEXT NOT NULL,
			student INTEGER NOT NULL DEFAULT 0,
			documentation INTEGER NOT NULL DEFAULT 0,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transfers (
			id TEXT PRIMARY KEY,
			profile_id TEXT NOT NULL REFERENCES profiles(id),
			from_beneficiary_id TEXT NOT NULL REFERENCES beneficiaries(id),
			to_beneficiary_id TEXT NOT NULL REFERENCES beneficiaries(id),
			vacation_year TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_beneficiaries_profile ON beneficiaries(profile_id, active)`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_profile ON transfers(profile_id, active)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_transfers_destination_year
			ON transfers(to_beneficiary_id, vacation_year) WHERE active = 1`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_transfers_origin_year
			ON transfers(from_beneficiary_id, vacation_year) WHERE active = 1`,
	}

	for _, query := range queries {
		if _, err := db.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const profileColumns = `id, employee_number, first_name, last_name, email, tenure_start,
	marital_status, hierarchical, retired, on_leave, leave_kind, created_at, updated_at`

// InsertProfile stores a new profile together with its password hash.
func (db *DB) InsertProfile(ctx context.Context, p models.Profile, passwordHash string) error {
	query := `INSERT INTO profiles (
		id, employee_number, password_hash, first_name, last_name, email, tenure_start,
		marital_status, hierarchical, retired, on_leave, leave_kind, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.ExecContext(ctx, query,
		p.ID,
		p.EmployeeNumber,
		passwordHash,
		p.FirstName,
		p.LastName,
		p.Email,
		p.TenureStart.String(),
		string(p.MaritalStatus),
		p.Hierarchical,
		p.Retired,
		p.OnLeave,
		string(p.LeaveKind),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	return nil
}

// GetProfile returns the profile with the given id.
func (db *DB) GetProfile(ctx context.Context, id string) (models.Profile, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)

	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Profile{}, ErrNotFound
		}
		return models.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}

	return p, nil
}

// GetProfileByEmployeeNumber returns the profile registered under the employee
// number along with its password hash.
func (db *DB) GetProfileByEmployeeNumber(ctx context.Context, employeeNumber string) (models.Profile, string, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+profileColumns+`, password_hash FROM profiles WHERE employee_number = ?`,
		employeeNumber,
	)

	var hash string
	p, err := scanProfile(row, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Profile{}, "", ErrNotFound
		}
		return models.Profile{}, "", fmt.Errorf("failed to get profile by employee number: %w", err)
	}

	return p, hash, nil
}

// UpdateProfile saves the profile's employment attributes and, in the same
// transaction, the family groups of the given beneficiaries.
func (db *DB) UpdateProfile(ctx context.Context, p models.Profile, regrouped []models.Beneficiary) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE profiles SET
		first_name = ?, last_name = ?, email = ?, tenure_start = ?, marital_status = ?,
		hierarchical = ?, retired = ?, on_leave = ?, leave_kind = ?, updated_at = ?
		WHERE id = ?`,
		p.FirstName,
		p.LastName,
		p.Email,
		p.TenureStart.String(),
		string(p.MaritalStatus),
		p.Hierarchical,
		p.Retired,
		p.OnLeave,
		string(p.LeaveKind),
		formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}

	if len(regrouped) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`UPDATE beneficiaries SET family_group = ?, updated_at = ? WHERE id = ? AND profile_id = ?`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, b := range regrouped {
			if _, err := stmt.ExecContext(ctx, string(b.FamilyGroup), formatTime(b.UpdatedAt), b.ID, p.ID); err != nil {
				return fmt.Errorf("failed to update beneficiary %s: %w", b.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func scanProfile(s scanner, extra ...any) (models.Profile, error) {
	var (
		p                    models.Profile
		tenureStart          string
		status, leave        string
		createdAt, updatedAt string
	)

	dest := []any{
		&p.ID,
		&p.EmployeeNumber,
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&tenureStart,
		&status,
		&p.Hierarchical,
		&p.Retired,
		&p.OnLeave,
		&leave,
		&createdAt,
		&updatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return models.Profile{}, err
	}

	var err error
	if p.TenureStart, err = models.ParseDate(tenureStart); err != nil {
		return models.Profile{}, fmt.Errorf("failed to parse tenure_start: %w", err)
	}
	p.MaritalStatus = models.MaritalStatus(status)
	p.LeaveKind = models.LeaveKind(leave)
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Profile{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.Profile{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return p, nil
}

const beneficiaryColumns = `id, profile_id, first_name, last_name, birth_date, relationship,
	family_group, student, documentation, active, created_at, updated_at`

// InsertBeneficiary stores a new beneficiary.
func (db *DB) InsertBeneficiary(ctx context.Context, b models.Beneficiary) error {
	query := `INSERT INTO beneficiaries (` + beneficiaryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.ExecContext(ctx, query,
		b.ID,
		b.ProfileID,
		b.FirstName,
		b.LastName,
		b.BirthDate.String(),
		string(b.Relationship),
		string(b.FamilyGroup),
		b.Student,
		b.Documentation,
		b.Active,
		formatTime(b.CreatedAt),
		formatTime(b.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert beneficiary: %w", err)
	}

	return nil
}

// GetBeneficiary returns an active beneficiary owned by profileID.
func (db *DB) GetBeneficiary(ctx context.Context, profileID, id string) (models.Beneficiary, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+beneficiaryColumns+` FROM beneficiaries WHERE id = ? AND profile_id = ? AND active = 1`,
		id, profileID,
	)

	b, err := scanBeneficiary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Beneficiary{}, ErrNotFound
		}
		return models.Beneficiary{}, fmt.Errorf("failed to get beneficiary: %w", err)
	}

	return b, nil
}

// ListActiveBeneficiaries returns the active beneficiaries of a profile in
// registration order.
func (db *DB) ListActiveBeneficiaries(ctx context.Context, profileID string) ([]models.Beneficiary, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+beneficiaryColumns+` FROM beneficiaries
		WHERE profile_id = ? AND active = 1
		ORDER BY created_at, id`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query beneficiaries: %w", err)
	}
	defer rows.Close()

	beneficiaries := []models.Beneficiary{}
	for rows.Next() {
		b, err := scanBeneficiary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan beneficiary: %w", err)
		}
		beneficiaries = append(beneficiaries, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating beneficiaries: %w", err)
	}

	return beneficiaries, nil
}

// UpdateBeneficiary saves the mutable fields of an active beneficiary.
func (db *DB) UpdateBeneficiary(ctx context.Context, b models.Beneficiary) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE beneficiaries SET
		first_name = ?, last_name = ?, birth_date = ?, relationship = ?, family_group = ?,
		student = ?, documentation = ?, updated_at = ?
		WHERE id = ? AND profile_id = ? AND active = 1`,
		b.FirstName,
		b.LastName,
		b.BirthDate.String(),
		string(b.Relationship),
		string(b.FamilyGroup),
		b.Student,
		b.Documentation,
		formatTime(b.UpdatedAt),
		b.ID,
		b.ProfileID,
	)
	if err != nil {
		return fmt.Errorf("failed to update beneficiary: %w", err)
	}

	return expectOneRow(res)
}

// DeactivateBeneficiary soft-deletes a beneficiary and, in the same
// transaction, every active transfer from or to it.
func (db *DB) DeactivateBeneficiary(ctx context.Context, profileID, id string, at time.Time) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE beneficiaries SET active = 0, updated_at = ? WHERE id = ? AND profile_id = ? AND active = 1`,
		formatTime(at), id, profileID,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate beneficiary: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE transfers SET active = 0
		WHERE profile_id = ? AND active = 1 AND (from_beneficiary_id = ? OR to_beneficiary_id = ?)`,
		profileID, id, id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate transfers: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanBeneficiary(s scanner) (models.Beneficiary, error) {
	var (
		b                    models.Beneficiary
		birthDate            string
		relationship, group  string
		createdAt, updatedAt string
	)

	err := s.Scan(
		&b.ID,
		&b.ProfileID,
		&b.FirstName,
		&b.LastName,
		&birthDate,
		&relationship,
		&group,
		&b.Student,
		&b.Documentation,
		&b.Active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return models.Beneficiary{}, err
	}

	if b.BirthDate, err = models.ParseDate(birthDate); err != nil {
		return models.Beneficiary{}, fmt.Errorf("failed to parse birth_date: %w", err)
	}
	b.Relationship = models.Relationship(relationship)
	b.FamilyGroup = models.FamilyGroup(group)
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Beneficiary{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.Beneficiary{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return b, nil
}

// InsertTransfer stores a transfer. A second active transfer from the same
// origin or into the same destination for the same vacation year is rejected
// with ErrDuplicate.
func (db *DB) InsertTransfer(ctx context.Context, t models.Transfer) error {
	_, err := db.conn.ExecContext(ctx, `INSERT INTO transfers (
		id, profile_id, from_beneficiary_id, to_beneficiary_id, vacation_year, active, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.ProfileID,
		t.FromBeneficiaryID,
		t.ToBeneficiaryID,
		t.VacationYear,
		t.Active,
		formatTime(t.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert transfer: %w", err)
	}

	return nil
}

// ListActiveTransfers returns a profile's active transfers, newest first.
func (db *DB) ListActiveTransfers(ctx context.Context, profileID string) ([]models.Transfer, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT
		id, profile_id, from_beneficiary_id, to_beneficiary_id, vacation_year, active, created_at
		FROM transfers
		WHERE profile_id = ? AND active = 1
		ORDER BY created_at DESC, id`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	transfers := []models.Transfer{}
	for rows.Next() {
		var t models.Transfer
		var createdAt string
		if err := rows.Scan(
			&t.ID,
			&t.ProfileID,
			&t.FromBeneficiaryID,
			&t.ToBeneficiaryID,
			&t.VacationYear,
			&t.Active,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		transfers = append(transfers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfers: %w", err)
	}

	return transfers, nil
}

// CountTransfersTo counts the active transfers into a beneficiary during a
// vacation year.
func (db *DB) CountTransfersTo(ctx context.Context, beneficiaryID, vacationYear string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfers WHERE to_beneficiary_id = ? AND vacation_year = ? AND active = 1`,
		beneficiaryID, vacationYear,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transfers: %w", err)
	}

	return count, nil
}

// CountTransfersFrom counts the active transfers out of a beneficiary during
// a vacation year.
func (db *DB) CountTransfersFrom(ctx context.Context, beneficiaryID, vacationYear string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfers WHERE from_beneficiary_id = ? AND vacation_year = ? AND active = 1`,
		beneficiaryID, vacationYear,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transfers: %w", err)
	}

	return count, nil
}

// CountProfileTransfers counts a profile's active transfers during a vacation
// year.
func (db *DB) CountProfileTransfers(ctx context.Context, profileID, vacationYear string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfers WHERE profile_id = ? AND vacation_year = ? AND active = 1`,
		profileID, vacationYear,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transfers: %w", err)
	}

	return count, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
