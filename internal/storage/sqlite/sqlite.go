// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/themax-01/heartbond-moments/internal/models"
	"github.com/themax-01/heartbond-moments/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateBond persists a new bond. The join code is stored uppercase so that
// lookups can match case-insensitively.
func (s *SQLiteStore) CreateBond(ctx context.Context, bond *models.Bond) error {
	if bond.ID == "" {
		bond.ID = uuid.New().String()
	}
	if bond.StartDate.IsZero() {
		bond.StartDate = time.Now().UTC()
	}
	if bond.Theme == "" {
		bond.Theme = models.ThemeSpring
	}
	bond.Code = strings.ToUpper(bond.Code)

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO bonds (id, name, reason, start_date, theme, code) VALUES (?, ?, ?, ?, ?, ?)",
		bond.ID, bond.Name, bond.Reason, bond.StartDate.UnixNano(), string(bond.Theme), bond.Code,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bond: %w", err)
	}
	return nil
}

func scanBond(row *sql.Row) (*models.Bond, error) {
	bond := &models.Bond{}
	var startNanos int64
	var theme string
	err := row.Scan(&bond.ID, &bond.Name, &bond.Reason, &startNanos, &theme, &bond.Code)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan bond: %w", err)
	}
	bond.StartDate = time.Unix(0, startNanos).UTC()
	bond.Theme = models.Theme(theme)
	return bond, nil
}

// GetBond retrieves a bond by id.
func (s *SQLiteStore) GetBond(ctx context.Context, bondID string) (*models.Bond, error) {
	return scanBond(s.db.QueryRowContext(ctx,
		"SELECT id, name, reason, start_date, theme, code FROM bonds WHERE id = ?",
		bondID,
	))
}

// GetBondByCode retrieves a bond by join code, case-insensitively.
func (s *SQLiteStore) GetBondByCode(ctx context.Context, code string) (*models.Bond, error) {
	return scanBond(s.db.QueryRowContext(ctx,
		"SELECT id, name, reason, start_date, theme, code FROM bonds WHERE code = ?",
		strings.ToUpper(code),
	))
}

// UpdateBondTheme sets the theme of an existing bond.
func (s *SQLiteStore) UpdateBondTheme(ctx context.Context, bondID string, theme models.Theme) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE bonds SET theme = ? WHERE id = ?",
		string(theme), bondID,
	)
	if err != nil {
		return fmt.Errorf("failed to update theme: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("bond %s: %w", bondID, storage.ErrNotFound)
	}
	return nil
}

// AddMember persists a membership row.
func (s *SQLiteStore) AddMember(ctx context.Context, member *models.Membership) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO bond_members (id, bond_id, user_id) VALUES (?, ?, ?)",
		member.ID, member.BondID, member.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

// ListMembers returns all memberships of a bond.
func (s *SQLiteStore) ListMembers(ctx context.Context, bondID string) ([]models.Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, bond_id, user_id FROM bond_members WHERE bond_id = ?",
		bondID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.Membership
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.ID, &m.BondID, &m.UserID); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return members, nil
}

// CreateSettings persists the settings row for a bond.
func (s *SQLiteStore) CreateSettings(ctx context.Context, settings *models.BondSettings) error {
	if settings.ID == "" {
		settings.ID = uuid.New().String()
	}
	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO bond_settings (id, bond_id, quote, updated_at) VALUES (?, ?, ?, ?)",
		settings.ID, settings.BondID, settings.Quote, settings.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert settings: %w", err)
	}
	return nil
}

func scanSettings(row *sql.Row) (*models.BondSettings, error) {
	settings := &models.BondSettings{}
	var nanos int64
	err := row.Scan(&settings.ID, &settings.BondID, &settings.Quote, &nanos)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan settings: %w", err)
	}
	settings.UpdatedAt = time.Unix(0, nanos).UTC()
	return settings, nil
}

// GetSettings retrieves the settings row of a bond.
func (s *SQLiteStore) GetSettings(ctx context.Context, bondID string) (*models.BondSettings, error) {
	return scanSettings(s.db.QueryRowContext(ctx,
		"SELECT id, bond_id, quote, updated_at FROM bond_settings WHERE bond_id = ? ORDER BY updated_at DESC LIMIT 1",
		bondID,
	))
}

// UpdateQuote sets the quote on the bond's settings row and bumps updated_at.
func (s *SQLiteStore) UpdateQuote(ctx context.Context, bondID, quote string) (*models.BondSettings, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"UPDATE bond_settings SET quote = ?, updated_at = ? WHERE bond_id = ?",
		quote, now.UnixNano(), bondID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update quote: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("settings for bond %s: %w", bondID, storage.ErrNotFound)
	}
	return s.GetSettings(ctx, bondID)
}

// InsertData appends a new data row.
func (s *SQLiteStore) InsertData(ctx context.Context, row *models.BondData) error {
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO bond_data (id, bond_id, user_id, status, activity, plan, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		row.ID, row.BondID, row.UserID,
		nullable(row.Status), nullable(row.Activity), nullable(row.Plan),
		row.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert data row: %w", err)
	}
	return nil
}

// UpdateDataField sets one field on an existing data row and bumps updated_at.
func (s *SQLiteStore) UpdateDataField(ctx context.Context, rowID string, field models.Field, value string) (*models.BondData, error) {
	col, err := fieldColumn(field)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"UPDATE bond_data SET "+col+" = ?, updated_at = ? WHERE id = ?",
		value, now.UnixNano(), rowID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", field, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("data row %s: %w", rowID, storage.ErrNotFound)
	}
	return s.getData(ctx, rowID)
}

func (s *SQLiteStore) getData(ctx context.Context, rowID string) (*models.BondData, error) {
	return scanData(s.db.QueryRowContext(ctx,
		"SELECT id, bond_id, user_id, status, activity, plan, updated_at FROM bond_data WHERE id = ?",
		rowID,
	))
}

// LatestData returns the most recently updated data row for the user.
func (s *SQLiteStore) LatestData(ctx context.Context, bondID, userID string) (*models.BondData, error) {
	row, err := scanData(s.db.QueryRowContext(ctx,
		`SELECT id, bond_id, user_id, status, activity, plan, updated_at
		 FROM bond_data WHERE bond_id = ? AND user_id = ?
		 ORDER BY updated_at DESC LIMIT 1`,
		bondID, userID,
	))
	if err == storage.ErrNotFound {
		return nil, nil // no rows yet is not an error
	}
	return row, err
}

// LatestFieldRow returns the most recent data row where the field is non-null.
func (s *SQLiteStore) LatestFieldRow(ctx context.Context, bondID, userID string, field models.Field) (*models.BondData, error) {
	col, err := fieldColumn(field)
	if err != nil {
		return nil, err
	}
	row, err := scanData(s.db.QueryRowContext(ctx,
		`SELECT id, bond_id, user_id, status, activity, plan, updated_at
		 FROM bond_data WHERE bond_id = ? AND user_id = ? AND `+col+` IS NOT NULL
		 ORDER BY updated_at DESC LIMIT 1`,
		bondID, userID,
	))
	if err == storage.ErrNotFound {
		return nil, nil
	}
	return row, err
}

func scanData(row *sql.Row) (*models.BondData, error) {
	d := &models.BondData{}
	var status, activity, plan sql.NullString
	var nanos int64
	err := row.Scan(&d.ID, &d.BondID, &d.UserID, &status, &activity, &plan, &nanos)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan data row: %w", err)
	}
	if status.Valid {
		d.Status = &status.String
	}
	if activity.Valid {
		d.Activity = &activity.String
	}
	if plan.Valid {
		d.Plan = &plan.String
	}
	d.UpdatedAt = time.Unix(0, nanos).UTC()
	return d, nil
}

// fieldColumn maps a field to its column name, rejecting unknown fields so
// the column can be spliced into SQL safely.
func fieldColumn(field models.Field) (string, error) {
	switch field {
	case models.FieldStatus:
		return "status", nil
	case models.FieldActivity:
		return "activity", nil
	case models.FieldPlan:
		return "plan", nil
	}
	return "", fmt.Errorf("unknown field %q", field)
}

func nullable(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
