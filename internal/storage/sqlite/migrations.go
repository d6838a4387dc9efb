package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Timestamps are stored as Unix nanoseconds so that "most recent row wins"
// ordering is stable even for writes within the same second.
const schema = `
CREATE TABLE IF NOT EXISTS bonds (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    reason TEXT NOT NULL DEFAULT '',
    start_date INTEGER NOT NULL,
    theme TEXT NOT NULL DEFAULT 'spring',
    code TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS bond_members (
    id TEXT PRIMARY KEY,
    bond_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    FOREIGN KEY (bond_id) REFERENCES bonds(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bond_settings (
    id TEXT PRIMARY KEY,
    bond_id TEXT NOT NULL,
    quote TEXT NOT NULL DEFAULT '',
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (bond_id) REFERENCES bonds(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bond_data (
    id TEXT PRIMARY KEY,
    bond_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    status TEXT,
    activity TEXT,
    plan TEXT,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (bond_id) REFERENCES bonds(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_bond_members_bond_id ON bond_members(bond_id);
CREATE INDEX IF NOT EXISTS idx_bond_settings_bond_id ON bond_settings(bond_id);
CREATE INDEX IF NOT EXISTS idx_bond_data_lookup ON bond_data(bond_id, user_id, updated_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
