package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS expeditions (
    id           INTEGER PRIMARY KEY,
    name         TEXT NOT NULL,
    owner_key    BLOB NOT NULL,
    status       TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'completed')),
    emblem       BLOB,
    emblem_mime  TEXT,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS pirates (
    id                 INTEGER PRIMARY KEY,
    expedition_id      INTEGER NOT NULL REFERENCES expeditions(id),
    pirate_name        TEXT NOT NULL,
    encrypted_identity BLOB,
    identity_digest    TEXT,
    status             TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'removed')),
    joined_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_pirates_name
    ON pirates(expedition_id, pirate_name);

CREATE UNIQUE INDEX IF NOT EXISTS idx_pirates_identity
    ON pirates(expedition_id, identity_digest) WHERE identity_digest IS NOT NULL;

CREATE TABLE IF NOT EXISTS items (
    id                INTEGER PRIMARY KEY,
    expedition_id     INTEGER NOT NULL REFERENCES expeditions(id),
    item_code         TEXT NOT NULL,
    encrypted_name    BLOB,
    item_type         TEXT,
    quantity_required INTEGER NOT NULL CHECK (quantity_required >= 0),
    quantity_consumed INTEGER NOT NULL DEFAULT 0 CHECK (quantity_consumed >= 0),
    status            TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'depleted', 'archived')),
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_items_code
    ON items(expedition_id, item_code);

CREATE TABLE IF NOT EXISTS assignments (
    id                INTEGER PRIMARY KEY,
    expedition_id     INTEGER NOT NULL REFERENCES expeditions(id),
    pirate_id         INTEGER NOT NULL REFERENCES pirates(id),
    item_id           INTEGER NOT NULL REFERENCES items(id),
    assigned_quantity INTEGER NOT NULL CHECK (assigned_quantity > 0),
    consumed_quantity INTEGER NOT NULL DEFAULT 0 CHECK (consumed_quantity >= 0 AND consumed_quantity <= assigned_quantity),
    unit_price        INTEGER NOT NULL CHECK (unit_price >= 0),
    total_cost        INTEGER NOT NULL CHECK (total_cost >= 0),
    status            TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'active', 'completed')),
    payment_status    TEXT NOT NULL DEFAULT 'unpaid' CHECK (payment_status IN ('unpaid', 'partial', 'paid')),
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_assignments_item ON assignments(item_id);
CREATE INDEX IF NOT EXISTS idx_assignments_pirate ON assignments(pirate_id);

CREATE TABLE IF NOT EXISTS payments (
    id            INTEGER PRIMARY KEY,
    assignment_id INTEGER NOT NULL REFERENCES assignments(id),
    pirate_id     INTEGER NOT NULL REFERENCES pirates(id),
    amount        INTEGER NOT NULL CHECK (amount > 0),
    status        TEXT NOT NULL DEFAULT 'completed' CHECK (status IN ('completed', 'reversed')),
    processed_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    notes         TEXT
);

CREATE INDEX IF NOT EXISTS idx_payments_assignment ON payments(assignment_id);

CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'deckhand' CHECK (role IN ('admin', 'quartermaster', 'deckhand')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema
// creation. Each migration must be idempotent. Append new migrations at
// the end.
var migrations = []string{}

// Migrate creates the schema and runs all migrations.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
