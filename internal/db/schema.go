package db

import "database/sql"

// ensureSchema creates the database tables if they don't exist and seeds
// default config rows. Tables that already exist are left as they are; no
// missing columns are added to them.
func ensureSchema(db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS config (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	-- Default config values (inserted only if not present)
	INSERT OR IGNORE INTO config (key, value) VALUES ('thumbnail_height', '36');
	INSERT OR IGNORE INTO config (key, value) VALUES ('thumbnail_width', '64');
	INSERT OR IGNORE INTO config (key, value) VALUES ('min_chunk_seconds', '4');
	INSERT OR IGNORE INTO config (key, value) VALUES ('min_reliability', '0.90');

	-- Cached common-chunk results between two episodes, invalidated whenever
	-- either source file's modification time changes.
	CREATE TABLE IF NOT EXISTS chunk_cache (
		path1      TEXT NOT NULL,
		mod_time1  INTEGER NOT NULL,
		path2      TEXT NOT NULL,
		mod_time2  INTEGER NOT NULL,
		start1     INTEGER NOT NULL,
		end1       INTEGER NOT NULL,
		start2     INTEGER NOT NULL,
		end2       INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (path1, path2)
	);
	`

	_, err := db.Exec(schema)
	return err
}
