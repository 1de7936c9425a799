// Package cache stores previously-found chunk-boundary results so that
// re-running alignment on an unchanged pair of episodes is a cache hit
// instead of a re-scan.
package cache

import (
	"database/sql"
	"log/slog"
	"os"
)

// Range is a cached [start,end] frame interval.
type Range struct {
	Start int
	End   int
}

// AlignmentCache stores chunk-boundary results keyed on a pair of episode
// paths plus both files' modification times, so edits to either source
// invalidate the entry automatically.
type AlignmentCache struct {
	db *sql.DB
}

// New returns an AlignmentCache backed by the given database. Callers are
// expected to have already run the schema migration (internal/db).
func New(db *sql.DB) *AlignmentCache {
	return &AlignmentCache{db: db}
}

// Get retrieves a cached common-chunk result for the (path1, path2) pair at
// the given modification times. Returns ok=false on a miss, including when
// either file has changed since the entry was written.
func (c *AlignmentCache) Get(path1 string, modTime1 int64, path2 string, modTime2 int64) (r1, r2 Range, ok bool) {
	err := c.db.QueryRow(
		`SELECT start1, end1, start2, end2 FROM chunk_cache
		 WHERE path1 = ? AND mod_time1 = ? AND path2 = ? AND mod_time2 = ?`,
		path1, modTime1, path2, modTime2,
	).Scan(&r1.Start, &r1.End, &r2.Start, &r2.End)
	if err != nil {
		return Range{}, Range{}, false
	}
	return r1, r2, true
}

// Set stores a common-chunk result for the (path1, path2) pair.
func (c *AlignmentCache) Set(path1 string, modTime1 int64, path2 string, modTime2 int64, r1, r2 Range) error {
	_, err := c.db.Exec(
		`INSERT INTO chunk_cache (path1, mod_time1, path2, mod_time2, start1, end1, start2, end2)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path1, path2) DO UPDATE SET
		   mod_time1 = excluded.mod_time1, mod_time2 = excluded.mod_time2,
		   start1 = excluded.start1, end1 = excluded.end1,
		   start2 = excluded.start2, end2 = excluded.end2`,
		path1, modTime1, path2, modTime2, r1.Start, r1.End, r2.Start, r2.End,
	)
	return err
}

// Cleanup removes cache entries referencing a file that no longer exists on
// disk, the same pattern bpm.Cache uses for its own orphan sweep.
func (c *AlignmentCache) Cleanup() {
	rows, err := c.db.Query(`SELECT DISTINCT path1 FROM chunk_cache UNION SELECT DISTINCT path2 FROM chunk_cache`)
	if err != nil {
		slog.Warn("alignment cache cleanup: query failed", "error", err)
		return
	}
	defer rows.Close()

	var missing []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			missing = append(missing, path)
		}
	}
	if err := rows.Err(); err != nil {
		slog.Warn("alignment cache cleanup: rows iteration error", "error", err)
	}

	for _, path := range missing {
		if _, err := c.db.Exec(`DELETE FROM chunk_cache WHERE path1 = ? OR path2 = ?`, path, path); err != nil {
			slog.Warn("alignment cache cleanup: delete failed", "path", path, "error", err)
		}
	}
	if len(missing) > 0 {
		slog.Info("alignment cache cleanup", "removed", len(missing))
	}
}
