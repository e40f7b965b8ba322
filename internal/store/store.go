// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists dataset snapshots in SQLite so earlier fetches can
// be reloaded and plotted without the network.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/scatterscope/internal/dataset"
	"github.com/pdiddy/scatterscope/internal/numeric"
	"github.com/pdiddy/scatterscope/pkg/types"
)

// ErrEmpty is returned when the store holds no snapshots.
var ErrEmpty = errors.New("no snapshots stored")

// Store manages the snapshot database.
type Store struct {
	db *sql.DB
}

// Snapshot describes one stored dataset.
type Snapshot struct {
	ID        int64     `json:"id" yaml:"id"`
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
	Source    string    `json:"source" yaml:"source"`
	Entities  int       `json:"entities" yaml:"entities"`
}

// Open opens or creates the database at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			fetched_at TEXT NOT NULL,
			source TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS entities (
			snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			id TEXT NOT NULL,
			position INTEGER NOT NULL,
			sector TEXT,
			industry TEXT,
			financials TEXT,
			PRIMARY KEY (snapshot_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS properties (
			snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			entity_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			num REAL,
			str TEXT,
			PRIMARY KEY (snapshot_id, entity_id, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_position ON entities(snapshot_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_properties_entity ON properties(snapshot_id, entity_id, position)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save writes ds as a new snapshot and returns its ID. Absent values are
// not stored. Non-finite numbers are stored as NULL and read back absent.
func (s *Store) Save(ctx context.Context, ds *dataset.Dataset, source string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	fetched := ds.UpdatedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (fetched_at, source) VALUES (?, ?)`,
		fetched.UTC().Format(time.RFC3339Nano), source,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading snapshot id: %w", err)
	}

	entStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entities (snapshot_id, id, position, sector, industry, financials)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing entity insert: %w", err)
	}
	defer entStmt.Close()

	propStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO properties (snapshot_id, entity_id, position, name, num, str)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(snapshot_id, entity_id, name) DO UPDATE SET
			num=excluded.num, str=excluded.str`)
	if err != nil {
		return 0, fmt.Errorf("preparing property insert: %w", err)
	}
	defer propStmt.Close()

	for pos, eid := range ds.Table.IDs {
		cat := ds.Categories[eid]
		var fin sql.NullString
		if rows, ok := ds.Financials[eid]; ok {
			data, _ := json.Marshal(rows)
			fin = sql.NullString{String: string(data), Valid: true}
		}
		if _, err := entStmt.ExecContext(ctx, id, eid, pos, cat.Sector, cat.Industry, fin); err != nil {
			return 0, fmt.Errorf("inserting entity %s: %w", eid, err)
		}

		rec := ds.Table.Rows[eid]
		for ppos, name := range recordKeys(rec, ds.Properties) {
			v := rec[name]
			var num sql.NullFloat64
			var str sql.NullString
			switch v.Kind {
			case types.ValueNumber:
				num = sql.NullFloat64{Float64: v.Num, Valid: numeric.IsValid(v.Num)}
			case types.ValueString:
				str = sql.NullString{String: v.Str, Valid: true}
			default:
				continue
			}
			if _, err := propStmt.ExecContext(ctx, id, eid, ppos, name, num, str); err != nil {
				return 0, fmt.Errorf("inserting property %s.%s: %w", eid, name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing snapshot: %w", err)
	}
	return id, nil
}

// Snapshots lists stored snapshots, newest first.
func (s *Store) Snapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.fetched_at, COALESCE(s.source, ''), COUNT(e.id)
		 FROM snapshots s LEFT JOIN entities e ON e.snapshot_id = s.id
		 GROUP BY s.id ORDER BY s.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var fetched string
		if err := rows.Scan(&snap.ID, &fetched, &snap.Source, &snap.Entities); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snap.FetchedAt, _ = time.Parse(time.RFC3339Nano, fetched)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Latest returns the newest snapshot, or ErrEmpty.
func (s *Store) Latest(ctx context.Context) (Snapshot, error) {
	snaps, err := s.Snapshots(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if len(snaps) == 0 {
		return Snapshot{}, ErrEmpty
	}
	return snaps[0], nil
}

// Load reads snapshot id back into a dataset. An id of 0 loads the latest
// snapshot. The sample entity determines the numeric properties, as in
// dataset.Load.
func (s *Store) Load(ctx context.Context, id int64, sampleTicker string) (*dataset.Dataset, error) {
	if sampleTicker == "" {
		sampleTicker = dataset.DefaultSampleTicker
	}
	if id == 0 {
		latest, err := s.Latest(ctx)
		if err != nil {
			return nil, err
		}
		id = latest.ID
	}

	var fetched string
	err := s.db.QueryRowContext(ctx, `SELECT fetched_at FROM snapshots WHERE id = ?`, id).Scan(&fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %d: %w", id, err)
	}

	ds := &dataset.Dataset{
		Table:      types.NewTable(),
		Categories: types.CategoryTable{},
	}
	ds.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fetched)

	if err := s.loadEntities(ctx, id, ds); err != nil {
		return nil, err
	}
	sampleKeys, err := s.loadProperties(ctx, id, ds, sampleTicker)
	if err != nil {
		return nil, err
	}

	sample, ok := ds.Table.Get(sampleTicker)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", dataset.ErrUnavailable, dataset.ErrSampleMissing, sampleTicker)
	}
	ds.Properties = dataset.NumericProperties(sample, sampleKeys)
	return ds, nil
}

func (s *Store) loadEntities(ctx context.Context, id int64, ds *dataset.Dataset) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, COALESCE(sector, ''), COALESCE(industry, ''), financials
		 FROM entities WHERE snapshot_id = ? ORDER BY position`, id)
	if err != nil {
		return fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eid, sector, industry string
		var fin sql.NullString
		if err := rows.Scan(&eid, &sector, &industry, &fin); err != nil {
			return fmt.Errorf("scanning entity: %w", err)
		}
		ds.Table.Add(eid, types.Record{})
		if sector != "" || industry != "" {
			ds.Categories[eid] = types.CategoryInfo{Sector: sector, Industry: industry}
		}
		if fin.Valid {
			var yf []types.YearlyFinancials
			if err := json.Unmarshal([]byte(fin.String), &yf); err != nil {
				return fmt.Errorf("decoding financials of %s: %w", eid, err)
			}
			if ds.Financials == nil {
				ds.Financials = make(map[string][]types.YearlyFinancials)
			}
			ds.Financials[eid] = yf
		}
	}
	return rows.Err()
}

func (s *Store) loadProperties(ctx context.Context, id int64, ds *dataset.Dataset, sample string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_id, name, num, str FROM properties
		 WHERE snapshot_id = ? ORDER BY entity_id, position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying properties: %w", err)
	}
	defer rows.Close()

	var sampleKeys []string
	for rows.Next() {
		var eid, name string
		var num sql.NullFloat64
		var str sql.NullString
		if err := rows.Scan(&eid, &name, &num, &str); err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		rec, ok := ds.Table.Get(eid)
		if !ok {
			continue
		}
		switch {
		case num.Valid:
			rec[name] = types.Number(num.Float64)
		case str.Valid:
			rec[name] = types.Text(str.String)
		default:
			rec[name] = types.Value{}
		}
		if eid == sample {
			sampleKeys = append(sampleKeys, name)
		}
	}
	return sampleKeys, rows.Err()
}

// Prune deletes all but the newest keep snapshots and returns how many
// were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// recordKeys orders the keys of rec: the dataset's numeric properties
// first, in their order, then the rest sorted.
func recordKeys(rec types.Record, props []string) []string {
	keys := make([]string, 0, len(rec))
	seen := make(map[string]bool, len(rec))
	for _, p := range props {
		if _, ok := rec[p]; ok {
			keys = append(keys, p)
			seen[p] = true
		}
	}
	var rest []string
	for k := range rec {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(keys, rest...)
}
