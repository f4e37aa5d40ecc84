// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/pdiddy/trl-engine/pkg/types"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// driverName is go-sqlite3 with a fold(text) function registered on every
// connection. SQLite's own lower() and NOCASE only fold ASCII.
const driverName = "sqlite3_fold"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", strings.ToLower, true)
		},
	})
}

// SQLite is the local record and history backend.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

var _ Backend = (*SQLite)(nil)

// NewSQLite opens or creates the database at path and creates the schema
// if it does not exist.
func NewSQLite(path string, opts ...Option) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	o := buildOptions(opts)
	s := &SQLite{db: db, now: o.now}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS patents (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			abstract TEXT NOT NULL DEFAULT '',
			year INTEGER NOT NULL DEFAULT 0,
			country TEXT,
			citation_count INTEGER NOT NULL DEFAULT 0,
			source TEXT,
			extra TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_patents_year ON patents(year)`,
		`CREATE TABLE IF NOT EXISTS publications (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			abstract TEXT NOT NULL DEFAULT '',
			year INTEGER NOT NULL DEFAULT 0,
			authors TEXT,
			journal TEXT,
			doi TEXT,
			citation_count INTEGER NOT NULL DEFAULT 0,
			source TEXT,
			extra TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_publications_year ON publications(year)`,
		`CREATE TABLE IF NOT EXISTS market_reports (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			year INTEGER NOT NULL DEFAULT 0,
			sector TEXT,
			region TEXT,
			funding_amount REAL NOT NULL DEFAULT 0,
			stage TEXT,
			published_on TEXT,
			extra TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_market_reports_year ON market_reports(year)`,
		`CREATE TABLE IF NOT EXISTS trl_records (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			technology TEXT NOT NULL,
			trl_score REAL NOT NULL,
			status TEXT NOT NULL,
			confidence REAL NOT NULL,
			reasoning TEXT NOT NULL,
			features TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// matchClause builds the shared WHERE clause for text+year matching over
// the two given columns.
func matchClause(m Match, col1, col2 string) (string, []any) {
	needle := strings.ToLower(m.Text)
	where := fmt.Sprintf(
		`year >= ? AND (instr(fold(%s), ?) > 0 OR instr(fold(%s), ?) > 0)`,
		col1, col2,
	)
	return where, []any{m.FromYear, needle, needle}
}

// FindPatents returns patents matching m on title or abstract.
func (s *SQLite) FindPatents(ctx context.Context, m Match) ([]types.Patent, error) {
	where, args := matchClause(m, "title", "abstract")
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, abstract, year, country, citation_count, source, extra
		 FROM patents WHERE `+where+` ORDER BY year, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying patents: %w", err)
	}
	defer rows.Close()

	var out []types.Patent
	for rows.Next() {
		var (
			p                      types.Patent
			country, source, extra sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Abstract, &p.Year, &country,
			&p.CitationCount, &source, &extra); err != nil {
			return nil, fmt.Errorf("scanning patent: %w", err)
		}
		p.Country = country.String
		p.Source = source.String
		if p.Extra, err = decodeExtra(extra); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", p.ID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindPublications returns publications matching m on title or abstract.
func (s *SQLite) FindPublications(ctx context.Context, m Match) ([]types.Publication, error) {
	where, args := matchClause(m, "title", "abstract")
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, abstract, year, authors, journal, doi, citation_count, source, extra
		 FROM publications WHERE `+where+` ORDER BY year, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying publications: %w", err)
	}
	defer rows.Close()

	var out []types.Publication
	for rows.Next() {
		var (
			p                                   types.Publication
			authors, journal, doi, source, extra sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Abstract, &p.Year, &authors,
			&journal, &doi, &p.CitationCount, &source, &extra); err != nil {
			return nil, fmt.Errorf("scanning publication: %w", err)
		}
		if authors.Valid && authors.String != "" {
			if err := json.Unmarshal([]byte(authors.String), &p.Authors); err != nil {
				return nil, fmt.Errorf("decoding authors of %s: %w", p.ID, err)
			}
		}
		p.Journal = journal.String
		p.DOI = doi.String
		p.Source = source.String
		if p.Extra, err = decodeExtra(extra); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", p.ID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindMarketReports returns market reports matching m on title or summary.
func (s *SQLite) FindMarketReports(ctx context.Context, m Match) ([]types.MarketReport, error) {
	where, args := matchClause(m, "title", "summary")
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, summary, year, sector, region, funding_amount, stage, published_on, extra
		 FROM market_reports WHERE `+where+` ORDER BY year, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying market reports: %w", err)
	}
	defer rows.Close()

	var out []types.MarketReport
	for rows.Next() {
		var (
			r                                         types.MarketReport
			sector, region, stage, published, extra sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.Summary, &r.Year, &sector, &region,
			&r.FundingAmount, &stage, &published, &extra); err != nil {
			return nil, fmt.Errorf("scanning market report: %w", err)
		}
		r.Sector = sector.String
		r.Region = region.String
		r.Stage = stage.String
		if published.Valid && published.String != "" {
			if r.PublishedOn, err = time.Parse(time.RFC3339, published.String); err != nil {
				return nil, fmt.Errorf("parsing published_on of %s: %w", r.ID, err)
			}
		}
		if r.Extra, err = decodeExtra(extra); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertPatents inserts or replaces patents by id.
func (s *SQLite) UpsertPatents(ctx context.Context, patents []types.Patent) (int, error) {
	return upsertAll(ctx, s.db,
		`INSERT INTO patents (id, title, abstract, year, country, citation_count, source, extra)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, abstract=excluded.abstract, year=excluded.year,
			country=excluded.country, citation_count=excluded.citation_count,
			source=excluded.source, extra=excluded.extra`,
		patents,
		func(p types.Patent) ([]any, error) {
			extra, err := encodeExtra(p.Extra)
			if err != nil {
				return nil, err
			}
			return []any{recordID(p.ID), p.Title, p.Abstract, p.Year, p.Country,
				p.CitationCount, p.Source, extra}, nil
		},
	)
}

// UpsertPublications inserts or replaces publications by id.
func (s *SQLite) UpsertPublications(ctx context.Context, pubs []types.Publication) (int, error) {
	return upsertAll(ctx, s.db,
		`INSERT INTO publications (id, title, abstract, year, authors, journal, doi, citation_count, source, extra)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, abstract=excluded.abstract, year=excluded.year,
			authors=excluded.authors, journal=excluded.journal, doi=excluded.doi,
			citation_count=excluded.citation_count, source=excluded.source,
			extra=excluded.extra`,
		pubs,
		func(p types.Publication) ([]any, error) {
			authors, err := json.Marshal(p.Authors)
			if err != nil {
				return nil, fmt.Errorf("encoding authors: %w", err)
			}
			extra, err := encodeExtra(p.Extra)
			if err != nil {
				return nil, err
			}
			return []any{recordID(p.ID), p.Title, p.Abstract, p.Year, string(authors),
				p.Journal, p.DOI, p.CitationCount, p.Source, extra}, nil
		},
	)
}

// UpsertMarketReports inserts or replaces market reports by id.
func (s *SQLite) UpsertMarketReports(ctx context.Context, reports []types.MarketReport) (int, error) {
	return upsertAll(ctx, s.db,
		`INSERT INTO market_reports (id, title, summary, year, sector, region, funding_amount, stage, published_on, extra)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, summary=excluded.summary, year=excluded.year,
			sector=excluded.sector, region=excluded.region,
			funding_amount=excluded.funding_amount, stage=excluded.stage,
			published_on=excluded.published_on, extra=excluded.extra`,
		reports,
		func(r types.MarketReport) ([]any, error) {
			published := ""
			if !r.PublishedOn.IsZero() {
				published = r.PublishedOn.UTC().Format(time.RFC3339)
			}
			extra, err := encodeExtra(r.Extra)
			if err != nil {
				return nil, err
			}
			return []any{recordID(r.ID), r.Title, r.Summary, r.Year, r.Sector, r.Region,
				r.FundingAmount, r.Stage, published, extra}, nil
		},
	)
}

func upsertAll[T any](ctx context.Context, db *sql.DB, stmtSQL string, items []T, args func(T) ([]any, error)) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for i, item := range items {
		values, err := args(item)
		if err != nil {
			return 0, fmt.Errorf("upserting record %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return 0, fmt.Errorf("upserting record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing upsert: %w", err)
	}
	return len(items), nil
}

// Record appends an assessment to the history log.
func (s *SQLite) Record(ctx context.Context, a types.Assessment) (types.AssessmentRecord, error) {
	rec := types.AssessmentRecord{
		ID:         uuid.NewString(),
		Assessment: a,
		CreatedAt:  s.now().UTC(),
	}

	reasoning, err := json.Marshal(a.Reasoning)
	if err != nil {
		return types.AssessmentRecord{}, fmt.Errorf("marshaling reasoning: %w", err)
	}
	features, err := json.Marshal(a.Features)
	if err != nil {
		return types.AssessmentRecord{}, fmt.Errorf("marshaling features: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO trl_records (id, technology, trl_score, status, confidence, reasoning, features, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, a.Technology, a.TRLScore, string(a.Status), a.Confidence,
		string(reasoning), string(features), rec.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return types.AssessmentRecord{}, fmt.Errorf("inserting assessment record: %w", err)
	}
	return rec, nil
}

// List returns history records newest first.
func (s *SQLite) List(ctx context.Context, q HistoryQuery) ([]types.AssessmentRecord, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT id, technology, trl_score, status, confidence, reasoning, features, created_at
		FROM trl_records`)
	if q.Technology != "" {
		qb.WriteString(` WHERE fold(technology) = ?`)
		args = append(args, strings.ToLower(q.Technology))
	}
	qb.WriteString(` ORDER BY seq DESC LIMIT ?`)
	args = append(args, historyLimit(q.Limit))

	return s.queryRecords(ctx, qb.String(), args...)
}

// Distribution counts the latest assessment per technology by TRL bucket.
func (s *SQLite) Distribution(ctx context.Context) ([]types.BucketCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT trl_score FROM trl_records
		 WHERE seq IN (SELECT MAX(seq) FROM trl_records GROUP BY fold(technology))`)
	if err != nil {
		return nil, fmt.Errorf("querying distribution: %w", err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bucketCounts(scores), nil
}

// Progression returns the mean TRL score per year for technology.
func (s *SQLite) Progression(ctx context.Context, technology string) ([]types.YearScore, error) {
	records, err := s.queryRecords(ctx,
		`SELECT id, technology, trl_score, status, confidence, reasoning, features, created_at
		 FROM trl_records WHERE fold(technology) = ? ORDER BY seq`, strings.ToLower(technology))
	if err != nil {
		return nil, err
	}
	return yearlyMeans(records), nil
}

func (s *SQLite) queryRecords(ctx context.Context, query string, args ...any) ([]types.AssessmentRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []types.AssessmentRecord
	for rows.Next() {
		var (
			rec                            types.AssessmentRecord
			st, reasoning, features, stamp string
		)
		if err := rows.Scan(&rec.ID, &rec.Technology, &rec.TRLScore, &st, &rec.Confidence,
			&reasoning, &features, &stamp); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec.Status = types.Status(st)
		if err := json.Unmarshal([]byte(reasoning), &rec.Reasoning); err != nil {
			return nil, fmt.Errorf("decoding reasoning of %s: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(features), &rec.Features); err != nil {
			return nil, fmt.Errorf("decoding features of %s: %w", rec.ID, err)
		}
		t, err := time.Parse(timeLayout, stamp)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at of %s: %w", rec.ID, err)
		}
		rec.CreatedAt = t
		out = append(out, rec)
	}
	return out, rows.Err()
}

func recordID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func encodeExtra(extra map[string]any) (any, error) {
	if len(extra) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("encoding extra: %w", err)
	}
	return string(data), nil
}

func decodeExtra(s sql.NullString) (map[string]any, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s.String), &m); err != nil {
		return nil, fmt.Errorf("decoding extra: %w", err)
	}
	return m, nil
}
