// Package store persists audit reports in SQLite and answers history and
// per-criterion statistics queries.
package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/wcagscan/internal/model"
	"github.com/ppiankov/wcagscan/internal/util"
)

// ErrNotFound is returned when no audit has the requested id
var ErrNotFound = errors.New("audit not found")

const schema = `
CREATE TABLE IF NOT EXISTS audits (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	final_url TEXT,
	mode TEXT NOT NULL,
	mode_effective TEXT NOT NULL,
	use_ai INTEGER NOT NULL,
	score REAL,
	status_code INTEGER NOT NULL,
	page_title TEXT,
	created_at INTEGER NOT NULL,
	report_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audits_created ON audits(created_at);
CREATE INDEX IF NOT EXISTS idx_audits_url ON audits(url);

CREATE TABLE IF NOT EXISTS criterion_results (
	audit_id TEXT NOT NULL REFERENCES audits(id) ON DELETE CASCADE,
	code TEXT NOT NULL,
	level TEXT NOT NULL,
	verdict TEXT NOT NULL,
	source TEXT NOT NULL,
	score INTEGER NOT NULL,
	manual_required INTEGER NOT NULL,
	PRIMARY KEY (audit_id, code)
);
CREATE INDEX IF NOT EXISTS idx_criterion_code ON criterion_results(code);
`

// Store wraps the audit database
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		path = util.ExpandHome(path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: sqlite serialises writers and :memory: is per-connection
	db.SetMaxOpenConns(1)

	if path == ":memory:" {
		if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a report and its per-criterion rows in one transaction.
// Saving an id twice replaces the earlier copy.
func (s *Store) Save(ctx context.Context, r *model.Report) error {
	if r.ID == "" {
		return errors.New("save: report has no id")
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM criterion_results WHERE audit_id = ?`, r.ID); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO audits
		(id, url, final_url, mode, mode_effective, use_ai, score, status_code, page_title, created_at, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.URL, r.FinalURL, string(r.Mode), string(r.ModeEffective), r.UseAI,
		nullScore(r.Score), r.StatusCode, r.PageTitle, r.StartedAt.UnixMilli(), string(raw))
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO criterion_results
		(audit_id, code, level, verdict, source, score, manual_required) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare results: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, o := range r.Results {
		if _, err := stmt.ExecContext(ctx, r.ID, o.Code, string(o.Level), string(o.Verdict),
			string(o.Source), o.Score, o.ManualRequired); err != nil {
			return fmt.Errorf("insert result %s: %w", o.Code, err)
		}
	}
	return tx.Commit()
}

// Get returns the full stored report
func (s *Store) Get(ctx context.Context, id string) (*model.Report, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT report_json FROM audits WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	var r model.Report
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("decode audit %s: %w", id, err)
	}
	return &r, nil
}

// AuditSummary is one row of the audit history
type AuditSummary struct {
	ID            string     `json:"id"`
	URL           string     `json:"url"`
	Mode          model.Mode `json:"mode"`
	ModeEffective model.Mode `json:"mode_effective"`
	Score         *float64   `json:"score"`
	StatusCode    int        `json:"status_code"`
	PageTitle     string     `json:"page_title"`
	CreatedAt     time.Time  `json:"created_at"`
}

// List returns the most recent audits first; limit <= 0 means 50
func (s *Store) List(ctx context.Context, limit int) ([]AuditSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, url, mode, mode_effective, score, status_code, page_title, created_at
		FROM audits ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []AuditSummary{}
	for rows.Next() {
		var (
			a       AuditSummary
			score   sql.NullFloat64
			title   sql.NullString
			created int64
		)
		if err := rows.Scan(&a.ID, &a.URL, &a.Mode, &a.ModeEffective, &score, &a.StatusCode, &title, &created); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		if score.Valid {
			v := score.Float64
			a.Score = &v
		}
		a.PageTitle = title.String
		a.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

// CriterionStat is the verdict histogram of one code across stored audits
type CriterionStat struct {
	Code     string `json:"code"`
	Level    string `json:"level"`
	Total    int    `json:"total"`
	Pass     int    `json:"pass"`
	Partial  int    `json:"partial"`
	Fail     int    `json:"fail"`
	NA       int    `json:"na"`
	Manual   int    `json:"manual_required"`
	Rendered int    `json:"from_rendered"`
	AI       int    `json:"from_ai"`
}

// CriterionStats aggregates verdicts per code, in WCAG order
func (s *Store) CriterionStats(ctx context.Context) ([]CriterionStat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, MAX(level), COUNT(*),
		SUM(verdict = 'pass'), SUM(verdict = 'partial'), SUM(verdict = 'fail'), SUM(verdict = 'na'),
		SUM(manual_required), SUM(source = 'rendered'), SUM(source = 'ai')
		FROM criterion_results GROUP BY code`)
	if err != nil {
		return nil, fmt.Errorf("criterion stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byCode := map[string]CriterionStat{}
	var codes []string
	for rows.Next() {
		var st CriterionStat
		if err := rows.Scan(&st.Code, &st.Level, &st.Total, &st.Pass, &st.Partial, &st.Fail, &st.NA,
			&st.Manual, &st.Rendered, &st.AI); err != nil {
			return nil, fmt.Errorf("scan stat: %w", err)
		}
		byCode[st.Code] = st
		codes = append(codes, st.Code)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	model.SortCodes(codes)
	out := make([]CriterionStat, 0, len(codes))
	for _, c := range codes {
		out = append(out, byCode[c])
	}
	return out, nil
}

// ExportCSV writes every stored criterion result joined with its audit
func (s *Store) ExportCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.db.QueryContext(ctx, `SELECT a.id, a.url, a.created_at, a.score, r.code, r.level, r.verdict, r.source, r.score, r.manual_required
		FROM criterion_results r JOIN audits a ON a.id = r.audit_id
		ORDER BY a.created_at, a.id, r.code`)
	if err != nil {
		return fmt.Errorf("export query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"audit_id", "url", "created_at", "audit_score", "code", "level", "verdict", "source", "score_0_2", "manual_required"}); err != nil {
		return err
	}
	for rows.Next() {
		var (
			id, url, code, level, verdict, source string
			created                               int64
			auditScore                            sql.NullFloat64
			sub                                   int
			manual                                bool
		)
		if err := rows.Scan(&id, &url, &created, &auditScore, &code, &level, &verdict, &source, &sub, &manual); err != nil {
			return fmt.Errorf("scan export row: %w", err)
		}
		scoreText := ""
		if auditScore.Valid {
			scoreText = strconv.FormatFloat(auditScore.Float64, 'f', 4, 64)
		}
		if err := cw.Write([]string{
			id, url, time.UnixMilli(created).UTC().Format(time.RFC3339), scoreText,
			code, level, verdict, source, strconv.Itoa(sub), strconv.FormatBool(manual),
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func nullScore(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
