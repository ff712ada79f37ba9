// Package persistence implements the optional SQLite-backed decision
// audit journal from SPEC_FULL.md §2, grounded on Eve-flipper's embedded
// database pattern (internal/db/db.go): a versioned schema opened with
// modernc.org/sqlite and migrated forward on Open. Disabled by default;
// when enabled it appends one row per assembled TradingDecision for
// postmortem review, never reads back into the request path.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sawpanic/equitycore/internal/domain"
)

// Journal wraps a SQLite connection holding the decision audit log.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and applies
// migrations. Pass ":memory:" for an ephemeral journal in tests.
func Open(path string) (*Journal, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	if strings.Contains(path, "?") {
		dsn = path + "&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal: %w", err)
	}
	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

		CREATE TABLE IF NOT EXISTS decision_journal (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			analysis_id    TEXT NOT NULL,
			ticker         TEXT NOT NULL,
			horizon        TEXT NOT NULL,
			decision_state TEXT NOT NULL,
			confidence     REAL NOT NULL,
			primary_reason TEXT NOT NULL DEFAULT '',
			recorded_at    TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_decision_journal_ticker ON decision_journal(ticker, recorded_at DESC);
		CREATE INDEX IF NOT EXISTS idx_decision_journal_analysis ON decision_journal(analysis_id);

		INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`)
	return err
}

// Close closes the underlying connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends one row per horizon decision in resp, tagged with the
// response's analysis ID and recorded timestamp. Failures are the caller's
// to log; the journal never blocks or alters a request's outcome (spec.md
// §7: cache/audit failures never propagate into the decision path).
func (j *Journal) Record(ctx context.Context, resp domain.Response, decisions map[domain.Horizon]domain.TradingDecision) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO decision_journal (analysis_id, ticker, horizon, decision_state, confidence, primary_reason, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare journal insert: %w", err)
	}
	defer stmt.Close()

	recordedAt := resp.Meta.Timestamp.UTC().Format(time.RFC3339)
	for horizon, d := range decisions {
		if _, err := stmt.ExecContext(ctx, resp.Meta.AnalysisID, resp.Meta.Ticker, string(horizon), string(d.DecisionState), d.Confidence, d.PrimaryReason, recordedAt); err != nil {
			return fmt.Errorf("insert journal row: %w", err)
		}
	}
	return tx.Commit()
}

// RecordResponse journals an assembled Response without requiring the
// caller to reconstruct per-horizon TradingDecisions: Orchestrator.Analyze
// returns only the external Response contract, not its intermediate
// decisions map, so cmd/equitycore calls this instead of Record. It writes
// one row per AIAnalysis horizon when the narrative ran, or a single
// "ALL"-horizon row derived from the Execution envelope otherwise.
func (j *Journal) RecordResponse(ctx context.Context, resp domain.Response) error {
	decisions := make(map[domain.Horizon]domain.TradingDecision)
	if resp.AIAnalysis != nil && len(resp.AIAnalysis.Horizons) > 0 {
		for horizon, perspective := range resp.AIAnalysis.Horizons {
			decisions[horizon] = domain.TradingDecision{
				DecisionState: perspective.Action,
				Confidence:    perspective.Confidence,
				PrimaryReason: perspective.Rationale,
			}
		}
	} else {
		decisions[domain.Horizon("ALL")] = domain.TradingDecision{
			DecisionState: resp.Execution.Action,
			Confidence:    resp.System.Confidence,
			PrimaryReason: strings.Join(resp.Execution.Vetoes, "; "),
		}
	}
	return j.Record(ctx, resp, decisions)
}

// Entry is a single journaled decision, returned by RecentForTicker.
type Entry struct {
	AnalysisID    string
	Ticker        string
	Horizon       string
	DecisionState string
	Confidence    float64
	PrimaryReason string
	RecordedAt    time.Time
}

// RecentForTicker returns up to limit most-recent journal rows for ticker,
// newest first, for post-hoc governor audits.
func (j *Journal) RecentForTicker(ctx context.Context, ticker string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT analysis_id, ticker, horizon, decision_state, confidence, primary_reason, recorded_at
		FROM decision_journal
		WHERE ticker = ?
		ORDER BY recorded_at DESC
		LIMIT ?
	`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var recordedAt string
		if err := rows.Scan(&e.AnalysisID, &e.Ticker, &e.Horizon, &e.DecisionState, &e.Confidence, &e.PrimaryReason, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		e.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
