package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/e-mutai/pesa-smart-guide/entities"
)

// OpenSQLite opens (or creates) the database shared by the catalog and the
// risk model store.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	return db, nil
}

// SQLiteSource serves the catalog from the funds and fund_history tables.
type SQLiteSource struct {
	db *sql.DB
	mu sync.Mutex
}

func NewSQLiteSource(db *sql.DB) (*SQLiteSource, error) {
	s := &SQLiteSource{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteSource) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS funds (
			id                  TEXT PRIMARY KEY,
			position            INTEGER NOT NULL,
			name                TEXT NOT NULL,
			company             TEXT,
			performance_percent REAL,
			risk                TEXT,
			description         TEXT,
			fee                 REAL,
			minimum_investment  REAL,
			asset_class         TEXT,
			symbol              TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS fund_history (
			fund_id   TEXT NOT NULL,
			seq       INTEGER NOT NULL,
			date      TEXT NOT NULL,
			value     REAL NOT NULL,
			benchmark REAL,
			PRIMARY KEY (fund_id, seq)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (*SQLiteSource) Name() string { return "sqlite" }

func (s *SQLiteSource) LoadCatalog(ctx context.Context) ([]entities.Fund, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, company, performance_percent, risk, description,
		fee, minimum_investment, asset_class, symbol FROM funds ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query funds: %w", err)
	}
	defer rows.Close()

	var funds []entities.Fund
	index := make(map[string]int)
	for rows.Next() {
		var f entities.Fund
		var company, description, assetClass, symbol sql.NullString
		if err := rows.Scan(&f.ID, &f.Name, &company, &f.PerformancePercent, &f.Risk, &description,
			&f.Fee, &f.MinimumInvestment, &assetClass, &symbol); err != nil {
			return nil, fmt.Errorf("scan fund: %w", err)
		}
		f.Company, f.Description = company.String, description.String
		f.AssetClass, f.Symbol = assetClass.String, symbol.String
		index[f.ID] = len(funds)
		funds = append(funds, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate funds: %w", err)
	}

	history, err := s.db.QueryContext(ctx, `SELECT fund_id, date, value, benchmark FROM fund_history ORDER BY fund_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("query fund_history: %w", err)
	}
	defer history.Close()

	for history.Next() {
		var fundID string
		var p entities.HistoricalPoint
		var benchmark sql.NullFloat64
		if err := history.Scan(&fundID, &p.Date, &p.Value, &benchmark); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if benchmark.Valid {
			b := benchmark.Float64
			p.Benchmark = &b
		}
		if i, ok := index[fundID]; ok {
			funds[i].HistoricalData = append(funds[i].HistoricalData, p)
		}
	}
	if err := history.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return funds, nil
}

// Seed replaces the stored catalog with funds, keeping their order.
func (s *SQLiteSource) Seed(ctx context.Context, funds []entities.Fund) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM fund_history`); err != nil {
		return fmt.Errorf("clear fund_history: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM funds`); err != nil {
		return fmt.Errorf("clear funds: %w", err)
	}

	for pos, f := range funds {
		_, err := tx.ExecContext(ctx, `INSERT INTO funds
			(id, position, name, company, performance_percent, risk, description,
			 fee, minimum_investment, asset_class, symbol)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			f.ID, pos, f.Name, f.Company, f.PerformancePercent, f.Risk, f.Description,
			f.Fee, f.MinimumInvestment, f.AssetClass, f.Symbol)
		if err != nil {
			return fmt.Errorf("insert fund %s: %w", f.ID, err)
		}

		for seq, p := range f.HistoricalData {
			var benchmark sql.NullFloat64
			if p.Benchmark != nil {
				benchmark = sql.NullFloat64{Float64: *p.Benchmark, Valid: true}
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO fund_history (fund_id, seq, date, value, benchmark)
				VALUES (?, ?, ?, ?, ?)`, f.ID, seq, p.Date, p.Value, benchmark); err != nil {
				return fmt.Errorf("insert history %s: %w", f.ID, err)
			}
		}
	}

	return tx.Commit()
}
