package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"binanceHistory/internal/domain"
	"binanceHistory/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.ArchiveCache and ports.CacheInspector interfaces using SQLite.
// Each archive is stored under its source URL; rows keep their archive order through seq.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/binance_history.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("%w: failed to create data directory '%s': %w", ports.ErrCache, filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("%w: failed to open database at '%s': %w", ports.ErrCache, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("%w: failed to ping database at '%s': %w", ports.ErrCache, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// One writer at a time; WAL lets readers proceed.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("%w: failed to initialize database schema: %w", ports.ErrCache, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Debug(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS archives (
		url TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		stored_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS klines (
		url TEXT NOT NULL,
		seq INTEGER NOT NULL,
		open_time_us INTEGER NOT NULL,
		open TEXT NOT NULL,
		high TEXT NOT NULL,
		low TEXT NOT NULL,
		close TEXT NOT NULL,
		volume TEXT NOT NULL,
		trades INTEGER NOT NULL,
		close_time_us INTEGER NOT NULL,
		PRIMARY KEY (url, seq)
	);

	CREATE TABLE IF NOT EXISTS agg_trades (
		url TEXT NOT NULL,
		seq INTEGER NOT NULL,
		time_us INTEGER NOT NULL,
		price TEXT NOT NULL,
		quantity TEXT NOT NULL,
		is_buyer_maker INTEGER NOT NULL,
		PRIMARY KEY (url, seq)
	);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- ArchiveCache Implementation ---

// Store replaces the archive saved under url with table.
func (r *Repository) Store(ctx context.Context, url string, table *domain.Table) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", ports.ErrCache, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, q := range []string{
		`DELETE FROM klines WHERE url = ?`,
		`DELETE FROM agg_trades WHERE url = ?`,
		`DELETE FROM archives WHERE url = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, url); err != nil {
			return fmt.Errorf("%w: failed to clear archive %s: %w", ports.ErrCache, url, err)
		}
	}

	switch table.Kind {
	case domain.KindKlines:
		err = insertKlines(ctx, tx, url, table.Klines)
	case domain.KindAggTrades:
		err = insertTrades(ctx, tx, url, table.Trades)
	default:
		err = fmt.Errorf("%w: %q", ports.ErrUnsupportedKind, table.Kind)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to insert rows for %s: %w", ports.ErrCache, url, err)
	}

	const query = `INSERT INTO archives (url, kind, row_count, stored_at) VALUES (?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query, url, string(table.Kind), table.Len(), time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: failed to insert archive %s: %w", ports.ErrCache, url, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit archive %s: %w", ports.ErrCache, url, err)
	}
	r.logger.Debug(ctx, "Archive stored", map[string]interface{}{"url": url, "rows": table.Len()})
	return nil
}

func insertKlines(ctx context.Context, tx *sql.Tx, url string, klines []domain.Kline) error {
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO klines (url, seq, open_time_us, open, high, low, close, volume, trades, close_time_us)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, k := range klines {
		if _, err := stmt.ExecContext(ctx, url, i, k.OpenTime.UnixMicro(),
			domain.FixedString(k.Open), domain.FixedString(k.High), domain.FixedString(k.Low), domain.FixedString(k.Close), domain.FixedString(k.Volume),
			k.Trades, k.CloseTime.UnixMicro()); err != nil {
			return err
		}
	}
	return nil
}

func insertTrades(ctx context.Context, tx *sql.Tx, url string, trades []domain.AggTrade) error {
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO agg_trades (url, seq, time_us, price, quantity, is_buyer_maker)
	VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, t := range trades {
		if _, err := stmt.ExecContext(ctx, url, i, t.Time.UnixMicro(),
			domain.FixedString(t.Price), domain.FixedString(t.Quantity), t.IsBuyerMaker); err != nil {
			return err
		}
	}
	return nil
}

// Contains reports whether an archive is stored under url.
func (r *Repository) Contains(ctx context.Context, url string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM archives WHERE url = ?`, url).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%w: failed to query archive %s: %w", ports.ErrCache, url, err)
	}
	return true, nil
}

// Lookup retrieves the archive stored under url.
// Returns nil, nil if nothing is stored or the stored kind differs.
func (r *Repository) Lookup(ctx context.Context, url string, kind domain.DataKind) (*domain.Table, error) {
	var storedKind string
	err := r.db.QueryRowContext(ctx, `SELECT kind FROM archives WHERE url = ?`, url).Scan(&storedKind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to query archive %s: %w", ports.ErrCache, url, err)
	}
	if domain.DataKind(storedKind) != kind {
		r.logger.Warn(ctx, "Cached archive has a different kind", map[string]interface{}{
			"url": url, "stored": storedKind, "requested": string(kind),
		})
		return nil, nil
	}

	var table *domain.Table
	switch kind {
	case domain.KindKlines:
		table, err = r.selectKlines(ctx, url)
	case domain.KindAggTrades:
		table, err = r.selectTrades(ctx, url)
	default:
		return nil, fmt.Errorf("%w: %q", ports.ErrUnsupportedKind, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load archive %s: %w", ports.ErrCache, url, err)
	}
	return table, nil
}

func (r *Repository) selectKlines(ctx context.Context, url string) (*domain.Table, error) {
	const query = `
	SELECT open_time_us, open, high, low, close, volume, trades, close_time_us
	FROM klines WHERE url = ? ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query, url)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	table := domain.NewTable(domain.KindKlines)
	for rows.Next() {
		var (
			k                  domain.Kline
			openUS, closeUS    int64
			o, h, l, c, volume string
		)
		if err := rows.Scan(&openUS, &o, &h, &l, &c, &volume, &k.Trades, &closeUS); err != nil {
			return nil, fmt.Errorf("failed to scan kline row: %w", err)
		}
		k.OpenTime = time.UnixMicro(openUS).UTC()
		k.CloseTime = time.UnixMicro(closeUS).UTC()
		if err := parseDecimals([]string{o, h, l, c, volume},
			[]*decimal.Decimal{&k.Open, &k.High, &k.Low, &k.Close, &k.Volume}); err != nil {
			return nil, err
		}
		table.Klines = append(table.Klines, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating kline rows: %w", err)
	}
	return table, nil
}

func (r *Repository) selectTrades(ctx context.Context, url string) (*domain.Table, error) {
	const query = `
	SELECT time_us, price, quantity, is_buyer_maker
	FROM agg_trades WHERE url = ? ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query, url)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	table := domain.NewTable(domain.KindAggTrades)
	for rows.Next() {
		var (
			t          domain.AggTrade
			timeUS     int64
			price, qty string
		)
		if err := rows.Scan(&timeUS, &price, &qty, &t.IsBuyerMaker); err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		t.Time = time.UnixMicro(timeUS).UTC()
		if err := parseDecimals([]string{price, qty}, []*decimal.Decimal{&t.Price, &t.Quantity}); err != nil {
			return nil, err
		}
		table.Trades = append(table.Trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return table, nil
}

func parseDecimals(values []string, dst []*decimal.Decimal) error {
	for i, v := range values {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("invalid decimal %q: %w", v, err)
		}
		*dst[i] = d
	}
	return nil
}

// --- CacheInspector Implementation ---

// Entries lists stored archives, most recent first.
func (r *Repository) Entries(ctx context.Context) ([]ports.CacheEntry, error) {
	const query = `SELECT url, row_count, stored_at FROM archives ORDER BY stored_at DESC, url`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query archives: %w", ports.ErrCache, err)
	}
	defer rows.Close()

	var entries []ports.CacheEntry
	for rows.Next() {
		var e ports.CacheEntry
		if err := rows.Scan(&e.URL, &e.Size, &e.StoredAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan archive row: %w", ports.ErrCache, err)
		}
		e.Location = "sqlite"
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating archive rows: %w", ports.ErrCache, err)
	}
	return entries, nil
}
