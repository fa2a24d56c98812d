package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"MarketBriefing/internal/domain"
	"MarketBriefing/internal/ports"
)

// Dialect selects SQL flavour and placeholder style.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// SQLStore persists briefings and auxiliary lookups in Postgres or SQLite.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	builder sq.StatementBuilderType
	now     func() time.Time
}

var (
	_ ports.BriefingRepository = (*SQLStore)(nil)
	_ ports.LookupCache        = (*SQLStore)(nil)
)

// DialectFor picks Postgres for postgres:// URLs and SQLite for anything else.
func DialectFor(dsn string) Dialect {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*SQLStore, error) {
	dialect := DialectFor(dsn)
	driver := "sqlite"
	if dialect == Postgres {
		driver = "postgres"
	} else {
		dsn = strings.TrimPrefix(dsn, "sqlite://")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	if dialect == SQLite {
		// a single writer avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
	}

	return NewSQLStore(db, dialect), nil
}

// NewSQLStore wraps an existing connection.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	var placeholder sq.PlaceholderFormat = sq.Question
	if dialect == Postgres {
		placeholder = sq.Dollar
	}
	return &SQLStore{
		db:      db,
		dialect: dialect,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
		now:     time.Now,
	}
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrate creates the schema when it is absent.
func (s *SQLStore) Migrate(ctx context.Context) error {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	blob := "BLOB"
	if s.dialect == Postgres {
		idColumn = "id BIGSERIAL PRIMARY KEY"
		blob = "BYTEA"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS briefings (
			` + idColumn + `,
			generated_at BIGINT NOT NULL,
			mode TEXT NOT NULL,
			window_label TEXT NOT NULL,
			classifier_mode TEXT NOT NULL,
			positive INTEGER NOT NULL,
			negative INTEGER NOT NULL,
			neutral INTEGER NOT NULL,
			items INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS briefing_headlines (
			briefing_id BIGINT NOT NULL REFERENCES briefings(id) ON DELETE CASCADE,
			topic TEXT NOT NULL,
			link TEXT NOT NULL,
			position INTEGER NOT NULL,
			highlight_position INTEGER NOT NULL DEFAULT 0,
			title TEXT NOT NULL,
			source TEXT NOT NULL,
			author TEXT NOT NULL,
			published_at BIGINT,
			published_raw TEXT NOT NULL,
			label TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			used TEXT NOT NULL,
			PRIMARY KEY (briefing_id, topic, link)
		)`,
		`CREATE TABLE IF NOT EXISTS lookup_cache (
			cache_key TEXT PRIMARY KEY,
			payload ` + blob + ` NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SaveBriefing stores one briefing row and every ranked headline in a transaction.
func (s *SQLStore) SaveBriefing(ctx context.Context, b domain.Briefing) (err error) {
	if s.db == nil {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query, args, err := s.builder.
		Insert("briefings").
		Columns("generated_at", "mode", "window_label", "classifier_mode", "positive", "negative", "neutral", "items").
		Values(
			b.GeneratedAt.Unix(),
			b.Mode,
			b.WindowLabel,
			b.ClassifierMode,
			b.Totals.Get(domain.Positive),
			b.Totals.Get(domain.Negative),
			b.Totals.Get(domain.Neutral),
			b.ItemCount(),
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build briefing insert: %w", err)
	}

	var id int64
	if err = tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return fmt.Errorf("insert briefing: %w", err)
	}

	for _, topic := range b.Topics {
		for i, h := range topic.Ranked {
			if err = s.upsertHeadline(ctx, tx, id, i+1, h); err != nil {
				return err
			}
		}
	}

	for i, h := range b.Highlights {
		query, args, err = s.builder.
			Update("briefing_headlines").
			Set("highlight_position", i+1).
			Where(sq.Eq{"briefing_id": id, "topic": h.Topic, "link": h.Link}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build highlight update: %w", err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("mark highlight %s: %w", h.Link, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit briefing: %w", err)
	}
	return nil
}

func (s *SQLStore) upsertHeadline(ctx context.Context, tx *sql.Tx, briefingID int64, position int, h domain.ScoredHeadline) error {
	var published any
	if h.PublishedAt != nil {
		published = h.PublishedAt.Unix()
	}

	query, args, err := s.builder.
		Insert("briefing_headlines").
		Columns("briefing_id", "topic", "link", "position", "title", "source", "author", "published_at", "published_raw", "label", "confidence", "used").
		Values(briefingID, h.Topic, h.Link, position, h.Title, h.Source, h.Author, published, h.PublishedRaw, string(h.Label), h.Confidence, string(h.Used)).
		Suffix(`ON CONFLICT (briefing_id, topic, link) DO UPDATE
			SET position = EXCLUDED.position,
			    label = EXCLUDED.label,
			    confidence = EXCLUDED.confidence,
			    used = EXCLUDED.used`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build headline upsert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert headline %s: %w", h.Link, err)
	}
	return nil
}

// Get returns the cached payload for key and when it was written.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, time.Time, bool, error) {
	query, args, err := s.builder.
		Select("payload", "updated_at").
		From("lookup_cache").
		Where(sq.Eq{"cache_key": key}).
		ToSql()
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("build cache select: %w", err)
	}

	var (
		payload []byte
		updated int64
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&payload, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("query cache %s: %w", key, err)
	}
	return payload, time.Unix(updated, 0), true, nil
}

// Put stores payload under key, replacing any previous value.
func (s *SQLStore) Put(ctx context.Context, key string, payload []byte) error {
	query, args, err := s.builder.
		Insert("lookup_cache").
		Columns("cache_key", "payload", "updated_at").
		Values(key, payload, s.now().Unix()).
		Suffix("ON CONFLICT (cache_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build cache upsert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert cache %s: %w", key, err)
	}
	return nil
}
