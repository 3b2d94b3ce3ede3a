// Package memory implements durable storage for one scope's memory blocks,
// conversation history, and agent records over a single SQLite database.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/strata-mem/strata/migrations"

	_ "github.com/mattn/go-sqlite3"
)

// Store owns one scope's database connection. A store is created
// uninitialized, accepts data operations only between Initialize and Close,
// and fails every operation outside that window with a not-initialized error.
type Store struct {
	scope  Scope
	logger zerolog.Logger

	mu sync.Mutex
	db *sql.DB
}

// NewStore creates an uninitialized store for the given scope.
func NewStore(scope Scope, logger zerolog.Logger) *Store {
	logger = logger.With().Str("component", "memory_store").Str("scope", string(scope)).Logger()
	return &Store{scope: scope, logger: logger}
}

// Scope returns the storage domain this store owns.
func (s *Store) Scope() Scope {
	return s.scope
}

// dsn builds the sqlite connection string. WAL allows concurrent readers
// from other processes while one writer is active; busy_timeout makes the
// driver wait for a writer lock before reporting SQLITE_BUSY.
func dsn(path string) string {
	return "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
}

// Initialize opens (creating if absent) the database file at path and brings
// its schema to the latest version. Initializing an already-initialized
// store is an error; initialize a fresh store per lifecycle.
func (s *Store) Initialize(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return newError(ErrorTypeInvalid, "store is already initialized", nil)
	}

	s.logger.Info().Str("path", path).Msg("Initializing memory store")
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return newError(ErrorTypeIO, fmt.Sprintf("open database %s", path), err)
	}
	// The store exclusively owns a single connection; this also serializes
	// writers within the process so SQLITE_BUSY only ever comes from other
	// processes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return newError(ErrorTypeIO, fmt.Sprintf("database %s is not readable", path), err)
	}

	if err := migrations.Run(db, s.logger); err != nil {
		_ = db.Close()
		if migrations.IsSchemaTooNew(err) {
			return newError(ErrorTypeSchemaIncompatible, "database schema is newer than this build supports", err)
		}
		return newError(ErrorTypeMigration, "migrate database", err)
	}

	s.db = db
	s.logger.Info().Str("path", path).Msg("Memory store initialized")
	return nil
}

// Close releases the connection. Safe to call multiple times; operations
// after Close fail as not initialized.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.logger.Info().Msg("Memory store closed")
	return err
}

// conn returns the live connection or a not-initialized error.
func (s *Store) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, errNotInitialized(s.scope)
	}
	return s.db, nil
}

func nowMillis() int64 { return time.Now().UnixMilli() }

func millisToTime(ms int64) time.Time { return time.UnixMilli(ms) }

// SaveBlock upserts a block keyed on (type, scope). An existing block keeps
// its id and created_at, gets the new content, and its version incremented;
// a new block starts at version 1. The resulting full block is returned.
func (s *Store) SaveBlock(ctx context.Context, params SaveBlockParams) (*Block, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	if params.Type == "" {
		return nil, newError(ErrorTypeInvalid, "block type is required", nil)
	}
	if !params.Scope.Valid() {
		return nil, newError(ErrorTypeInvalid, fmt.Sprintf("invalid scope %q", params.Scope), nil)
	}
	if params.Scope != s.scope {
		return nil, newError(ErrorTypeInvalid,
			fmt.Sprintf("scope %q does not belong to this store (%s)", params.Scope, s.scope), nil)
	}

	contentJSON, err := json.Marshal(params.Content)
	if err != nil {
		return nil, fmt.Errorf("marshal block content: %w", err)
	}

	var saved *Block
	err = withBusyRetry(ctx, func() error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		query, args, err := StatementBuilder().
			Select("id", "version", "created_at").
			From("memory_blocks").
			Where("type = ? AND scope = ?", string(params.Type), string(params.Scope)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build select query: %w", err)
		}

		var (
			id        string
			version   int64
			createdAt int64
		)
		now := nowMillis()
		switch err := tx.QueryRowContext(ctx, query, args...).Scan(&id, &version, &createdAt); err {
		case nil:
			version++
			update, args, err := StatementBuilder().
				Update("memory_blocks").
				Set("content", string(contentJSON)).
				Set("version", version).
				Set("updated_at", now).
				Where("id = ?", id).
				ToSql()
			if err != nil {
				return fmt.Errorf("build update query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, update, args...); err != nil {
				return fmt.Errorf("update memory_block: %w", err)
			}
		case sql.ErrNoRows:
			id = uuid.NewString()
			version = 1
			createdAt = now
			insert, args, err := StatementBuilder().
				Insert("memory_blocks").
				Columns("id", "type", "scope", "content", "version", "created_at", "updated_at").
				Values(id, string(params.Type), string(params.Scope), string(contentJSON), version, createdAt, now).
				ToSql()
			if err != nil {
				return fmt.Errorf("build insert query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
				return fmt.Errorf("insert memory_block: %w", err)
			}
		default:
			return fmt.Errorf("lookup memory_block: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit save block: %w", err)
		}

		saved = &Block{
			ID:        id,
			Type:      params.Type,
			Scope:     params.Scope,
			Content:   params.Content,
			Version:   version,
			CreatedAt: millisToTime(createdAt),
			UpdatedAt: millisToTime(now),
		}
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("type", string(params.Type)).Msg("Failed to save block")
		return nil, err
	}

	s.logger.Info().
		Str("type", string(params.Type)).
		Str("id", saved.ID).
		Int64("version", saved.Version).
		Msg("Block saved")
	return saved, nil
}

// ImportBlock writes a block verbatim, preserving its id, version, and
// timestamps. Any existing block for the same (type, scope) is deleted in
// the same transaction so the per-(type, scope) uniqueness invariant holds
// even when ids differ. Used when restoring or copying blocks across stores.
func (s *Store) ImportBlock(ctx context.Context, block Block) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if block.ID == "" || block.Type == "" {
		return newError(ErrorTypeInvalid, "imported block must carry id and type", nil)
	}
	if !block.Scope.Valid() {
		return newError(ErrorTypeInvalid, fmt.Sprintf("invalid scope %q", block.Scope), nil)
	}

	contentJSON, err := json.Marshal(block.Content)
	if err != nil {
		return fmt.Errorf("marshal block content: %w", err)
	}

	err = withBusyRetry(ctx, func() error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		del, args, err := StatementBuilder().
			Delete("memory_blocks").
			Where("type = ? AND scope = ?", string(block.Type), string(block.Scope)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build delete query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, del, args...); err != nil {
			return fmt.Errorf("delete existing memory_block: %w", err)
		}

		insert, args, err := StatementBuilder().
			Insert("memory_blocks").
			Columns("id", "type", "scope", "content", "version", "created_at", "updated_at").
			Values(block.ID, string(block.Type), string(block.Scope), string(contentJSON),
				block.Version, block.CreatedAt.UnixMilli(), block.UpdatedAt.UnixMilli()).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			return fmt.Errorf("insert imported memory_block: %w", err)
		}

		return tx.Commit()
	})
	if err != nil {
		s.logger.Error().Err(err).Str("id", block.ID).Msg("Failed to import block")
		return err
	}

	s.logger.Info().Str("id", block.ID).Str("type", string(block.Type)).Msg("Block imported")
	return nil
}

// GetBlockByID returns the block with the given id, or nil when absent.
func (s *Store) GetBlockByID(ctx context.Context, id string) (*Block, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	query, args, err := StatementBuilder().
		Select(blockColumns()...).
		From("memory_blocks").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}
	return scanBlockRow(db.QueryRowContext(ctx, query, args...))
}

// GetBlockByTypeScope returns the block for the (type, scope) pair, or nil
// when absent.
func (s *Store) GetBlockByTypeScope(ctx context.Context, typ BlockType, scope Scope) (*Block, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	query, args, err := StatementBuilder().
		Select(blockColumns()...).
		From("memory_blocks").
		Where("type = ? AND scope = ?", string(typ), string(scope)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}
	return scanBlockRow(db.QueryRowContext(ctx, query, args...))
}

// AllBlocks returns every block, optionally filtered to a scope. An empty
// scope means no filter. The filter matters for aggregate tooling; in normal
// operation a store only ever holds rows for its own scope.
func (s *Store) AllBlocks(ctx context.Context, scope Scope) ([]Block, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	builder := StatementBuilder().
		Select(blockColumns()...).
		From("memory_blocks").
		OrderBy("type ASC")
	if scope != "" {
		builder = builder.Where("scope = ?", string(scope))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query memory_blocks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var blocks []Block
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, *block)
	}
	return blocks, rows.Err()
}

// DeleteBlock removes the block with the given id. Deleting a missing block
// is a no-op.
func (s *Store) DeleteBlock(ctx context.Context, id string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	query, args, err := StatementBuilder().
		Delete("memory_blocks").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	err = withBusyRetry(ctx, func() error {
		_, err := db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete memory_block: %w", err)
	}
	s.logger.Debug().Str("id", id).Msg("Block deleted")
	return nil
}

// Maintain checkpoints the WAL and refreshes query-planner statistics. Safe
// to run at any time; used by the maintenance scheduler.
func (s *Store) Maintain(ctx context.Context) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		return fmt.Errorf("optimize: %w", err)
	}
	s.logger.Debug().Msg("Maintenance pass complete")
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBlock(row rowScanner) (*Block, error) {
	var (
		block       Block
		typ, scope  string
		contentJSON string
		createdAt   int64
		updatedAt   int64
	)
	if err := row.Scan(&block.ID, &typ, &scope, &contentJSON, &block.Version, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("scan memory_block: %w", err)
	}
	block.Type = BlockType(typ)
	block.Scope = Scope(scope)
	block.CreatedAt = millisToTime(createdAt)
	block.UpdatedAt = millisToTime(updatedAt)
	if contentJSON != "" {
		if err := json.Unmarshal([]byte(contentJSON), &block.Content); err != nil {
			return nil, fmt.Errorf("unmarshal block content: %w", err)
		}
	}
	return &block, nil
}

// scanBlockRow maps sql.ErrNoRows to a nil block: not-found is a normal
// result, not an error.
func scanBlockRow(row *sql.Row) (*Block, error) {
	block, err := scanBlock(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return block, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
