package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// CreateAgent persists a new agent record and returns it. When no name is
// given, one is derived from the generated id.
func (s *Store) CreateAgent(ctx context.Context, params CreateAgentParams) (*Agent, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	if params.Model == "" {
		return nil, newError(ErrorTypeInvalid, "agent model is required", nil)
	}

	id := uuid.NewString()
	name := params.Name
	if name == "" {
		name = "agent-" + id[:8]
	}

	blockIDsJSON, err := json.Marshal(params.MemoryBlockIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal memory block ids: %w", err)
	}
	var settingsJSON []byte
	if params.Settings != nil {
		settingsJSON, err = json.Marshal(params.Settings)
		if err != nil {
			return nil, fmt.Errorf("marshal agent settings: %w", err)
		}
	}

	now := nowMillis()
	query, args, err := StatementBuilder().
		Insert("agents").
		Columns("id", "name", "model", "memory_block_ids", "settings", "last_used").
		Values(id, name, params.Model, string(blockIDsJSON), settingsJSON, now).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	err = withBusyRetry(ctx, func() error {
		_, err := db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Str("name", name).Msg("Failed to create agent")
		return nil, fmt.Errorf("insert agent: %w", err)
	}

	s.logger.Info().Str("id", id).Str("name", name).Str("model", params.Model).Msg("Agent created")
	return &Agent{
		ID:             id,
		Name:           name,
		Model:          params.Model,
		MemoryBlockIDs: params.MemoryBlockIDs,
		Settings:       params.Settings,
		LastUsed:       millisToTime(now),
	}, nil
}

// GetAgent returns the agent with the given id, or nil when absent.
func (s *Store) GetAgent(ctx context.Context, id string) (*Agent, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	query, args, err := StatementBuilder().
		Select(agentColumns()...).
		From("agents").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	var (
		agent        Agent
		blockIDsJSON sql.NullString
		settingsJSON sql.NullString
		lastUsed     int64
	)
	err = db.QueryRowContext(ctx, query, args...).
		Scan(&agent.ID, &agent.Name, &agent.Model, &blockIDsJSON, &settingsJSON, &lastUsed)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan agent: %w", err)
	}

	agent.LastUsed = millisToTime(lastUsed)
	if blockIDsJSON.Valid && blockIDsJSON.String != "" {
		if err := json.Unmarshal([]byte(blockIDsJSON.String), &agent.MemoryBlockIDs); err != nil {
			return nil, fmt.Errorf("unmarshal memory block ids: %w", err)
		}
	}
	if settingsJSON.Valid && settingsJSON.String != "" {
		if err := json.Unmarshal([]byte(settingsJSON.String), &agent.Settings); err != nil {
			return nil, fmt.Errorf("unmarshal agent settings: %w", err)
		}
	}
	return &agent, nil
}

// TouchAgent refreshes the agent's last_used timestamp. Touching an unknown
// agent is a deliberate no-op returning nil, so callers can touch
// optimistically on every use without an existence check first.
func (s *Store) TouchAgent(ctx context.Context, id string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	query, args, err := StatementBuilder().
		Update("agents").
		Set("last_used", nowMillis()).
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	err = withBusyRetry(ctx, func() error {
		_, err := db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("touch agent: %w", err)
	}
	return nil
}
