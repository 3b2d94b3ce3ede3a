package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// DefaultHistoryLimit is the number of messages GetHistory returns when the
// caller passes a non-positive limit.
const DefaultHistoryLimit = 100

// AddMessage appends one message to an agent's conversation history.
// Messages are never updated in place; the only removal path is
// ClearHistory.
func (s *Store) AddMessage(ctx context.Context, agentID string, role Role, content string, metadata map[string]interface{}) (*Message, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	if agentID == "" {
		return nil, newError(ErrorTypeInvalid, "agent id is required", nil)
	}
	if !role.Valid() {
		return nil, newError(ErrorTypeInvalid, fmt.Sprintf("invalid role %q", role), nil)
	}

	var metaJSON []byte
	if metadata != nil {
		metaJSON, err = json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal message metadata: %w", err)
		}
	}

	id := uuid.NewString()
	now := nowMillis()
	query, args, err := StatementBuilder().
		Insert("conversations").
		Columns("id", "agent_id", "role", "content", "metadata", "created_at").
		Values(id, agentID, string(role), content, metaJSON, now).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	err = withBusyRetry(ctx, func() error {
		_, err := db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Str("agentID", agentID).Msg("Failed to append message")
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return &Message{
		ID:        id,
		AgentID:   agentID,
		Role:      role,
		Content:   content,
		Metadata:  metadata,
		Timestamp: millisToTime(now),
	}, nil
}

// GetHistory returns up to limit of the agent's most recent messages in
// chronological (oldest-first) order. With more messages than limit, the
// oldest ones fall off: the query selects the newest rows descending and the
// result is reversed, rather than taking the first rows chronologically.
func (s *Store) GetHistory(ctx context.Context, agentID string, limit int) ([]Message, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query, args, err := StatementBuilder().
		Select(messageColumns()...).
		From("conversations").
		Where("agent_id = ?", agentID).
		OrderBy("seq DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []Message
	for rows.Next() {
		var (
			msg       Message
			role      string
			metaJSON  sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&msg.ID, &msg.AgentID, &role, &msg.Content, &metaJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = Role(role)
		msg.Timestamp = millisToTime(createdAt)
		if metaJSON.Valid && metaJSON.String != "" {
			if err := json.Unmarshal([]byte(metaJSON.String), &msg.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal message metadata: %w", err)
			}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse so oldest is first (we queried DESC for LIMIT).
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ClearHistory deletes every message for the agent. Other agents' histories
// are untouched.
func (s *Store) ClearHistory(ctx context.Context, agentID string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	query, args, err := StatementBuilder().
		Delete("conversations").
		Where("agent_id = ?", agentID).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	err = withBusyRetry(ctx, func() error {
		_, err := db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	s.logger.Info().Str("agentID", agentID).Msg("Conversation history cleared")
	return nil
}
