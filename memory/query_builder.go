package memory

import (
	sq "github.com/Masterminds/squirrel"
)

// StatementBuilder returns a Squirrel StatementBuilder configured for SQLite.
// SQLite uses '?' as placeholders, which is Squirrel's default.
func StatementBuilder() sq.StatementBuilderType {
	return sq.StatementBuilder
}

// blockColumns is the standard column list for memory_blocks SELECT queries.
func blockColumns() []string {
	return []string{"id", "type", "scope", "content", "version", "created_at", "updated_at"}
}

// messageColumns is the standard column list for conversations SELECT queries.
func messageColumns() []string {
	return []string{"id", "agent_id", "role", "content", "metadata", "created_at"}
}

// agentColumns is the standard column list for agents SELECT queries.
func agentColumns() []string {
	return []string{"id", "name", "model", "memory_block_ids", "settings", "last_used"}
}
