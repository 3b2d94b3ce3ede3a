package memory

import "time"

// Scope identifies which storage domain a record belongs to.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeProject Scope = "project"
)

// Valid reports whether the scope is one of the two known domains.
func (s Scope) Valid() bool {
	return s == ScopeGlobal || s == ScopeProject
}

// BlockType categorizes a memory block. A store holds at most one block per
// (type, scope) pair.
type BlockType string

const (
	BlockTypePreferences BlockType = "preferences"
	BlockTypePersona     BlockType = "persona"
	BlockTypeContext     BlockType = "context"
	BlockTypeProjectInfo BlockType = "project_info"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether the role is one of the known conversation roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// Block is a single named unit of persisted knowledge.
type Block struct {
	ID        string                 `json:"id"`
	Type      BlockType              `json:"type"`
	Scope     Scope                  `json:"scope"`
	Content   map[string]interface{} `json:"content"`
	Version   int64                  `json:"version"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Message is one turn in an agent's conversation history. Messages are
// append-only and totally ordered by insertion.
type Message struct {
	ID        string                 `json:"id"`
	AgentID   string                 `json:"agent_id"`
	Role      Role                   `json:"role"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Agent is a configured persona that owns conversation history.
type Agent struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Model          string                 `json:"model"`
	MemoryBlockIDs []string               `json:"memory_block_ids,omitempty"`
	Settings       map[string]interface{} `json:"settings,omitempty"`
	LastUsed       time.Time              `json:"last_used"`
}

// SaveBlockParams are the caller-supplied fields for SaveBlock. Identity and
// versioning fields are managed by the store.
type SaveBlockParams struct {
	Type    BlockType
	Scope   Scope
	Content map[string]interface{}
}

// CreateAgentParams are the caller-supplied fields for CreateAgent.
type CreateAgentParams struct {
	Name           string
	Model          string
	MemoryBlockIDs []string
	Settings       map[string]interface{}
}
