package scope

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/strata-mem/strata/memory"
)

// ErrNoProjectRoot is returned by Initialize when no project root can be
// detected and the caller neither supplied one nor opted into global-only
// operation. Surfacing this is deliberate: silently degrading to global-only
// would hide a misconfiguration.
var ErrNoProjectRoot = errors.New("no project root detected: pass ProjectRoot or set GlobalOnly")

// Options configures a Manager. The zero value resolves the global directory
// from the environment and detects the project root from the working
// directory with the default markers.
type Options struct {
	// StartDir is where project root detection begins. Defaults to the
	// current working directory.
	StartDir string
	// GlobalDir overrides the per-user global memory directory.
	GlobalDir string
	// ProjectRoot skips detection and uses this directory as the project
	// root.
	ProjectRoot string
	// GlobalOnly permits operating without a project scope when no root is
	// found. Without it, a missing project root is a configuration error.
	GlobalOnly bool
	// Markers overrides the project root marker paths.
	Markers []string
}

// Manager composes the resolver, the two stores, and the migrator behind
// them. It is the only entry point consumers use. The manager exclusively
// owns both store lifecycles; the stores never share a connection.
type Manager struct {
	opts   Options
	logger zerolog.Logger

	mu          sync.Mutex
	initialized bool
	global      *memory.Store
	project     *memory.Store
	current     memory.Scope
}

// NewManager creates an uninitialized manager.
func NewManager(opts Options, logger zerolog.Logger) *Manager {
	logger = logger.With().Str("component", "scope_manager").Logger()
	return &Manager{opts: opts, logger: logger}
}

// Initialize resolves both scope directories, ensures they exist, and opens
// both stores (running migrations as needed). When project initialization
// fails after global succeeded, the global store is closed again: the
// manager comes up whole or not at all. Idempotent once initialized.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		m.logger.Debug().Msg("Manager already initialized")
		return nil
	}

	globalDir := m.opts.GlobalDir
	if globalDir == "" {
		var err error
		globalDir, err = GlobalDir()
		if err != nil {
			return err
		}
	}
	if err := EnsureDir(globalDir); err != nil {
		return err
	}

	global := memory.NewStore(memory.ScopeGlobal, m.logger)
	if err := global.Initialize(DatabasePath(globalDir)); err != nil {
		return fmt.Errorf("initialize global store: %w", err)
	}

	project, err := m.openProjectStore()
	if err != nil {
		_ = global.Close()
		return err
	}

	m.global = global
	m.project = project
	m.current = memory.ScopeProject
	if project == nil {
		m.current = memory.ScopeGlobal
	}
	m.initialized = true

	m.logger.Info().
		Str("globalDir", globalDir).
		Bool("projectScope", project != nil).
		Msg("Scope manager initialized")
	return nil
}

// openProjectStore resolves the project root and opens its store. A nil
// store with nil error means global-only operation was explicitly allowed.
func (m *Manager) openProjectStore() (*memory.Store, error) {
	root := m.opts.ProjectRoot
	if root == "" {
		start := m.opts.StartDir
		if start == "" {
			var err error
			start, err = os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("resolve working directory: %w", err)
			}
		}
		detected, ok := DetectProjectRoot(start, m.opts.Markers)
		if !ok {
			if m.opts.GlobalOnly {
				m.logger.Info().Str("startDir", start).Msg("No project root found, operating global-only")
				return nil, nil
			}
			return nil, ErrNoProjectRoot
		}
		root = detected
	}

	projectDir := ProjectDir(root)
	if err := EnsureDir(projectDir); err != nil {
		return nil, err
	}
	store := memory.NewStore(memory.ScopeProject, m.logger)
	if err := store.Initialize(DatabasePath(projectDir)); err != nil {
		return nil, fmt.Errorf("initialize project store: %w", err)
	}
	return store, nil
}

// Close closes both stores. Safe to call multiple times.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if m.global != nil {
		errs = append(errs, m.global.Close())
		m.global = nil
	}
	if m.project != nil {
		errs = append(errs, m.project.Close())
		m.project = nil
	}
	m.initialized = false
	return errors.Join(errs...)
}

func (m *Manager) errNotInitialized() error {
	return &memory.Error{Type: memory.ErrorTypeNotInitialized, Message: "scope manager is not initialized"}
}

// CurrentScope returns the ambient scope selector. It only affects which
// store CurrentStore hands back, never where data lives.
func (m *Manager) CurrentScope() memory.Scope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// SetScope changes the ambient scope selector. Selecting the project scope
// while operating global-only is rejected.
func (m *Manager) SetScope(scope memory.Scope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return m.errNotInitialized()
	}
	if !scope.Valid() {
		return fmt.Errorf("invalid scope %q", scope)
	}
	if scope == memory.ScopeProject && m.project == nil {
		return fmt.Errorf("project scope is unavailable in global-only mode")
	}
	m.current = scope
	return nil
}

// GlobalStore returns the global-scope store.
func (m *Manager) GlobalStore() (*memory.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return nil, m.errNotInitialized()
	}
	return m.global, nil
}

// ProjectStore returns the project-scope store, or an error when operating
// global-only.
func (m *Manager) ProjectStore() (*memory.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return nil, m.errNotInitialized()
	}
	if m.project == nil {
		return nil, fmt.Errorf("project scope is unavailable in global-only mode")
	}
	return m.project, nil
}

// CurrentStore returns the store selected by the ambient scope.
func (m *Manager) CurrentStore() (*memory.Store, error) {
	m.mu.Lock()
	current := m.current
	m.mu.Unlock()
	if current == memory.ScopeProject {
		return m.ProjectStore()
	}
	return m.GlobalStore()
}

// EffectiveBlock resolves the block a caller should see for a type: the
// project-scope block when one exists, otherwise the global-scope block,
// otherwise nil. Resolution happens at read time; data is never copied
// between scopes. History and agent records are scope-local and not subject
// to this rule.
func (m *Manager) EffectiveBlock(ctx context.Context, typ memory.BlockType) (*memory.Block, error) {
	m.mu.Lock()
	global, project, initialized := m.global, m.project, m.initialized
	m.mu.Unlock()
	if !initialized {
		return nil, m.errNotInitialized()
	}

	if project != nil {
		block, err := project.GetBlockByTypeScope(ctx, typ, memory.ScopeProject)
		if err != nil {
			return nil, err
		}
		if block != nil {
			return block, nil
		}
	}
	return global.GetBlockByTypeScope(ctx, typ, memory.ScopeGlobal)
}

// EffectiveBlocks returns the union of both scopes' blocks keyed by type,
// with project blocks overriding global ones, sorted by type.
func (m *Manager) EffectiveBlocks(ctx context.Context) ([]memory.Block, error) {
	m.mu.Lock()
	global, project, initialized := m.global, m.project, m.initialized
	m.mu.Unlock()
	if !initialized {
		return nil, m.errNotInitialized()
	}

	globalBlocks, err := global.AllBlocks(ctx, "")
	if err != nil {
		return nil, err
	}
	effective := lo.Associate(globalBlocks, func(b memory.Block) (memory.BlockType, memory.Block) {
		return b.Type, b
	})

	if project != nil {
		projectBlocks, err := project.AllBlocks(ctx, "")
		if err != nil {
			return nil, err
		}
		for _, block := range projectBlocks {
			effective[block.Type] = block
		}
	}

	blocks := lo.Values(effective)
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Type < blocks[j].Type })
	return blocks, nil
}
