package reasoning

import (
	"context"
	"fmt"
	"sync"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

// Agent is the capability set a Job runs against: the system instructions
// the Reasoning Engine composes into its prompt, and the tool references
// available to it, resolved the same way a session's aggregated tools are
// (spec.md §4.7 step 2/4).
type Agent struct {
	ID           string
	Instructions string
	Tools        []models.ToolReference
}

// AgentResolver looks an agent up by the reference carried on a Job
// (models.Job.AgentRef). A production resolver might back this with a
// workspace-declared persona or a config file; AgentRegistry below is the
// in-process variant used when no such store exists.
type AgentResolver interface {
	Resolve(ctx context.Context, agentRef string) (Agent, error)
}

// ErrAgentNotFound is returned by AgentRegistry.Resolve for an unknown ref.
var ErrAgentNotFound = fmt.Errorf("reasoning: agent not found")

// AgentRegistry is a static, in-memory AgentResolver, registered once at
// startup and read-only thereafter — mirrors internal/tools.Registry's
// immutable-after-startup catalog shape.
type AgentRegistry struct {
	mu     sync.RWMutex
	agents map[string]Agent
}

// NewAgentRegistry returns an empty registry.
func NewAgentRegistry() *AgentRegistry {
	return &AgentRegistry{agents: make(map[string]Agent)}
}

// Register adds or replaces an agent definition.
func (r *AgentRegistry) Register(agent Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agent.ID] = agent
}

// Resolve implements AgentResolver.
func (r *AgentRegistry) Resolve(ctx context.Context, agentRef string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[agentRef]
	if !ok {
		return Agent{}, fmt.Errorf("%w: %s", ErrAgentNotFound, agentRef)
	}
	return agent, nil
}
