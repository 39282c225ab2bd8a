package agent

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/athulya-anil/axon-orchestrator/pkg/models"
)

// State tracks where an agent is in its run.
type State string

const (
	StateStarting   State = "starting"
	StateRegistered State = "registered"
	StatePulling    State = "pulling"
	StateProcessing State = "processing"
	StateDone       State = "done"
)

// Agent drives the pull protocol for one worker instance: register,
// then pull and process one spec per exchange until the coordinator
// reports done. Agents run no internal concurrency; parallelism comes
// from independent agents sharing one build.
type Agent struct {
	BuildID    string
	InstanceID string
	TestList   []string

	// Process is invoked synchronously for each assigned spec. Nil
	// means specs are only collected. A Process error aborts the run.
	Process func(ctx context.Context, spec string) error

	client *Client

	mu    sync.Mutex
	state State
}

// New creates an agent for the given build. instanceID may be empty, in
// which case a random identity is generated.
func New(coordinatorURL, token, buildID, instanceID string, testList []string) *Agent {
	if instanceID == "" {
		instanceID = uuid.New().String()
	}

	return &Agent{
		BuildID:    buildID,
		InstanceID: instanceID,
		TestList:   testList,
		client:     NewClient(coordinatorURL, token, buildID, instanceID),
		state:      StateStarting,
	}
}

// Run registers the agent and pulls specs until the pool is exhausted,
// returning every spec this agent processed. A registration or pull
// failure is fatal and aborts the run; a failed completion report is
// returned as an error alongside the processed specs rather than being
// silently dropped.
func (a *Agent) Run(ctx context.Context) ([]string, error) {
	if err := a.client.RegisterInstance(ctx, a.TestList); err != nil {
		return nil, err
	}
	a.setState(StateRegistered)
	log.Printf("[AGENT] Instance %s registered on build %s (%d candidate specs)",
		a.InstanceID, a.BuildID, len(a.TestList))

	var ran []string
	for {
		a.setState(StatePulling)
		next, err := a.client.NextTestSpec(ctx)
		if err != nil {
			return ran, err
		}

		if next.Status != models.StatusOngoing || next.NextTest == "" {
			break
		}

		a.setState(StateProcessing)
		ran = append(ran, next.NextTest)
		if a.Process != nil {
			if err := a.Process(ctx, next.NextTest); err != nil {
				return ran, fmt.Errorf("failed to process spec %s: %w", next.NextTest, err)
			}
		}
	}

	a.setState(StateDone)
	log.Printf("[AGENT] Instance %s done on build %s (%d specs ran)", a.InstanceID, a.BuildID, len(ran))

	if err := a.client.TestCompleted(ctx); err != nil {
		return ran, err
	}

	return ran, nil
}

// State returns the agent's current position in its run.
func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Agent) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}
