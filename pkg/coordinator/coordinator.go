package coordinator

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/athulya-anil/axon-orchestrator/pkg/models"
	"github.com/athulya-anil/axon-orchestrator/pkg/pool"
)

// DefaultBuildTTL is how long a build record is kept after creation.
// Builds for finished runs are dropped wholesale once the TTL passes.
const DefaultBuildTTL = 2 * time.Hour

var (
	ErrBuildNotFound    = errors.New("build not found")
	ErrInstanceNotFound = errors.New("instance not found")
)

// Journal receives best-effort telemetry about protocol events. A nil
// journal disables recording; journal errors never reach the protocol
// path.
type Journal interface {
	RecordRegistration(buildID, instanceID string, candidates int) error
	RecordAssignment(buildID, instanceID, testSpec string) error
	RecordCompletion(buildID, instanceID string) error
}

// build is the per-build state: one pool of pending specs plus the
// registry of participating instances. The pool carries its own lock;
// mu guards the instance map and the assignment index.
type build struct {
	id        string
	createdOn time.Time
	pool      *pool.TestPool

	mu        sync.RWMutex
	instances map[string]*models.Instance
	assigned  map[string]string // test spec -> instance that received it
}

// Coordinator serializes concurrent demand for each build's spec pool
// into a strictly partitioned assignment: one spec per pull, no
// duplicates, no omissions, and a deterministic done signal once the
// pool is empty.
type Coordinator struct {
	mu      sync.Mutex // guards build creation and deletion
	builds  *gocache.Cache
	journal Journal
}

// New creates a coordinator whose builds expire ttl after creation.
// journal may be nil.
func New(ttl time.Duration, journal Journal) *Coordinator {
	if ttl <= 0 {
		ttl = DefaultBuildTTL
	}

	builds := gocache.New(ttl, 10*time.Minute)
	builds.OnEvicted(func(id string, _ interface{}) {
		log.Printf("[SWEEP] Build %s expired and was removed", id)
	})

	return &Coordinator{
		builds:  builds,
		journal: journal,
	}
}

// Register upserts an instance registration under a build, creating the
// build on first contact. Candidate specs are unioned into the build's
// pool through its seen-filter, so registering twice (or late) can never
// re-admit a spec that was already dispatched.
func (c *Coordinator) Register(buildID, instanceID string, candidateTests []string) (*models.Instance, error) {
	b := c.getOrCreateBuild(buildID)

	b.mu.Lock()
	inst, ok := b.instances[instanceID]
	if !ok {
		inst = &models.Instance{
			ID:             instanceID,
			CandidateTests: candidateTests,
			TestList:       []string{},
			TestStatus:     models.StatusOngoing,
			IsMaster:       len(b.instances) == 0,
			RegisteredAt:   time.Now(),
		}
		b.instances[instanceID] = inst
	}
	snapshot := *inst
	snapshot.TestList = append([]string(nil), inst.TestList...)
	b.mu.Unlock()

	added := b.pool.Add(candidateTests)
	log.Printf("[REG] Instance %s registered on build %s (%d new specs, %d pending)",
		instanceID, buildID, added, b.pool.Remaining())

	if c.journal != nil {
		if err := c.journal.RecordRegistration(buildID, instanceID, len(candidateTests)); err != nil {
			log.Printf("[WARN] Journal registration failed: %v", err)
		}
	}

	return &snapshot, nil
}

// NextTest atomically removes and returns one spec from the build's
// pool, or reports done once the pool is exhausted. Exactly one caller
// ever receives a given spec; the pool makes a duplicate dispatch
// unreachable, and the assignment index panics if one is ever observed
// rather than silently absorbing it.
func (c *Coordinator) NextTest(buildID, instanceID string) (models.NextTest, error) {
	b, err := c.getBuild(buildID)
	if err != nil {
		return models.NextTest{}, err
	}

	b.mu.RLock()
	inst, ok := b.instances[instanceID]
	b.mu.RUnlock()
	if !ok {
		return models.NextTest{}, ErrInstanceNotFound
	}

	spec, ok := b.pool.PopNext()
	if !ok {
		return models.NextTest{Status: models.StatusDone}, nil
	}

	b.mu.Lock()
	if prev, dup := b.assigned[spec]; dup {
		b.mu.Unlock()
		panic(fmt.Sprintf("coordinator: spec %q on build %s dispatched to both %s and %s",
			spec, buildID, prev, instanceID))
	}
	b.assigned[spec] = instanceID
	inst.TestList = append(inst.TestList, spec)
	b.mu.Unlock()

	if c.journal != nil {
		if err := c.journal.RecordAssignment(buildID, instanceID, spec); err != nil {
			log.Printf("[WARN] Journal assignment failed: %v", err)
		}
	}

	return models.NextTest{Status: models.StatusOngoing, NextTest: spec}, nil
}

// Complete records that an instance finished pulling. Bookkeeping only:
// exhaustion is pool-driven and never depends on completion reports.
func (c *Coordinator) Complete(buildID, instanceID string) error {
	b, err := c.getBuild(buildID)
	if err != nil {
		return err
	}

	b.mu.Lock()
	inst, ok := b.instances[instanceID]
	if !ok {
		b.mu.Unlock()
		return ErrInstanceNotFound
	}
	inst.TestStatus = models.StatusDone
	ran := len(inst.TestList)
	b.mu.Unlock()

	log.Printf("[DONE] Instance %s completed on build %s (%d specs ran)",
		instanceID, buildID, ran)

	if c.journal != nil {
		if err := c.journal.RecordCompletion(buildID, instanceID); err != nil {
			log.Printf("[WARN] Journal completion failed: %v", err)
		}
	}

	return nil
}

// Reset removes a build and all its state. Administrative: a reset
// build is simply gone, it does not signal done to anyone.
func (c *Coordinator) Reset(buildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.builds.Delete(buildID)
	log.Printf("[RESET] Build %s removed", buildID)
}

// Snapshot returns a point-in-time view of every live build.
func (c *Coordinator) Snapshot() []models.BuildInfo {
	items := c.builds.Items()

	infos := make([]models.BuildInfo, 0, len(items))
	for _, item := range items {
		b, ok := item.Object.(*build)
		if !ok {
			continue
		}

		b.mu.RLock()
		done := 0
		for _, inst := range b.instances {
			if inst.TestStatus == models.StatusDone {
				done++
			}
		}
		infos = append(infos, models.BuildInfo{
			ID:            b.id,
			CreatedOn:     b.createdOn,
			Remaining:     b.pool.Remaining(),
			Dispatched:    b.pool.Dispatched(),
			Instances:     len(b.instances),
			DoneInstances: done,
		})
		b.mu.RUnlock()
	}
	return infos
}

// getOrCreateBuild returns the live build record, creating an empty one
// on first contact.
func (c *Coordinator) getOrCreateBuild(buildID string) *build {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.builds.Get(buildID); ok {
		return v.(*build)
	}

	b := &build{
		id:        buildID,
		createdOn: time.Now(),
		pool:      pool.New(nil),
		instances: make(map[string]*models.Instance),
		assigned:  make(map[string]string),
	}
	c.builds.Set(buildID, b, gocache.DefaultExpiration)
	log.Printf("[BUILD] Build %s created", buildID)
	return b
}

func (c *Coordinator) getBuild(buildID string) (*build, error) {
	v, ok := c.builds.Get(buildID)
	if !ok {
		return nil, ErrBuildNotFound
	}
	return v.(*build), nil
}
