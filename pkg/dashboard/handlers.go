package dashboard

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/athulya-anil/axon-orchestrator/pkg/coordinator"
	"github.com/athulya-anil/axon-orchestrator/pkg/models"
)

// Dashboard provides read-only HTTP views over the coordinator's live
// builds: JSON snapshots plus SSE streams for live observation of a
// test run.
type Dashboard struct {
	coordinator *coordinator.Coordinator
}

// NewDashboard creates a new dashboard instance.
func NewDashboard(c *coordinator.Coordinator) *Dashboard {
	return &Dashboard{coordinator: c}
}

// SetupRoutes configures dashboard routes.
func (d *Dashboard) SetupRoutes(router *gin.Engine) {
	// JSON snapshot endpoints
	router.GET("/api/dashboard/builds", d.buildsSnapshot)
	router.GET("/api/dashboard/status", d.statusSnapshot)

	// SSE endpoints for real-time updates
	router.GET("/api/events/builds", d.buildsSSE)
}

// buildsSnapshot handles GET /api/dashboard/builds
func (d *Dashboard) buildsSnapshot(c *gin.Context) {
	builds := d.sortedBuilds()

	c.JSON(http.StatusOK, gin.H{
		"count":  len(builds),
		"builds": builds,
	})
}

// statusSnapshot handles GET /api/dashboard/status
func (d *Dashboard) statusSnapshot(c *gin.Context) {
	builds := d.coordinator.Snapshot()

	remaining := 0
	dispatched := 0
	instances := 0
	for _, b := range builds {
		remaining += b.Remaining
		dispatched += b.Dispatched
		instances += b.Instances
	}

	c.JSON(http.StatusOK, gin.H{
		"builds_total":     len(builds),
		"specs_remaining":  remaining,
		"specs_dispatched": dispatched,
		"instances_total":  instances,
		"timestamp":        time.Now(),
	})
}

// sortedBuilds returns the snapshot ordered newest first, so the
// dashboard output is stable across refreshes.
func (d *Dashboard) sortedBuilds() []models.BuildInfo {
	builds := d.coordinator.Snapshot()
	sort.Slice(builds, func(i, j int) bool {
		return builds[i].CreatedOn.After(builds[j].CreatedOn)
	})
	return builds
}
