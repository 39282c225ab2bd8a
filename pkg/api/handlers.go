package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/athulya-anil/axon-orchestrator/pkg/coordinator"
)

// API wraps the coordinator and provides the HTTP protocol surface
// worker instances pull against.
type API struct {
	coordinator *coordinator.Coordinator
	token       string
}

// NewAPI creates a new API instance. token is the shared secret every
// protocol call must present in the REPO-TOKEN header.
func NewAPI(c *coordinator.Coordinator, token string) *API {
	return &API{
		coordinator: c,
		token:       token,
	}
}

// SetupRoutes configures all protocol routes. The endpoints and their
// GET verbs mirror the wire protocol the worker agents speak.
func (a *API) SetupRoutes(router *gin.Engine) {
	router.GET("/", a.healthCheck)

	authed := router.Group("/", a.requireMeta())
	authed.GET("/register-instance", a.registerInstance)
	authed.GET("/get-next-test-spec", a.nextTestSpec)
	authed.GET("/test-completed", a.testCompleted)
	authed.GET("/reset", a.resetBuild)
}

// RegisterInstanceRequest is the payload of register-instance: the
// candidate specs this instance proposes for the build's pool.
type RegisterInstanceRequest struct {
	TestSpecList []string `json:"test_spec_list"`
}

// registerInstance handles GET /register-instance
func (a *API) registerInstance(c *gin.Context) {
	var req RegisterInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m := meta(c)
	inst, err := a.coordinator.Register(m.BuildID, m.InstanceID, req.TestSpecList)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, inst)
}

// nextTestSpec handles GET /get-next-test-spec
func (a *API) nextTestSpec(c *gin.Context) {
	m := meta(c)

	res, err := a.coordinator.NextTest(m.BuildID, m.InstanceID)
	if err != nil {
		a.notFound(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// testCompleted handles GET /test-completed
func (a *API) testCompleted(c *gin.Context) {
	m := meta(c)

	if err := a.coordinator.Complete(m.BuildID, m.InstanceID); err != nil {
		a.notFound(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

// resetBuild handles GET /reset. Administrative: drops the caller's
// build entirely.
func (a *API) resetBuild(c *gin.Context) {
	m := meta(c)

	a.coordinator.Reset(m.BuildID)
	c.JSON(http.StatusOK, gin.H{})
}

// healthCheck handles GET /
func (a *API) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "Online"})
}

// notFound maps coordinator lookup failures onto 400 responses, the
// status the protocol's clients expect for unknown builds or instances.
func (a *API) notFound(c *gin.Context, err error) {
	switch {
	case errors.Is(err, coordinator.ErrBuildNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Build not found"})
	case errors.Is(err, coordinator.ErrInstanceNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Instance not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
