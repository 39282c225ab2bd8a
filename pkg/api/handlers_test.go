package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/athulya-anil/axon-orchestrator/pkg/coordinator"
	"github.com/athulya-anil/axon-orchestrator/pkg/models"
)

const testToken = "SUPERSECRET"

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewAPI(coordinator.New(0, nil), testToken).SetupRoutes(router)
	return router
}

func doRequest(router *gin.Engine, path, buildID, instanceID, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(http.MethodGet, path, reader)
	if buildID != "" {
		req.Header.Set(HeaderBuildID, buildID)
	}
	if instanceID != "" {
		req.Header.Set(HeaderInstanceID, instanceID)
	}
	if token != "" {
		req.Header.Set(HeaderToken, token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheckNeedsNoMeta(t *testing.T) {
	router := newTestRouter()

	w := doRequest(router, "/", "", "", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp["status"] != "Online" {
		t.Errorf("expected status Online, got %q", resp["status"])
	}
}

func TestMissingMetaIsRejected(t *testing.T) {
	router := newTestRouter()

	cases := []struct {
		name       string
		buildID    string
		instanceID string
		token      string
	}{
		{"no headers", "", "", ""},
		{"no build id", "", "inst-1", testToken},
		{"no instance id", "build-1", "", testToken},
		{"wrong token", "build-1", "inst-1", "nope"},
	}

	for _, tc := range cases {
		w := doRequest(router, "/get-next-test-spec", tc.buildID, tc.instanceID, tc.token, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, w.Code)
		}
	}
}

func TestRegisterReturnsInstanceRecord(t *testing.T) {
	router := newTestRouter()

	body := RegisterInstanceRequest{TestSpecList: []string{"t1", "t2"}}
	w := doRequest(router, "/register-instance", "build-1", "inst-1", testToken, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	var inst models.Instance
	if err := json.Unmarshal(w.Body.Bytes(), &inst); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if !inst.IsMaster {
		t.Error("first registrant should be master")
	}
	if inst.TestStatus != models.StatusOngoing {
		t.Errorf("expected ongoing, got %s", inst.TestStatus)
	}
}

func TestNextTestSpecFlow(t *testing.T) {
	router := newTestRouter()

	body := RegisterInstanceRequest{TestSpecList: []string{"t1"}}
	if w := doRequest(router, "/register-instance", "build-1", "inst-1", testToken, body); w.Code != http.StatusOK {
		t.Fatalf("register failed: %d", w.Code)
	}

	// First pull: the single spec
	w := doRequest(router, "/get-next-test-spec", "build-1", "inst-1", testToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res models.NextTest
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if res.Status != models.StatusOngoing || res.NextTest != "t1" {
		t.Fatalf("unexpected first pull: %+v", res)
	}

	// Second pull: done
	w = doRequest(router, "/get-next-test-spec", "build-1", "inst-1", testToken, nil)
	res = models.NextTest{}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if res.Status != models.StatusDone || res.NextTest != "" {
		t.Fatalf("unexpected second pull: %+v", res)
	}
}

func TestNextTestSpecUnknownBuild(t *testing.T) {
	router := newTestRouter()

	w := doRequest(router, "/get-next-test-spec", "ghost", "inst-1", testToken, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown build, got %d", w.Code)
	}
}

func TestTestCompletedAndReset(t *testing.T) {
	router := newTestRouter()

	body := RegisterInstanceRequest{TestSpecList: []string{"t1"}}
	if w := doRequest(router, "/register-instance", "build-1", "inst-1", testToken, body); w.Code != http.StatusOK {
		t.Fatalf("register failed: %d", w.Code)
	}

	if w := doRequest(router, "/test-completed", "build-1", "inst-1", testToken, nil); w.Code != http.StatusOK {
		t.Fatalf("test-completed failed: %d", w.Code)
	}

	if w := doRequest(router, "/reset", "build-1", "inst-1", testToken, nil); w.Code != http.StatusOK {
		t.Fatalf("reset failed: %d", w.Code)
	}

	// Build is gone after reset
	w := doRequest(router, "/get-next-test-spec", "build-1", "inst-1", testToken, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 after reset, got %d", w.Code)
	}
}
