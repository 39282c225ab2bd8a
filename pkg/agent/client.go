package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/athulya-anil/axon-orchestrator/pkg/models"
)

// Header names attached to every protocol call.
const (
	headerBuildID    = "CI-BUILD-ID"
	headerInstanceID = "CI-INSTANCE-ID"
	headerToken      = "REPO-TOKEN"
)

// Client speaks the coordinator's pull protocol on behalf of one worker
// instance. It exposes one typed method per endpoint; the build,
// instance and token identity ride along as headers on every call.
type Client struct {
	baseURL    string
	buildID    string
	instanceID string
	token      string
	httpClient *http.Client
}

// NewClient creates a protocol client bound to one build and instance.
func NewClient(baseURL, token, buildID, instanceID string) *Client {
	return &Client{
		baseURL:    baseURL,
		buildID:    buildID,
		instanceID: instanceID,
		token:      token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// registerRequest is the register-instance payload.
type registerRequest struct {
	TestSpecList []string `json:"test_spec_list"`
}

// RegisterInstance announces this instance to the coordinator and
// proposes its candidate spec list for the build's pool.
func (c *Client) RegisterInstance(ctx context.Context, testSpecList []string) error {
	resp, err := c.get(ctx, "register-instance", registerRequest{TestSpecList: testSpecList})
	if err != nil {
		return fmt.Errorf("failed to register instance: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("register instance failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

// NextTestSpec pulls one spec assignment, or the done signal once the
// build's pool is exhausted.
func (c *Client) NextTestSpec(ctx context.Context) (models.NextTest, error) {
	var next models.NextTest

	resp, err := c.get(ctx, "get-next-test-spec", nil)
	if err != nil {
		return next, fmt.Errorf("failed to get next test spec: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return next, fmt.Errorf("get next test spec failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(&next); err != nil {
		return next, fmt.Errorf("failed to decode response: %w", err)
	}

	return next, nil
}

// TestCompleted reports that this instance has finished pulling.
func (c *Client) TestCompleted(ctx context.Context) error {
	resp, err := c.get(ctx, "test-completed", nil)
	if err != nil {
		return fmt.Errorf("failed to report completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("test completed failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

// get issues one GET exchange against a protocol endpoint. The protocol
// carries JSON request bodies on GET, matching the coordinator's wire
// format.
func (c *Client) get(ctx context.Context, endpoint string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerBuildID, c.buildID)
	req.Header.Set(headerInstanceID, c.instanceID)
	req.Header.Set(headerToken, c.token)

	return c.httpClient.Do(req)
}
