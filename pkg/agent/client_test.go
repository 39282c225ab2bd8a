package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/athulya-anil/axon-orchestrator/pkg/models"
)

func TestClient_RegisterInstanceSendsMetaAndSpecs(t *testing.T) {
	var gotBuild, gotInstance, gotToken string
	var gotBody registerRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/register-instance" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotBuild = r.Header.Get(headerBuildID)
		gotInstance = r.Header.Get(headerInstanceID)
		gotToken = r.Header.Get(headerToken)
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"test_list":[],"test_status":"ongoing","is_master":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", "build-1", "inst-1")
	if err := client.RegisterInstance(context.Background(), []string{"t1", "t2"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if gotBuild != "build-1" || gotInstance != "inst-1" || gotToken != "secret" {
		t.Errorf("meta headers not sent: build=%q instance=%q token=%q", gotBuild, gotInstance, gotToken)
	}
	if len(gotBody.TestSpecList) != 2 {
		t.Errorf("expected 2 specs in body, got %d", len(gotBody.TestSpecList))
	}
}

func TestClient_RegisterInstanceRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Expected meta info like build id, instance id and token"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "wrong", "build-1", "inst-1")
	if err := client.RegisterInstance(context.Background(), nil); err == nil {
		t.Fatal("expected error on 400 response")
	}
}

func TestClient_NextTestSpecOngoing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get-next-test-spec" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ongoing","next_test":"t42"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", "build-1", "inst-1")
	next, err := client.NextTestSpec(context.Background())
	if err != nil {
		t.Fatalf("next test spec failed: %v", err)
	}

	if next.Status != models.StatusOngoing || next.NextTest != "t42" {
		t.Errorf("unexpected response: %+v", next)
	}
}

func TestClient_NextTestSpecDone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"done"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", "build-1", "inst-1")
	next, err := client.NextTestSpec(context.Background())
	if err != nil {
		t.Fatalf("next test spec failed: %v", err)
	}

	if next.Status != models.StatusDone || next.NextTest != "" {
		t.Errorf("unexpected response: %+v", next)
	}
}

func TestClient_TestCompleted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/test-completed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", "build-1", "inst-1")
	if err := client.TestCompleted(context.Background()); err != nil {
		t.Fatalf("test completed failed: %v", err)
	}
}

func TestClient_CoordinatorUnreachable(t *testing.T) {
	// Point at a server that is already closed
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "secret", "build-1", "inst-1")
	if _, err := client.NextTestSpec(context.Background()); err == nil {
		t.Fatal("expected error when coordinator is unreachable")
	}
}
