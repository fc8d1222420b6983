package workflow_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rsanzante/facturae-pipeline/internal/workflow"
	"github.com/rsanzante/facturae-pipeline/pkg/lifecycle"
	"github.com/rsanzante/facturae-pipeline/pkg/routes"
)

func newTestServer(t *testing.T, fake *fakeActivities) (*httptest.Server, *workflow.Orchestrator) {
	t.Helper()

	store := workflow.NewMemoryStore()
	orch := workflow.NewOrchestrator(store, fake, discardLogger())
	dispatcher := workflow.NewDispatcher(orch, 2, discardLogger())

	lc := lifecycle.New()
	dispatcher.Start(lc)
	t.Cleanup(func() {
		if err := lc.Shutdown(5 * time.Second); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	})

	handler := workflow.NewHandler(orch, dispatcher, discardLogger())
	mux := http.NewServeMux()
	routes.Register(mux, handler.Routes())

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, orch
}

func awaitTerminal(t *testing.T, orch *workflow.Orchestrator, id uuid.UUID) *workflow.Instance {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		inst, err := orch.Get(t.Context(), id)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if inst.Terminal() {
			return inst
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("workflow did not settle")
	return nil
}

func TestStartEndpoint(t *testing.T) {
	server, orch := newTestServer(t, &fakeActivities{})

	resp, err := http.Post(
		server.URL+"/api/workflows",
		"application/json",
		strings.NewReader(`{"url":"https://account.blob/acme/invoice.pdf"}`),
	)
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	var body struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	inst := awaitTerminal(t, orch, body.ID)
	if inst.State != workflow.StateCompleted {
		t.Errorf("state: got %s (failure: %s)", inst.State, inst.Failure)
	}
}

func TestStartEndpointRejectsMissingURL(t *testing.T) {
	server, _ := newTestServer(t, &fakeActivities{})

	resp, err := http.Post(server.URL+"/api/workflows", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestStatusEndpoint(t *testing.T) {
	server, orch := newTestServer(t, &fakeActivities{})

	inst, err := orch.Start(t.Context(), "https://account.blob/acme/invoice.pdf")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	resp, err := http.Get(server.URL + "/api/workflows/" + inst.ID.String())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got workflow.Instance
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.ID != inst.ID || got.State != workflow.StateRunning {
		t.Errorf("instance: got %s %s", got.ID, got.State)
	}
}

func TestStatusEndpointUnknown(t *testing.T) {
	server, _ := newTestServer(t, &fakeActivities{})

	resp, err := http.Get(server.URL + "/api/workflows/" + uuid.NewString())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestEventsSubscriptionValidation(t *testing.T) {
	server, _ := newTestServer(t, &fakeActivities{})

	payload := `[{
		"eventType": "Microsoft.EventGrid.SubscriptionValidationEvent",
		"data": {"validationCode": "handshake-123"}
	}]`
	resp, err := http.Post(server.URL+"/api/events", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body["validationResponse"] != "handshake-123" {
		t.Errorf("validation response: got %q", body["validationResponse"])
	}
}

func TestEventsBlobCreated(t *testing.T) {
	fake := &fakeActivities{}
	server, _ := newTestServer(t, fake)

	payload := `[{
		"eventType": "Microsoft.Storage.BlobCreated",
		"data": {"url": "https://account.blob.core.windows.net/acme/invoice.pdf"}
	}]`
	resp, err := http.Post(server.URL+"/api/events", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// The webhook does not return the instance id; find it by waiting for
	// the pipeline to run.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(fake.invoked()) >= 5 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := fake.invoked(); len(got) < 5 {
		t.Fatalf("pipeline did not run: %v", got)
	}
}

func TestEventsIgnoresUnknownTypes(t *testing.T) {
	fake := &fakeActivities{}
	server, _ := newTestServer(t, fake)

	payload := `[{"eventType": "Microsoft.Storage.BlobDeleted", "data": {}}]`
	resp, err := http.Post(server.URL+"/api/events", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got := fake.invoked(); len(got) != 0 {
		t.Errorf("unexpected activity calls: %v", got)
	}
}
