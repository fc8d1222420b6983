package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/rsanzante/facturae-pipeline/pkg/handlers"
	"github.com/rsanzante/facturae-pipeline/pkg/routes"
)

// Event Grid event types handled by the webhook endpoint.
const (
	eventTypeSubscriptionValidation = "Microsoft.EventGrid.SubscriptionValidationEvent"
	eventTypeBlobCreated            = "Microsoft.Storage.BlobCreated"
)

// Handler exposes the workflow trigger and status endpoints.
type Handler struct {
	orchestrator *Orchestrator
	dispatcher   *Dispatcher
	logger       *slog.Logger
}

// NewHandler creates a Handler over the orchestrator and dispatcher.
func NewHandler(orchestrator *Orchestrator, dispatcher *Dispatcher, logger *slog.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		dispatcher:   dispatcher,
		logger:       logger.With("system", "workflow-http"),
	}
}

// Routes returns the workflow route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/api",
		Routes: []routes.Route{
			{Method: http.MethodPost, Pattern: "/workflows", Handler: h.start},
			{Method: http.MethodGet, Pattern: "/workflows/{id}", Handler: h.status},
			{Method: http.MethodPost, Pattern: "/events", Handler: h.events},
		},
	}
}

type startRequest struct {
	URL string `json:"url"`
}

type startResponse struct {
	ID uuid.UUID `json:"id"`
}

// start accepts a source document URL and launches a workflow for it.
func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("body must carry a document url"))
		return
	}

	inst, err := h.launch(r, req.URL)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, startResponse{ID: inst.ID})
}

// status returns the persisted instance, including per-stage results.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid workflow id"))
		return
	}

	inst, err := h.orchestrator.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		handlers.RespondError(w, h.logger, http.StatusNotFound, err)
		return
	}
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, inst)
}

type gridEvent struct {
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

type validationData struct {
	ValidationCode string `json:"validationCode"`
}

type blobCreatedData struct {
	URL string `json:"url"`
}

// events is the Event Grid webhook. It answers the subscription validation
// handshake and launches a workflow per BlobCreated event. Duplicate
// deliveries create duplicate instances; the replay semantics make the
// second run converge on the same artifact.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	var batch []gridEvent
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid event payload"))
		return
	}

	for _, event := range batch {
		switch event.EventType {
		case eventTypeSubscriptionValidation:
			var data validationData
			if err := json.Unmarshal(event.Data, &data); err != nil {
				handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid validation event"))
				return
			}
			handlers.RespondJSON(w, http.StatusOK, map[string]string{
				"validationResponse": data.ValidationCode,
			})
			return

		case eventTypeBlobCreated:
			var data blobCreatedData
			if err := json.Unmarshal(event.Data, &data); err != nil || data.URL == "" {
				h.logger.Warn("blob created event without url")
				continue
			}
			if _, err := h.launch(r, data.URL); err != nil {
				handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
				return
			}

		default:
			h.logger.Info("ignoring event", "type", event.EventType)
		}
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) launch(r *http.Request, locator string) (*Instance, error) {
	inst, err := h.orchestrator.Start(r.Context(), locator)
	if err != nil {
		return nil, err
	}
	if err := h.dispatcher.Dispatch(inst.ID); err != nil {
		return nil, err
	}
	return inst, nil
}
