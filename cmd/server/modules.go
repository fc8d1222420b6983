package main

import (
	"encoding/json"
	"net/http"

	"github.com/rsanzante/facturae-pipeline/internal/activities"
	"github.com/rsanzante/facturae-pipeline/internal/analyzer"
	"github.com/rsanzante/facturae-pipeline/internal/config"
	"github.com/rsanzante/facturae-pipeline/internal/infrastructure"
	"github.com/rsanzante/facturae-pipeline/internal/registry"
	"github.com/rsanzante/facturae-pipeline/internal/signer"
	"github.com/rsanzante/facturae-pipeline/internal/workflow"
	"github.com/rsanzante/facturae-pipeline/pkg/lifecycle"
	"github.com/rsanzante/facturae-pipeline/pkg/routes"
)

type Modules struct {
	Signer     signer.System
	Dispatcher *workflow.Dispatcher
	Workflow   *workflow.Handler
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	sign, err := signer.New(&cfg.Signer, infra.Credential, infra.Logger)
	if err != nil {
		return nil, err
	}

	analyze := analyzer.New(&cfg.Analyzer, infra.Logger)
	models := registry.New(infra.Database.Connection(), infra.Logger)

	pipeline := activities.New(
		infra.Storage, analyze, sign, models, &cfg.Issuer, infra.Logger,
	)

	store := workflow.NewRepository(infra.Database.Connection())
	orchestrator := workflow.NewOrchestrator(store, pipeline, infra.Logger)
	dispatcher := workflow.NewDispatcher(
		orchestrator, int64(cfg.Workflow.Concurrency), infra.Logger,
	)

	return &Modules{
		Signer:     sign,
		Dispatcher: dispatcher,
		Workflow:   workflow.NewHandler(orchestrator, dispatcher, infra.Logger),
	}, nil
}

func (m *Modules) Mount(mux *http.ServeMux) {
	routes.Register(mux, m.Workflow.Routes())
}

func (m *Modules) Start(lc *lifecycle.Coordinator) error {
	if err := m.Signer.Start(lc); err != nil {
		return err
	}
	m.Dispatcher.Start(lc)
	return nil
}

func buildMux(infra *infrastructure.Infrastructure) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !infra.Lifecycle.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	return mux
}
