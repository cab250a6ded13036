package main

import (
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/rapport/internal/api"
	"github.com/JaimeStill/rapport/internal/config"
	"github.com/JaimeStill/rapport/internal/infrastructure"
	"github.com/JaimeStill/rapport/pkg/lifecycle"
	"github.com/JaimeStill/rapport/pkg/module"
)

// Modules holds the HTTP modules mounted on the root router.
type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

func buildRouter(lc *lifecycle.Coordinator) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if lc.Ready() {
			writeStatus(w, http.StatusOK, "ready")
			return
		}

		body := map[string]any{"status": "not ready"}
		if failures := lc.Failures(); len(failures) > 0 {
			failed := make(map[string]string, len(failures))
			for name, err := range failures {
				failed[name] = err.Error()
			}
			body["failed"] = failed
		}
		writeJSON(w, http.StatusServiceUnavailable, body)
	})

	return router
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	writeJSON(w, code, map[string]string{"status": status})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
