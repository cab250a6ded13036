// Package api mounts the people and dedupe systems under the configured base path.
package api

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/rapport/internal/config"
	"github.com/JaimeStill/rapport/internal/infrastructure"
	"github.com/JaimeStill/rapport/pkg/middleware"
	"github.com/JaimeStill/rapport/pkg/module"
)

// maxBody caps every request entering the module. Individual routes may
// set a tighter limit.
const maxBody = 1 << 20

// NewModule wires the domain systems into a module. Requests are logged
// before CORS is evaluated so rejected preflights still show up.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	if infra.Database == nil {
		return nil, errors.New("api module requires a database")
	}

	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.LimitBody(maxBody))

	runtime.Logger.Info(
		"api module ready",
		"base_path", cfg.API.BasePath,
		"archive", runtime.Storage != nil,
	)

	return m, nil
}
