package api

import (
	"net/http"

	"github.com/JaimeStill/rapport/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	routes.Register(
		mux,
		domain.People.Handler().Routes(),
		domain.Dedupe.Handler().Routes(),
	)
}
