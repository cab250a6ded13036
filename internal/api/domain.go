package api

import (
	"github.com/JaimeStill/rapport/internal/dedupe"
	"github.com/JaimeStill/rapport/internal/people"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	People people.System
	Dedupe dedupe.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	return &Domain{
		People: people.New(db, runtime.Logger, runtime.Pagination),
		Dedupe: dedupe.New(
			people.NewStore(db, runtime.Logger),
			runtime.Archive(),
			runtime.Logger,
			runtime.Dedupe,
		),
	}
}
