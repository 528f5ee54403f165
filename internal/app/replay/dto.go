package replay

import (
	"thorplan/internal/app/ports"
	"thorplan/internal/domain/world"
)

type Request struct {
	Scene       string
	SceneNumber int
	ActionName  string
	Limit       int
	// RecordedFrom and RecordedTo bound RecordedAt in unix seconds; zero is open.
	RecordedFrom int64
	RecordedTo   int64
	// IncludeWorld keeps the before and after world statuses in the listing.
	IncludeWorld bool
}

type Response struct {
	Records []ports.ActionRecord `json:"records"`
	Summary Summary              `json:"summary"`
}

type Summary struct {
	Count     int            `json:"count"`
	ByOutcome map[string]int `json:"by_outcome"`
	ByProblem map[string]int `json:"by_problem"`
}

type DetailRequest struct {
	SceneNumber int
	Counter     int
}

// Detail is one record with its change set recomputed from the stored
// world statuses.
type Detail struct {
	Record  ports.ActionRecord   `json:"record"`
	Changes []world.ObjectChange `json:"changes"`
}
