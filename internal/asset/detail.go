package asset

import (
	"github.com/frahmantamala/asset-lifecycle/internal/assignment"
	"github.com/frahmantamala/asset-lifecycle/internal/location"
	"github.com/frahmantamala/asset-lifecycle/internal/maintenance"
)

// Detail is the asset page: the record plus its three histories, each newest
// first.
type Detail struct {
	Response
	CurrentAssignment *assignment.Response       `json:"current_assignment,omitempty"`
	Assignments       []assignment.Response      `json:"assignments"`
	Maintenance       []maintenance.Response     `json:"maintenance"`
	Locations         []location.HistoryResponse `json:"locations"`
}
