package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/stemgraph/stemgraph/internal/models"
	"github.com/stemgraph/stemgraph/internal/moduleservice"
)

// CreateModuleRequest is the request body for creating a module.
type CreateModuleRequest struct {
	Name        string   `json:"name"`
	UUID        string   `json:"uuid"`
	RepoDomain  string   `json:"repo_domain"`
	Description string   `json:"description"`
	BuildsOn    []string `json:"builds_on"`
}

// Validate checks the request before any store call is attempted.
func (r CreateModuleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.UUID, validation.Required, is.UUID),
		validation.Field(&r.BuildsOn, validation.Each(validation.Required, is.UUID)),
	)
}

// ModuleDetail is the single-module response type (the domain node as-is).
type ModuleDetail = models.Node

// GraphResponse is the full graph listing served from the cache.
type GraphResponse struct {
	Nodes []models.Node `json:"nodes"`
	Edges []models.Edge `json:"edges"`
}

// BuildsOnResponse is the flat resolution response.
type BuildsOnResponse = moduleservice.BuildsOnList

// BuildsOnTreeResponse is the nested resolution response.
type BuildsOnTreeResponse = moduleservice.BuildsOnTree

// HealthResponse reports process liveness and store reachability.
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}
