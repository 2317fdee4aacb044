// Package endpoints implements the HTTP API surface of the menu server.
// Each endpoint bundles its route, its handler and a matching CLI command.
package endpoints

import (
	"github.com/canteen-works/mensa/internal/api"
)

// All returns every endpoint in registration order.
func All() []api.Endpoint {
	return []api.Endpoint{
		&HealthEndpoint{},
		&MenuEndpoint{},
		&DatesEndpoint{},
		&MenusEndpoint{},
		&UploadEndpoint{},
		&ScanEndpoint{},
		&ScannerStatusEndpoint{},
	}
}

// NewRegistry builds a registry with every endpoint registered.
func NewRegistry() *api.Registry {
	r := api.NewRegistry()
	for _, ep := range All() {
		r.Register(ep)
	}
	return r
}
