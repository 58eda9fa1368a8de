package secrets

import (
	"time"

	"github.com/podsec/podsec/internal/podman"
)

// SecretRef is the client-facing view of a stored secret. The JSON field
// names follow podman's own report casing.
type SecretRef struct {
	ID        string    `json:"ID"`
	Name      string    `json:"Name"`
	Driver    string    `json:"Driver"`
	CreatedAt time.Time `json:"CreatedAt"`
	UpdatedAt time.Time `json:"UpdatedAt"`

	// Spec is only populated by Inspect.
	Spec *podman.SecretSpec `json:"Spec,omitempty"`
}

// Created reports a successful creation. Timestamps are not returned by
// the create endpoint; clients re-list or inspect for them.
type Created struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Driver string `json:"driver"`
}

// CreateItem is one requested secret in a single or bulk create call.
type CreateItem struct {
	Name   string `json:"name"`
	Data   string `json:"data"`
	Driver string `json:"driver,omitempty"`
}

type BulkSuccess struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BulkFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// BulkResult aggregates per-item outcomes of a bulk creation. Within each
// bucket the relative input order is preserved, and every input item lands
// in exactly one bucket.
type BulkResult struct {
	Successes []BulkSuccess `json:"success"`
	Failures  []BulkFailure `json:"failed"`
}

func refFromReport(r podman.SecretInfoReport, withSpec bool) SecretRef {
	ref := SecretRef{
		ID:        r.ID,
		Name:      r.Spec.Name,
		Driver:    r.Spec.Driver.Name,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if ref.Driver == "" {
		ref.Driver = DefaultDriver
	}
	if withSpec {
		spec := r.Spec
		ref.Spec = &spec
	}
	return ref
}
