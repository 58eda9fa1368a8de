// Package secrets is the gateway between the HTTP surface and the remote
// podman secret store. It validates names locally, proxies every read
// live (no caching; the remote store is the only source of truth) and
// aggregates per-item outcomes for bulk creation.
package secrets

import (
	"context"
	"errors"

	"github.com/podsec/podsec/internal/logger"
	"github.com/podsec/podsec/internal/metrics"
	"github.com/podsec/podsec/internal/podman"
)

// DefaultDriver is used when a create request names no driver.
const DefaultDriver = "file"

// Runtime is the slice of the podman client the gateway depends on.
type Runtime interface {
	ListSecrets(ctx context.Context) ([]podman.SecretInfoReport, error)
	CreateSecret(ctx context.Context, name string, data []byte, driver string) (podman.SecretCreateReport, error)
	InspectSecret(ctx context.Context, id string) (podman.SecretInfoReport, error)
	RemoveSecret(ctx context.Context, id string) error
}

type Gateway struct {
	rt Runtime
}

func NewGateway(rt Runtime) *Gateway {
	return &Gateway{rt: rt}
}

// List returns all secrets in whatever order the remote store reports
// them. The result is never nil.
func (g *Gateway) List(ctx context.Context) ([]SecretRef, error) {
	reports, err := g.rt.ListSecrets(ctx)
	if err != nil {
		metrics.SecretOp("list", outcomeFor(err))
		return nil, err
	}
	refs := make([]SecretRef, 0, len(reports))
	for _, r := range reports {
		refs = append(refs, refFromReport(r, false))
	}
	metrics.SecretOp("list", metrics.OutcomeOK)
	return refs, nil
}

// Create validates the name and registers one secret. The data is
// write-once: podman stores it but never returns it.
func (g *Gateway) Create(ctx context.Context, item CreateItem) (Created, error) {
	name, err := ValidateName(item.Name)
	if err != nil {
		metrics.SecretOp("create", metrics.OutcomeInvalid)
		return Created{}, err
	}
	driver := item.Driver
	if driver == "" {
		driver = DefaultDriver
	}

	report, err := g.rt.CreateSecret(ctx, name, []byte(item.Data), driver)
	if err != nil {
		metrics.SecretOp("create", outcomeFor(err))
		return Created{}, err
	}
	logger.Info("Created secret %s (ID: %s)", name, report.ID)
	metrics.SecretOp("create", metrics.OutcomeOK)
	return Created{ID: report.ID, Name: name, Driver: driver}, nil
}

// BulkCreate processes the items sequentially in input order, running the
// same validation and creation as Create for each, and never fails the
// whole request for a per-item problem. Sequential on purpose: per-item
// failure attribution stays simple and the daemon is not hit with a
// concurrent burst.
func (g *Gateway) BulkCreate(ctx context.Context, items []CreateItem) BulkResult {
	result := BulkResult{
		Successes: []BulkSuccess{},
		Failures:  []BulkFailure{},
	}

	for _, item := range items {
		created, err := g.Create(ctx, item)
		if err != nil {
			result.Failures = append(result.Failures, BulkFailure{
				Name:  item.Name,
				Error: failureMessage(err),
			})
			continue
		}
		result.Successes = append(result.Successes, BulkSuccess{ID: created.ID, Name: created.Name})
	}

	logger.Info("Bulk create: %d succeeded, %d failed", len(result.Successes), len(result.Failures))
	return result
}

// Inspect fetches the full metadata for one secret, spec included.
func (g *Gateway) Inspect(ctx context.Context, id string) (SecretRef, error) {
	report, err := g.rt.InspectSecret(ctx, id)
	if err != nil {
		metrics.SecretOp("inspect", outcomeFor(err))
		return SecretRef{}, err
	}
	metrics.SecretOp("inspect", metrics.OutcomeOK)
	return refFromReport(report, true), nil
}

// Delete removes a secret. Irreversible; there is no soft delete.
func (g *Gateway) Delete(ctx context.Context, id string) error {
	if err := g.rt.RemoveSecret(ctx, id); err != nil {
		metrics.SecretOp("delete", outcomeFor(err))
		return err
	}
	logger.Info("Deleted secret %s", id)
	metrics.SecretOp("delete", metrics.OutcomeOK)
	return nil
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrInvalidName):
		return metrics.OutcomeInvalid
	case errors.Is(err, podman.ErrSecretExists):
		return metrics.OutcomeConflict
	case errors.Is(err, podman.ErrSecretNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, podman.ErrUnavailable):
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeError
	}
}

// failureMessage keeps bulk failure entries stable and free of transport
// internals.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, podman.ErrSecretExists):
		return "secret already exists"
	case errors.Is(err, podman.ErrUnavailable):
		return "podman unavailable"
	default:
		return err.Error()
	}
}
