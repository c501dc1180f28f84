package main

import (
	"github.com/hibiken/asynq"

	offerJob "ecommerce-backend/internal/domains/offer/job"
	"ecommerce-backend/internal/shared"
	"ecommerce-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	reconcileOfferStatuses *offerJob.ReconcileStatusHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		reconcileOfferStatuses: offerJob.NewReconcileStatusHandler(c.OfferService, c.Config.Jobs.ReconcileBatch),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeReconcileOfferStatuses, h.reconcileOfferStatuses.ProcessTask)
}
