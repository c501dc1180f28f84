package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"ecommerce-backend/internal/domains/offer/service"
	"ecommerce-backend/pkg/logger"
)

// ================================================
// RECONCILE OFFER STATUSES JOB HANDLER
// ================================================

// ReconcileStatusHandler runs the periodic status sweep: offers whose
// window has opened become active, offers whose window has closed
// become inactive. The sweep is idempotent and read paths re-check the
// window live, so missed or doubled runs are harmless.
type ReconcileStatusHandler struct {
	offerService service.OfferService
	batch        int
}

func NewReconcileStatusHandler(offerService service.OfferService, batch int) *ReconcileStatusHandler {
	return &ReconcileStatusHandler{offerService: offerService, batch: batch}
}

func (h *ReconcileStatusHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logger.Info("Starting ReconcileOfferStatuses job", map[string]interface{}{
		"batch": h.batch,
	})

	result, err := h.offerService.ReconcileStatuses(ctx, h.batch)
	if err != nil {
		return fmt.Errorf("reconcile offer statuses: %w", err)
	}

	logger.Info("Completed ReconcileOfferStatuses job", map[string]interface{}{
		"activated":   result.Activated,
		"deactivated": result.Deactivated,
	})
	return nil
}
