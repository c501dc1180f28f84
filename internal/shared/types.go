package shared

// Task type names shared between the scheduler and the worker.
const (
	TypeReconcileOfferStatuses = "offer:reconcile_statuses"
)

// Queue names with their worker priorities configured in cmd/worker.
const (
	QueueHigh    = "high"
	QueueDefault = "default"
	QueueLow     = "low"
)

// ReconcileOfferStatusesPayload is the (currently empty) payload for
// the status sweep task. Kept as a struct so fields can be added
// without changing the task type.
type ReconcileOfferStatusesPayload struct{}
