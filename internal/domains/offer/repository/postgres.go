package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"ecommerce-backend/internal/domains/offer/model"
	"ecommerce-backend/pkg/database"
)

// Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// PostgresRepository implements OfferRepository with PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance.
func NewPostgresRepository(db *pgxpool.Pool) OfferRepository {
	return &PostgresRepository{db: db}
}

const offerColumns = `
	id, campaign_id, name, description,
	buy_product_id, buy_category_id, buy_quantity,
	get_product_id, get_category_id, get_quantity,
	discount_mode, discount_value,
	starts_at, ends_at,
	usage_limit, usage_count, status,
	created_by, created_at, updated_at, version
`

// offerRow is the raw column shape; the two nullable id pairs are
// folded into tagged conditions after scanning.
type offerRow struct {
	buyProductID  *uuid.UUID
	buyCategoryID *uuid.UUID
	getProductID  *uuid.UUID
	getCategoryID *uuid.UUID
}

func scanOffer(row pgx.Row) (*model.Offer, error) {
	var o model.Offer
	var raw offerRow

	err := row.Scan(
		&o.ID,              // id
		&o.CampaignID,      // campaign_id (nullable)
		&o.Name,            // name
		&o.Description,     // description (nullable)
		&raw.buyProductID,  // buy_product_id (nullable)
		&raw.buyCategoryID, // buy_category_id (nullable)
		&o.BuyQuantity,     // buy_quantity
		&raw.getProductID,  // get_product_id (nullable)
		&raw.getCategoryID, // get_category_id (nullable)
		&o.GetQuantity,     // get_quantity
		&o.DiscountMode,    // discount_mode
		&o.DiscountValue,   // discount_value
		&o.StartsAt,        // starts_at
		&o.EndsAt,          // ends_at
		&o.UsageLimit,      // usage_limit (nullable)
		&o.UsageCount,      // usage_count
		&o.Status,          // status
		&o.CreatedBy,       // created_by
		&o.CreatedAt,       // created_at
		&o.UpdatedAt,       // updated_at
		&o.Version,         // version
	)
	if err != nil {
		return nil, err
	}

	// Check constraints keep exactly one id per pair set; the product
	// branch wins if a migration ever leaves both populated.
	switch {
	case raw.buyProductID != nil:
		o.Buy = model.ByProduct(*raw.buyProductID)
	case raw.buyCategoryID != nil:
		o.Buy = model.ByCategory(*raw.buyCategoryID)
	}
	switch {
	case raw.getProductID != nil:
		o.Get = model.ByProduct(*raw.getProductID)
	case raw.getCategoryID != nil:
		o.Get = model.ByCategory(*raw.getCategoryID)
	}

	return &o, nil
}

// -------------------------------------------------------------------
// READ OPERATIONS
// -------------------------------------------------------------------

// FindByID finds an offer by ID.
func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE id = $1`, offerColumns)

	offer, err := scanOffer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOfferNotFound
		}
		return nil, fmt.Errorf("find offer by id: %w", err)
	}

	return offer, nil
}

// ListActive returns every offer that is redeemable right now:
// status active, inside its window, budget not exhausted.
// Ordered by created_at so the matcher's tie-break is deterministic.
func (r *PostgresRepository) ListActive(ctx context.Context, now time.Time) ([]*model.Offer, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM offers
		WHERE status = 'active'
		  AND starts_at <= $1
		  AND ends_at >= $1
		  AND (usage_limit IS NULL OR usage_count < usage_limit)
		ORDER BY created_at ASC
	`, offerColumns)

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list active offers: %w", err)
	}
	defer rows.Close()

	var offers []*model.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan active offer: %w", err)
		}
		offers = append(offers, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active offers: %w", err)
	}

	return offers, nil
}

// List returns offers for the admin view with derived lifecycle state.
func (r *PostgresRepository) List(ctx context.Context, filter *model.ListOffersFilter) ([]*model.OfferListItem, int, error) {
	offset := (filter.Page - 1) * filter.Limit

	whereClauses := []string{}
	args := []interface{}{}
	argIndex := 1

	switch filter.State {
	case "active":
		whereClauses = append(whereClauses,
			"status = 'active' AND NOW() BETWEEN starts_at AND ends_at AND (usage_limit IS NULL OR usage_count < usage_limit)")
	case "expired":
		whereClauses = append(whereClauses, "NOW() > ends_at")
	case "upcoming":
		whereClauses = append(whereClauses, "NOW() < starts_at")
	case "exhausted":
		whereClauses = append(whereClauses, "usage_limit IS NOT NULL AND usage_count >= usage_limit")
	case "all":
		// no state filter
	}

	if filter.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("LOWER(name) LIKE $%d", argIndex))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		argIndex++
	}

	if filter.CreatedBy != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("created_by = $%d", argIndex))
		args = append(args, *filter.CreatedBy)
		argIndex++
	}

	if filter.StartFrom != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("starts_at >= $%d", argIndex))
		args = append(args, *filter.StartFrom)
		argIndex++
	}

	if filter.StartTo != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("starts_at <= $%d", argIndex))
		args = append(args, *filter.StartTo)
		argIndex++
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	orderBySQL := "ORDER BY created_at DESC"
	switch filter.Sort {
	case "ends_at_asc":
		orderBySQL = "ORDER BY ends_at ASC"
	case "usage_desc":
		orderBySQL = "ORDER BY usage_count DESC"
	case "name_asc":
		orderBySQL = "ORDER BY name ASC"
	}

	query := fmt.Sprintf(`
		SELECT
			id, name, discount_mode, discount_value,
			usage_count, usage_limit,
			CASE
				WHEN usage_limit IS NOT NULL THEN (usage_count::FLOAT / usage_limit * 100)
				ELSE NULL
			END AS usage_rate,
			starts_at, ends_at, status,
			CASE
				WHEN status != 'active' THEN 'inactive'
				WHEN NOW() < starts_at THEN 'upcoming'
				WHEN NOW() > ends_at THEN 'expired'
				WHEN usage_limit IS NOT NULL AND usage_count >= usage_limit THEN 'exhausted'
				ELSE 'active'
			END AS state
		FROM offers
		%s
		%s
		LIMIT $%d OFFSET $%d
	`, whereSQL, orderBySQL, argIndex, argIndex+1)

	args = append(args, filter.Limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	var items []*model.OfferListItem
	for rows.Next() {
		var i model.OfferListItem
		err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.DiscountMode,
			&i.DiscountValue,
			&i.UsageCount,
			&i.UsageLimit,
			&i.UsageRate,
			&i.StartsAt,
			&i.EndsAt,
			&i.Status,
			&i.State,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan offer list item: %w", err)
		}
		items = append(items, &i)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list offers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM offers %s", whereSQL)
	countArgs := args[:len(args)-2] // drop LIMIT and OFFSET

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count offers: %w", err)
	}

	return items, total, nil
}

// -------------------------------------------------------------------
// WRITE OPERATIONS
// -------------------------------------------------------------------

// Create inserts a new offer. The caller is expected to have validated
// the definition; usage_count starts at 0 and version at 0.
func (r *PostgresRepository) Create(ctx context.Context, offer *model.Offer) error {
	query := `
		INSERT INTO offers (
			id, campaign_id, name, description,
			buy_product_id, buy_category_id, buy_quantity,
			get_product_id, get_category_id, get_quantity,
			discount_mode, discount_value,
			starts_at, ends_at,
			usage_limit, usage_count, status,
			created_by, created_at, updated_at, version
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, 0, $16, $17, NOW(), NOW(), 0
		)
		RETURNING created_at, updated_at
	`

	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}

	err := r.db.QueryRow(ctx, query,
		offer.ID,
		offer.CampaignID,
		offer.Name,
		offer.Description,
		offer.Buy.ProductID(),
		offer.Buy.CategoryID(),
		offer.BuyQuantity,
		offer.Get.ProductID(),
		offer.Get.CategoryID(),
		offer.GetQuantity,
		offer.DiscountMode,
		offer.DiscountValue,
		offer.StartsAt,
		offer.EndsAt,
		offer.UsageLimit,
		offer.Status,
		offer.CreatedBy,
	).Scan(&offer.CreatedAt, &offer.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}

	offer.UsageCount = 0
	offer.Version = 0

	return nil
}

// Update saves whitelisted fields with optimistic locking. A version
// mismatch means the offer changed since it was read.
func (r *PostgresRepository) Update(ctx context.Context, offer *model.Offer) error {
	query := `
		UPDATE offers
		SET
			name = $2,
			description = $3,
			starts_at = $4,
			ends_at = $5,
			usage_limit = $6,
			status = $7,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $8
		RETURNING version, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		offer.ID,
		offer.Name,
		offer.Description,
		offer.StartsAt,
		offer.EndsAt,
		offer.UsageLimit,
		offer.Status,
		offer.Version,
	).Scan(&offer.Version, &offer.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the offer is gone or someone updated it first.
			var exists bool
			checkErr := r.db.QueryRow(ctx,
				"SELECT EXISTS(SELECT 1 FROM offers WHERE id = $1)", offer.ID,
			).Scan(&exists)
			if checkErr == nil && !exists {
				return model.ErrOfferNotFound
			}
			return model.ErrOfferVersionConflict
		}
		return fmt.Errorf("update offer: %w", err)
	}

	return nil
}

// UpdateStatus flips the active/inactive flag. Used for manual
// deactivation; usage records stay untouched.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OfferStatus) error {
	query := `
		UPDATE offers
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update offer status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrOfferNotFound
	}

	return nil
}

// Delete removes an offer physically, but only when the ledger has no
// record of it; redeemed offers can only be deactivated.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		var hasUsage bool
		err := tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM offer_usage WHERE offer_id = $1)", id,
		).Scan(&hasUsage)
		if err != nil {
			return fmt.Errorf("check offer usage: %w", err)
		}
		if hasUsage {
			return model.ErrOfferHasUsage
		}

		result, err := tx.Exec(ctx, "DELETE FROM offers WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("delete offer: %w", err)
		}
		if result.RowsAffected() == 0 {
			return model.ErrOfferNotFound
		}

		return nil
	})
}

// -------------------------------------------------------------------
// REDEMPTION COMMIT
// -------------------------------------------------------------------

// ApplyDiscount commits one redemption atomically.
//
// Protocol:
//  1. Gated relative increment on the offer row. The WHERE clause
//     re-checks status, window and usage budget against the row's
//     current values, and `usage_count = usage_count + 1` takes the
//     row lock, so two concurrent commits against the last remaining
//     slot serialize and exactly one succeeds.
//  2. Append the immutable ledger record.
//
// Both effects commit together or not at all. Zero rows from the
// increment is diagnosed inside the same transaction so the caller
// gets a precise error instead of a generic failure.
func (r *PostgresRepository) ApplyDiscount(ctx context.Context, params model.ApplyDiscountParams) (*model.UsageRecord, error) {
	return database.WithTransactionResult(ctx, r.db, func(tx pgx.Tx) (*model.UsageRecord, error) {
		increment := `
			UPDATE offers
			SET usage_count = usage_count + 1, updated_at = NOW()
			WHERE id = $1
			  AND status = 'active'
			  AND starts_at <= NOW()
			  AND ends_at >= NOW()
			  AND (usage_limit IS NULL OR usage_count < usage_limit)
		`

		result, err := tx.Exec(ctx, increment, params.OfferID)
		if err != nil {
			return nil, fmt.Errorf("increment usage count: %w", err)
		}

		if result.RowsAffected() == 0 {
			return nil, r.diagnoseRejectedCommit(ctx, tx, params.OfferID)
		}

		record := &model.UsageRecord{
			ID:             uuid.New(),
			OfferID:        params.OfferID,
			UserID:         params.UserID,
			OrderID:        params.OrderID,
			BuyProductID:   params.BuyProductID,
			GetProductID:   params.GetProductID,
			BuyQuantity:    params.BuyQuantity,
			GetQuantity:    params.GetQuantity,
			DiscountAmount: params.DiscountAmount,
		}

		insert := `
			INSERT INTO offer_usage (
				id, offer_id, user_id, order_id,
				buy_product_id, get_product_id,
				buy_quantity, get_quantity,
				discount_amount, used_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()
			)
			RETURNING used_at
		`

		err = tx.QueryRow(ctx, insert,
			record.ID,
			record.OfferID,
			record.UserID,
			record.OrderID,
			record.BuyProductID,
			record.GetProductID,
			record.BuyQuantity,
			record.GetQuantity,
			record.DiscountAmount,
		).Scan(&record.UsedAt)

		if err != nil {
			if isUniqueViolation(err) {
				// unique (offer_id, order_id): this order already
				// redeemed the offer
				return nil, model.ErrDuplicateUsage
			}
			return nil, fmt.Errorf("append usage record: %w", err)
		}

		return record, nil
	})
}

// diagnoseRejectedCommit reads the offer inside the open transaction to
// explain why the gated increment matched no row.
func (r *PostgresRepository) diagnoseRejectedCommit(ctx context.Context, tx pgx.Tx, offerID uuid.UUID) error {
	var status model.OfferStatus
	var startsAt, endsAt time.Time
	var usageLimit *int
	var usageCount int

	err := tx.QueryRow(ctx, `
		SELECT status, starts_at, ends_at, usage_limit, usage_count
		FROM offers
		WHERE id = $1
	`, offerID).Scan(&status, &startsAt, &endsAt, &usageLimit, &usageCount)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrOfferNotFound
		}
		return fmt.Errorf("diagnose rejected commit: %w", err)
	}

	now := time.Now()
	switch {
	case usageLimit != nil && usageCount >= *usageLimit:
		return model.ErrUsageLimitReached
	case status != model.StatusActive, now.Before(startsAt), now.After(endsAt):
		return model.ErrOfferInactive
	default:
		// The gate should have matched; treat as a transient conflict.
		return model.ErrCommitAborted
	}
}

// isUniqueViolation recognizes Postgres unique violations from both
// the pgx and database/sql (lib/pq) driver paths.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// -------------------------------------------------------------------
// USAGE LEDGER READS
// -------------------------------------------------------------------

// GetUsageHistory pages through the ledger for one offer, newest first.
func (r *PostgresRepository) GetUsageHistory(ctx context.Context, offerID uuid.UUID, page, limit int) ([]*model.UsageRecord, int, error) {
	offset := (page - 1) * limit

	query := `
		SELECT
			id, offer_id, user_id, order_id,
			buy_product_id, get_product_id,
			buy_quantity, get_quantity,
			discount_amount, used_at
		FROM offer_usage
		WHERE offer_id = $1
		ORDER BY used_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, offerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("get usage history: %w", err)
	}
	defer rows.Close()

	var records []*model.UsageRecord
	for rows.Next() {
		var u model.UsageRecord
		err := rows.Scan(
			&u.ID,
			&u.OfferID,
			&u.UserID,
			&u.OrderID,
			&u.BuyProductID,
			&u.GetProductID,
			&u.BuyQuantity,
			&u.GetQuantity,
			&u.DiscountAmount,
			&u.UsedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan usage record: %w", err)
		}
		records = append(records, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("get usage history: %w", err)
	}

	var total int
	err = r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM offer_usage WHERE offer_id = $1", offerID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count usage history: %w", err)
	}

	return records, total, nil
}

// GetUsageStats aggregates the ledger; the ledger, not the counter
// column, is the authoritative source for reporting.
func (r *PostgresRepository) GetUsageStats(ctx context.Context, offerID uuid.UUID) (*model.UsageStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_uses,
			COALESCE(SUM(discount_amount), 0) AS total_discount_given,
			COALESCE(AVG(discount_amount), 0) AS average_discount,
			COUNT(DISTINCT user_id) AS unique_users
		FROM offer_usage
		WHERE offer_id = $1
	`

	var stats model.UsageStats
	err := r.db.QueryRow(ctx, query, offerID).Scan(
		&stats.TotalUses,
		&stats.TotalDiscountGiven,
		&stats.AverageDiscount,
		&stats.UniqueUsers,
	)
	if err != nil {
		return nil, fmt.Errorf("get usage stats: %w", err)
	}

	return &stats, nil
}

// -------------------------------------------------------------------
// STATUS RECONCILIATION
// -------------------------------------------------------------------

// ReconcileStatuses activates offers whose window has started and
// deactivates offers whose window has ended, capped at batch rows per
// direction so a huge backlog cannot hold locks for a whole sweep.
// Both updates are idempotent; read paths also check the window live,
// so a missed or repeated sweep never affects correctness.
func (r *PostgresRepository) ReconcileStatuses(ctx context.Context, now time.Time, batch int) (*model.ReconcileResult, error) {
	result := &model.ReconcileResult{}

	activate := `
		UPDATE offers
		SET status = 'active', updated_at = NOW()
		WHERE id IN (
			SELECT id FROM offers
			WHERE status = 'inactive'
			  AND starts_at <= $1
			  AND ends_at >= $1
			  AND (usage_limit IS NULL OR usage_count < usage_limit)
			LIMIT $2
		)
	`

	activated, err := r.db.Exec(ctx, activate, now, batch)
	if err != nil {
		return nil, fmt.Errorf("activate due offers: %w", err)
	}
	result.Activated = int(activated.RowsAffected())

	deactivate := `
		UPDATE offers
		SET status = 'inactive', updated_at = NOW()
		WHERE id IN (
			SELECT id FROM offers
			WHERE status = 'active'
			  AND ends_at < $1
			LIMIT $2
		)
	`

	deactivated, err := r.db.Exec(ctx, deactivate, now, batch)
	if err != nil {
		return nil, fmt.Errorf("deactivate ended offers: %w", err)
	}
	result.Deactivated = int(deactivated.RowsAffected())

	return result, nil
}
