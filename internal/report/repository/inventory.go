package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/leangjia/topgp-inventory-alert-webhook-email/internal/report/pipeline"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/database"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/logger"
)

// fetchQuery joins stock batches with item master data, receipt dates and
// item groups. The lookahead bound keeps the fetched set small; the exact
// "strictly before the reference date" rule is applied by the pipeline.
const fetchQuery = `
	SELECT
		s.item_code,
		s.warehouse_code,
		s.batch_number,
		s.quantity,
		i.item_name,
		i.specification,
		i.group_code,
		to_char(r.inbound_date, 'YYYY-MM-DD')    AS inbound_date,
		to_char(r.production_date, 'YYYY-MM-DD') AS production_date,
		r.expiry_date,
		g.description AS group_description,
		g.shelf_life_days
	FROM stock_batches s
	LEFT JOIN items i          ON s.item_code = i.item_code
	LEFT JOIN batch_receipts r ON s.item_code = r.item_code AND s.batch_number = r.batch_number
	LEFT JOIN item_groups g    ON i.group_code = g.group_code
	WHERE s.quantity > 0
	  AND r.expiry_date IS NOT NULL
	  AND r.expiry_date <> ''
	  AND r.expiry_date < to_char($1::date + $2::int, 'YYYY-MM-DD')
	ORDER BY s.item_code, s.batch_number
	LIMIT $3 OFFSET $4
`

// InventoryRepository fetches raw inventory rows in bounded-size pages
type InventoryRepository struct {
	db       *database.DB
	pageSize int
	logger   *logger.Logger
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *database.DB, pageSize int, log *logger.Logger) *InventoryRepository {
	return &InventoryRepository{
		db:       db,
		pageSize: pageSize,
		logger:   log,
	}
}

// FetchExpiring retrieves all stocked batches whose expiry date string sorts
// before refDate plus lookaheadDays. The expiry column is stored as text and
// compared lexicographically; ISO dates order correctly that way and
// malformed values still flow through to the sanitizer. Pages are fetched
// with LIMIT/OFFSET and accumulated into one slice, acceptable for a bounded
// periodic batch.
func (r *InventoryRepository) FetchExpiring(ctx context.Context, refDate time.Time, lookaheadDays int) ([]pipeline.InventoryRecord, error) {
	start := time.Now()
	ref := refDate.Format(pipeline.DateLayout)

	var all []pipeline.InventoryRecord
	page := 0

	for {
		var batch []pipeline.InventoryRecord
		err := r.db.SelectContext(ctx, &batch, fetchQuery, ref, lookaheadDays, r.pageSize, page*r.pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch inventory page %d: %w", page+1, err)
		}

		if len(batch) == 0 {
			break
		}

		page++
		all = append(all, batch...)
		r.logger.Info().
			Int("page", page).
			Int("rows", len(batch)).
			Int("total", len(all)).
			Msg("fetched inventory page")

		if len(batch) < r.pageSize {
			break
		}
	}

	r.logger.Info().
		Int("rows", len(all)).
		Dur("elapsed", time.Since(start)).
		Msg("inventory fetch completed")

	return all, nil
}
