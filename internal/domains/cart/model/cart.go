package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one cart line as supplied by the checkout flow.
// The promotion engine never owns cart state; it only reads snapshots.
type Line struct {
	ProductID  uuid.UUID       `json:"product_id"`
	CategoryID uuid.UUID       `json:"category_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"` // snapshot price at capture time
}

// Total returns quantity * unit price for the line.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is the full cart state at preview or checkout time.
type Snapshot struct {
	Lines      []Line    `json:"lines"`
	CapturedAt time.Time `json:"captured_at"`
}

// Subtotal sums all line totals.
func (s Snapshot) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, l := range s.Lines {
		subtotal = subtotal.Add(l.Total())
	}
	return subtotal
}

// TotalQuantity sums quantities across lines.
func TotalQuantity(lines []Line) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}
