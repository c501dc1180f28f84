package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLine_Total(t *testing.T) {
	l := Line{
		ProductID: uuid.New(),
		Quantity:  3,
		UnitPrice: decimal.NewFromFloat(4.25),
	}
	assert.True(t, l.Total().Equal(decimal.NewFromFloat(12.75)))
}

func TestSnapshot_Subtotal(t *testing.T) {
	s := Snapshot{
		Lines: []Line{
			{Quantity: 2, UnitPrice: decimal.NewFromFloat(10.00)},
			{Quantity: 1, UnitPrice: decimal.NewFromFloat(5.50)},
		},
	}
	assert.True(t, s.Subtotal().Equal(decimal.NewFromFloat(25.50)))
}

func TestTotalQuantity(t *testing.T) {
	lines := []Line{{Quantity: 2}, {Quantity: 5}}
	assert.Equal(t, 7, TotalQuantity(lines))
	assert.Equal(t, 0, TotalQuantity(nil))
}
