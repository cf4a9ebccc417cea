package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"souq/internal/store"
)

func TestAppliedPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		discount store.Discount
		want     float64
	}{
		{
			name:     "percentage discount",
			price:    200,
			discount: store.Discount{Amount: 25, Type: store.DiscountPercentage},
			want:     150,
		},
		{
			name:     "fixed discount",
			price:    200,
			discount: store.Discount{Amount: 25, Type: store.DiscountFixed},
			want:     175,
		},
		{
			name:     "no discount type",
			price:    200,
			discount: store.Discount{Amount: 25},
			want:     200,
		},
		{
			name:     "zero amount percentage",
			price:    99.99,
			discount: store.Discount{Amount: 0, Type: store.DiscountPercentage},
			want:     99.99,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AppliedPrice(tt.price, tt.discount), 0.0001)
		})
	}
}
