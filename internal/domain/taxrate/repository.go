package taxrate

import (
	"context"

	"github.com/billora/billora/internal/types"
)

type Repository interface {
	Create(ctx context.Context, rate *TaxRate) error
	Get(ctx context.Context, id string) (*TaxRate, error)
	GetByCode(ctx context.Context, code string) (*TaxRate, error)
	List(ctx context.Context, filter *types.TaxRateFilter) ([]*TaxRate, error)
	Count(ctx context.Context, filter *types.TaxRateFilter) (int, error)
	Update(ctx context.Context, rate *TaxRate) error
	Delete(ctx context.Context, id string) error
}
