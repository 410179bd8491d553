package usecase

import (
	"context"
	"fmt"
	"strings"

	"AgriChain/internal/domain/models"
	domrepo "AgriChain/internal/domain/repository"
)

// CatalogUseCase lists what the price history contains.
type CatalogUseCase struct {
	store domrepo.HistoryStore
}

func NewCatalogUseCase(store domrepo.HistoryStore) *CatalogUseCase {
	return &CatalogUseCase{store: store}
}

func (uc *CatalogUseCase) Commodities(ctx context.Context) ([]string, error) {
	c, err := uc.store.Commodities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list commodities: %w", err)
	}
	return c, nil
}

// MarketNames lists the markets that trade commodity.
func (uc *CatalogUseCase) MarketNames(ctx context.Context, commodity string) ([]string, error) {
	if strings.TrimSpace(commodity) == "" {
		return nil, fmt.Errorf("%w: commodity required", ErrInvalidArgument)
	}
	m, err := uc.store.Markets(ctx, commodity)
	if err != nil {
		return nil, fmt.Errorf("list market names: %w", err)
	}
	return m, nil
}

// Markets returns every market trading commodity with its latest price and
// the average of its last recent observations.
func (uc *CatalogUseCase) Markets(ctx context.Context, commodity string, recent int) ([]models.MarketQuote, error) {
	if strings.TrimSpace(commodity) == "" {
		return nil, fmt.Errorf("%w: commodity required", ErrInvalidArgument)
	}
	if recent <= 0 {
		recent = 7
	}
	q, err := uc.store.Quotes(ctx, commodity, recent)
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}
	return q, nil
}
