package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"news-trader/internal/interfaces"
	"news-trader/internal/logger"
	"news-trader/internal/types"
)

var _ interfaces.LedgerStore = (*Store)(nil)

// EnsurePortfolio creates the portfolio row with initialCash when it does not
// exist yet. An existing row is left untouched.
func (s *Store) EnsurePortfolio(ctx context.Context, initialCash decimal.Decimal) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&portfolioRow{}).Where("id = ?", portfolioID).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to check portfolio: %w", err)
	}
	if n > 0 {
		return nil
	}

	row := toPortfolioRow(types.Portfolio{CashBalance: initialCash})
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to bootstrap portfolio: %w", err)
	}
	logger.Info(ctx, "Portfolio initialized", "cash_balance", initialCash.String())
	return nil
}

// Load implements interfaces.LedgerStore.
func (s *Store) Load(ctx context.Context) (types.Portfolio, error) {
	var row portfolioRow
	err := s.db.WithContext(ctx).First(&row, portfolioID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.Portfolio{}, fmt.Errorf("portfolio not initialized: %w", err)
	}
	if err != nil {
		return types.Portfolio{}, fmt.Errorf("failed to load portfolio: %w", err)
	}
	return row.toPortfolio(), nil
}

// Save implements interfaces.LedgerStore. The write only lands if the stored
// version still equals expectedVersion; otherwise types.ErrLedgerConflict.
func (s *Store) Save(ctx context.Context, p types.Portfolio, expectedVersion int64) error {
	row := toPortfolioRow(p)
	row.Version = expectedVersion + 1

	res := s.db.WithContext(ctx).
		Model(&portfolioRow{ID: portfolioID}).
		Where("version = ?", expectedVersion).
		Select("*").
		Updates(&row)
	if res.Error != nil {
		return fmt.Errorf("failed to save portfolio: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return types.ErrLedgerConflict
	}
	return nil
}
