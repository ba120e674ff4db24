package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ai-trader/trader-portal/internal/domain"
)

// region assets

// GetAsset returns the asset with the given id.
// If no asset is found, an error domain.ErrNotFound is returned.
func (r *SqlRepo) GetAsset(ctx context.Context, id domain.AssetId) (*domain.Asset, error) {
	var asset domain.Asset

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&asset).Error

	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &asset, nil
}

// GetAssetBySymbol returns the asset with the given symbol.
// If no asset is found, an error domain.ErrNotFound is returned.
func (r *SqlRepo) GetAssetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error) {
	var assets []domain.Asset

	err := r.db.WithContext(ctx).Where("symbol = ?", symbol).Find(&assets).Error
	if err != nil {
		return nil, err
	}

	if len(assets) == 0 {
		return nil, domain.ErrNotFound
	}

	asset := assets[0]

	return &asset, nil
}

// GetAllAssets returns all assets.
func (r *SqlRepo) GetAllAssets(ctx context.Context) ([]domain.Asset, error) {
	var assets []domain.Asset

	err := r.db.WithContext(ctx).Order("symbol asc").Find(&assets).Error
	if err != nil {
		return nil, err
	}

	return assets, nil
}

// FindAssets returns all assets that match the given search string.
// The search string is matched against the symbol and name.
func (r *SqlRepo) FindAssets(ctx context.Context, search string) ([]domain.Asset, error) {
	var assets []domain.Asset

	searchValue := "%" + strings.ToLower(search) + "%"
	err := r.db.WithContext(ctx).
		Where(r.db.Where("symbol LIKE ?", searchValue).Or("name LIKE ?", searchValue)).
		Order("symbol asc").
		Find(&assets).Error
	if err != nil {
		return nil, err
	}

	return assets, nil
}

// SaveAsset updates the asset with the given id.
// If the id is zero, a new asset is created.
func (r *SqlRepo) SaveAsset(
	ctx context.Context,
	id domain.AssetId,
	updateFunc func(a *domain.Asset) (*domain.Asset, error),
) (*domain.Asset, error) {
	var saved *domain.Asset

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		asset := &domain.Asset{}
		if id != 0 {
			err := tx.Where("id = ?", id).First(asset).Error
			if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			if err != nil {
				return err
			}
		} else {
			asset.CreatedAt = time.Now()
		}

		asset, err := updateFunc(asset)
		if err != nil {
			return err
		}

		asset.UpdatedAt = time.Now()
		if err := tx.Save(asset).Error; err != nil {
			return err
		}

		saved = asset

		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

// endregion assets

// region candles

// SaveCandles stores the given OHLCV bars. Bars that already exist for the
// same asset, timestamp and source are skipped, the returned count contains
// only newly inserted bars.
func (r *SqlRepo) SaveCandles(ctx context.Context, candles []domain.Candle) (int, error) {
	if len(candles) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "asset_id"}, {Name: "timestamp"}, {Name: "source"}},
			DoNothing: true,
		}).
		CreateInBatches(candles, 500)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to store candles: %w", result.Error)
	}

	return int(result.RowsAffected), nil
}

// GetCandles returns the bars of an asset within the given time range, ordered by bar timestamp.
func (r *SqlRepo) GetCandles(ctx context.Context, assetId domain.AssetId, from, to time.Time) (
	[]domain.Candle,
	error,
) {
	var candles []domain.Candle

	query := r.db.WithContext(ctx).Where("asset_id = ?", assetId)
	if !from.IsZero() {
		query = query.Where("timestamp >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("timestamp <= ?", to)
	}

	err := query.Order("timestamp asc").Find(&candles).Error
	if err != nil {
		return nil, err
	}

	return candles, nil
}

// GetLatestCandle returns the most recent bar of an asset.
// If no bar is found, an error domain.ErrNotFound is returned.
func (r *SqlRepo) GetLatestCandle(ctx context.Context, assetId domain.AssetId) (*domain.Candle, error) {
	var candles []domain.Candle

	err := r.db.WithContext(ctx).
		Where("asset_id = ?", assetId).
		Order("timestamp desc").
		Limit(1).
		Find(&candles).Error
	if err != nil {
		return nil, err
	}

	if len(candles) == 0 {
		return nil, domain.ErrNotFound
	}

	candle := candles[0]

	return &candle, nil
}

// endregion candles

// region feature-sets

// SaveFeatureSets stores the given indicator rows. Re-computed rows replace
// the stored indicator values of the same asset and bar timestamp.
func (r *SqlRepo) SaveFeatureSets(ctx context.Context, sets []domain.FeatureSet) error {
	if len(sets) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "asset_id"}, {Name: "timestamp"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"rsi_14", "sma_20", "sma_50", "ema_20", "ema_50",
				"macd_line", "macd_signal", "macd_hist",
				"atr_14", "bb_upper", "bb_middle", "bb_lower",
			}),
		}).
		CreateInBatches(sets, 500).Error
	if err != nil {
		return fmt.Errorf("failed to store feature sets: %w", err)
	}

	return nil
}

// GetFeatureSets returns the indicator rows of an asset within the given time range, ordered by bar timestamp.
func (r *SqlRepo) GetFeatureSets(ctx context.Context, assetId domain.AssetId, from, to time.Time) (
	[]domain.FeatureSet,
	error,
) {
	var sets []domain.FeatureSet

	query := r.db.WithContext(ctx).Where("asset_id = ?", assetId)
	if !from.IsZero() {
		query = query.Where("timestamp >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("timestamp <= ?", to)
	}

	err := query.Order("timestamp asc").Find(&sets).Error
	if err != nil {
		return nil, err
	}

	return sets, nil
}

// endregion feature-sets
