package repository_test

import (
	"fmt"
	"sync/atomic"
	"testing"

	"marketbay-backend/internal/apperr"
	"marketbay-backend/internal/client"
	"marketbay-backend/internal/model"
	"marketbay-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:repo%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, client.Migrate(db))
	return db
}

func seedVariant(t *testing.T, db *gorm.DB, stock int) *model.ProductVariant {
	t.Helper()
	product := &model.Product{Name: "Widget", SKU: "WID", IsActive: true}
	require.NoError(t, db.Create(product).Error)

	variant := &model.ProductVariant{
		ProductID:     product.ID,
		SKU:           "WID-1",
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, db.Create(variant).Error)
	return variant
}

func TestDebitGuardsAgainstOverdraw(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewVariantRepository(db)
	variant := seedVariant(t, db, 3)

	newStock, err := repo.Debit(t.Context(), db, variant.ID, 2, model.ReasonOrderPlaced, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 1, newStock)

	// the remaining unit is not enough for two
	_, err = repo.Debit(t.Context(), db, variant.ID, 2, model.ReasonOrderPlaced, nil, "")
	var stockErr *apperr.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, variant.ID, stockErr.VariantID)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 2, stockErr.Requested)

	// the failed debit wrote nothing
	entries, err := repo.ListLedger(t.Context(), variant.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, -2, entries[0].QuantityChange)
}

func TestDebitRejectsUnknownVariant(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewVariantRepository(db)

	_, err := repo.Debit(t.Context(), db, 999, 1, model.ReasonOrderPlaced, nil, "")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDebitRejectsNonPositiveQuantity(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewVariantRepository(db)
	variant := seedVariant(t, db, 5)

	_, err := repo.Debit(t.Context(), db, variant.ID, 0, model.ReasonOrderPlaced, nil, "")
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, err = repo.Credit(t.Context(), db, variant.ID, -1, model.ReasonRestock, nil, "")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLedgerSumMatchesStockDelta(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewVariantRepository(db)
	variant := seedVariant(t, db, 10)

	_, err := repo.Debit(t.Context(), db, variant.ID, 4, model.ReasonOrderPlaced, nil, "")
	require.NoError(t, err)
	_, err = repo.Credit(t.Context(), db, variant.ID, 6, model.ReasonRestock, nil, "delivery")
	require.NoError(t, err)
	newStock, err := repo.Debit(t.Context(), db, variant.ID, 1, model.ReasonManualAdjustment, nil, "dropped in warehouse")
	require.NoError(t, err)
	assert.Equal(t, 11, newStock)

	sum, err := repo.SumLedger(t.Context(), variant.ID)
	require.NoError(t, err)
	// sum of ledger entries always equals the net movement on the variant
	assert.Equal(t, newStock-10, sum)

	entries, err := repo.ListLedger(t.Context(), variant.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, model.ReasonRestock, entries[1].Reason)
	assert.Equal(t, "dropped in warehouse", entries[2].Note)
}

func TestSumLedgerEmptyIsZero(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewVariantRepository(db)
	variant := seedVariant(t, db, 10)

	sum, err := repo.SumLedger(t.Context(), variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sum)
}
