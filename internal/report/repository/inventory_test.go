package repository_test

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leangjia/topgp-inventory-alert-webhook-email/internal/report/repository"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/database"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/logger"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/testutil"
)

var fetchColumns = []string{
	"item_code", "warehouse_code", "batch_number", "quantity",
	"item_name", "specification", "group_code",
	"inbound_date", "production_date", "expiry_date",
	"group_description", "shelf_life_days",
}

var refDate = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func newRepo(t *testing.T, mockDB *testutil.MockDB, pageSize int) *repository.InventoryRepository {
	t.Helper()
	log := logger.New("test", "test")
	return repository.NewInventoryRepository(database.NewFromDB(mockDB.DB, log), pageSize, log)
}

func fullRow(itemCode, batch, expiry string) []driver.Value {
	return []driver.Value{
		itemCode, "WH01", batch, 10.0,
		"Saline Solution", "500ml", "G1",
		"2023-05-01", "2023-04-20", expiry,
		"Fluids", 365,
	}
}

func TestFetchExpiring_AccumulatesPages(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	// Page size 2: one full page, then a short page ends the loop
	mockDB.ExpectQuery("SELECT").
		WithArgs("2024-06-01", 30, 2, 0).
		WillReturnRows(testutil.MockRows(fetchColumns...).
			AddRow(fullRow("ITEM001", "B001", "2024-05-01")...).
			AddRow(fullRow("ITEM002", "B002", "2024-05-10")...))
	mockDB.ExpectQuery("SELECT").
		WithArgs("2024-06-01", 30, 2, 2).
		WillReturnRows(testutil.MockRows(fetchColumns...).
			AddRow(fullRow("ITEM003", "B003", "2024-05-20")...))

	repo := newRepo(t, mockDB, 2)
	records, err := repo.FetchExpiring(context.Background(), refDate, 30)
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, "ITEM001", records[0].ItemCode)
	assert.Equal(t, "ITEM003", records[2].ItemCode)
	require.NotNil(t, records[0].ExpiryDate)
	assert.Equal(t, "2024-05-01", *records[0].ExpiryDate)
	assert.Equal(t, 10.0, records[0].Quantity)

	mockDB.ExpectationsWereMet(t)
}

func TestFetchExpiring_FullLastPageStopsOnEmptyPage(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT").
		WithArgs("2024-06-01", 30, 2, 0).
		WillReturnRows(testutil.MockRows(fetchColumns...).
			AddRow(fullRow("ITEM001", "B001", "2024-05-01")...).
			AddRow(fullRow("ITEM002", "B002", "2024-05-10")...))
	mockDB.ExpectQuery("SELECT").
		WithArgs("2024-06-01", 30, 2, 2).
		WillReturnRows(testutil.MockRows(fetchColumns...))

	repo := newRepo(t, mockDB, 2)
	records, err := repo.FetchExpiring(context.Background(), refDate, 30)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	mockDB.ExpectationsWereMet(t)
}

func TestFetchExpiring_NullColumnsScanToNil(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT").
		WithArgs("2024-06-01", 30, 100, 0).
		WillReturnRows(testutil.MockRows(fetchColumns...).
			AddRow("ITEM001", "WH01", "B001", 10.0,
				nil, nil, nil, nil, nil, "bogus-date", nil, nil))

	repo := newRepo(t, mockDB, 100)
	records, err := repo.FetchExpiring(context.Background(), refDate, 30)
	require.NoError(t, err)

	require.Len(t, records, 1)
	rec := records[0]
	assert.Nil(t, rec.ItemName)
	assert.Nil(t, rec.Specification)
	assert.Nil(t, rec.GroupCode)
	assert.Nil(t, rec.InboundDate)
	assert.Nil(t, rec.ProductionDate)
	assert.Nil(t, rec.GroupDescription)
	assert.Nil(t, rec.ShelfLifeDays)
	require.NotNil(t, rec.ExpiryDate)
	assert.Equal(t, "bogus-date", *rec.ExpiryDate)
}

func TestFetchExpiring_EmptyResult(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT").
		WithArgs("2024-06-01", 30, 100, 0).
		WillReturnRows(testutil.MockRows(fetchColumns...))

	repo := newRepo(t, mockDB, 100)
	records, err := repo.FetchExpiring(context.Background(), refDate, 30)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchExpiring_QueryErrorIsWrapped(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	repo := newRepo(t, mockDB, 100)
	records, err := repo.FetchExpiring(context.Background(), refDate, 30)
	require.Error(t, err)
	assert.Nil(t, records)
	assert.Contains(t, err.Error(), "failed to fetch inventory page 1")
}
