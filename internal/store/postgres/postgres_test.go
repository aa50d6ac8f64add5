package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"importledger/backend/internal/domain"
	"importledger/backend/internal/store"
)

// arrayConverter lets string slices through so ANY($1) queries can be mocked.
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	if ids, ok := v.([]string); ok {
		return ids, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewWithDB(db), mock
}

var containerColumns = []string{"id", "company_id", "supplier_id", "container_number", "arrival_date", "status", "created_at"}

func TestGetContainerNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM containers")).
		WithArgs("ctr-1", "company-a").
		WillReturnRows(sqlmock.NewRows(containerColumns))

	_, err := s.GetContainer(context.Background(), "company-a", "ctr-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetContainerLoadsItems(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)
	arrival := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	offloaded := time.Date(2024, 1, 11, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM containers")).
		WithArgs("ctr-1", "company-a").
		WillReturnRows(sqlmock.NewRows(containerColumns).
			AddRow("ctr-1", "company-a", "sup-1", "MSKU-1", arrival, "Incomplete", created))
	mock.ExpectQuery(regexp.QuoteMeta("FROM container_items")).
		WithArgs([]string{"ctr-1"}).
		WillReturnRows(sqlmock.NewRows([]string{"id", "container_id", "item_name", "expected_qty", "received_qty", "unit_price", "offloaded_at"}).
			AddRow("ci-1", "ctr-1", "Red Shoes", int64(100), int64(90), "12.50", offloaded).
			AddRow("ci-2", "ctr-1", "Blue Hat", int64(10), int64(0), "4", nil))

	container, err := s.GetContainer(context.Background(), "company-a", "ctr-1")
	require.NoError(t, err)

	assert.Equal(t, domain.ContainerStatusIncomplete, container.Status)
	assert.Equal(t, arrival, container.ArrivalDate)
	require.Len(t, container.Items, 2)
	assert.Equal(t, int64(90), container.Items[0].ReceivedQty)
	assert.True(t, decimal.RequireFromString("12.5").Equal(container.Items[0].UnitPrice))
	require.NotNil(t, container.Items[0].OffloadedAt)
	assert.Nil(t, container.Items[1].OffloadedAt)
}

func TestCreateSaleWritesHeaderAndItemsInOneTransaction(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sales")).
		WithArgs("sale-1", "company-a", "cash", "container", "ctr-1", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sale_items")).
		WithArgs(sqlmock.AnyArg(), "sale-1", "Red Shoes", int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sale_items")).
		WithArgs(sqlmock.AnyArg(), "sale-1", "Blue Hat", int64(1), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sale, err := s.CreateSale(context.Background(), domain.Sale{
		ID:          "sale-1",
		CompanyID:   "company-a",
		SaleType:    domain.SaleTypeCash,
		SourceType:  domain.SaleSourceContainer,
		SourceID:    "ctr-1",
		TotalAmount: decimal.NewFromInt(64),
		Items: []domain.SaleItem{
			{ItemName: "Red Shoes", Quantity: 3, UnitPrice: decimal.NewFromInt(20)},
			{ItemName: "Blue Hat", Quantity: 1, UnitPrice: decimal.NewFromInt(4)},
		},
	})
	require.NoError(t, err)
	require.Len(t, sale.Items, 2)
	assert.Equal(t, "sale-1", sale.Items[1].SaleID)
	assert.NotEmpty(t, sale.Items[0].ID)
}

func TestCreateSaleRollsBackOnItemFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sales")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sale_items")).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := s.CreateSale(context.Background(), domain.Sale{
		CompanyID:  "company-a",
		SaleType:   domain.SaleTypeCash,
		SourceType: domain.SaleSourceOther,
		Items:      []domain.SaleItem{{ItemName: "Lamp", Quantity: 1, UnitPrice: decimal.NewFromInt(5)}},
	})
	assert.EqualError(t, err, "connection reset")
}

func TestCreateSupplierItemForForeignSupplier(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO supplier_items")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := s.CreateSupplierItem(context.Background(), domain.SupplierItem{
		CompanyID: "company-a", SupplierID: "sup-other", ItemName: "Red Shoes",
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateSaleTotalMissingSale(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sales SET total_amount")).
		WithArgs("sale-404", "company-a", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := s.UpdateSaleTotal(context.Background(), "company-a", "sale-404", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListSalesWithEmptySourceSetSkipsQuery(t *testing.T) {
	s, _ := newMockStore(t)

	sales, err := s.ListSales(context.Background(), store.SaleFilter{CompanyID: "company-a", SourceIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestListSalesBuildsFilter(t *testing.T) {
	s, mock := newMockStore(t)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE company_id = $1 AND created_at >= $2 AND created_at < $3 AND source_type = $4 AND source_id = ANY($5)")).
		WithArgs("company-a", from, to, "container", []string{"ctr-1"}).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "sale_type", "source_type", "source_id", "customer_id", "total_amount", "created_at"}))

	sales, err := s.ListSales(context.Background(), store.SaleFilter{
		CompanyID:  "company-a",
		From:       from,
		To:         to,
		SourceType: domain.SaleSourceContainer,
		SourceIDs:  []string{"ctr-1"},
	})
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestMapWriteError(t *testing.T) {
	assert.ErrorIs(t, mapWriteError(&pgconn.PgError{Code: "23505"}), store.ErrInvalidInput)
	assert.ErrorIs(t, mapWriteError(&pgconn.PgError{Code: "23503"}), store.ErrNotFound)

	other := errors.New("boom")
	assert.Same(t, other, mapWriteError(other))
}
