package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"importledger/backend/internal/domain"
	"importledger/backend/internal/store"
	"importledger/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an already opened handle.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.CompanyID == "" || supplier.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if supplier.ID == "" {
		supplier.ID = xid.New("sup")
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, company_id, name, phone, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, supplier.ID, supplier.CompanyID, supplier.Name, nullIfEmpty(supplier.Phone), supplier.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}

	created := supplier
	return &created, nil
}

func (s *Store) GetSupplier(ctx context.Context, companyID string, supplierID string) (*domain.Supplier, error) {
	var supplier domain.Supplier
	var phone sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, name, phone, created_at
		FROM suppliers
		WHERE id = $1 AND company_id = $2
	`, supplierID, companyID).Scan(&supplier.ID, &supplier.CompanyID, &supplier.Name, &phone, &supplier.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	supplier.Phone = phone.String
	return &supplier, nil
}

func (s *Store) ListSuppliers(ctx context.Context, companyID string) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, name, phone, created_at
		FROM suppliers
		WHERE company_id = $1
		ORDER BY created_at, id
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 32)
	for rows.Next() {
		var supplier domain.Supplier
		var phone sql.NullString
		if err := rows.Scan(&supplier.ID, &supplier.CompanyID, &supplier.Name, &phone, &supplier.CreatedAt); err != nil {
			return nil, err
		}
		supplier.Phone = phone.String
		suppliers = append(suppliers, supplier)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (s *Store) CreateSupplierItem(ctx context.Context, item domain.SupplierItem) (*domain.SupplierItem, error) {
	if item.CompanyID == "" || item.SupplierID == "" || strings.TrimSpace(item.ItemName) == "" {
		return nil, store.ErrInvalidInput
	}
	if item.ID == "" {
		item.ID = xid.New("si")
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO supplier_items (id, company_id, supplier_id, item_name, unit_price, created_at)
		SELECT $1,$2,$3,$4,$5,$6
		WHERE EXISTS (SELECT 1 FROM suppliers WHERE id = $3 AND company_id = $2)
	`, item.ID, item.CompanyID, item.SupplierID, item.ItemName, item.UnitPrice, item.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}

	created := item
	return &created, nil
}

func (s *Store) ListSupplierItems(ctx context.Context, companyID string, supplierID string) ([]domain.SupplierItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, supplier_id, item_name, unit_price, created_at
		FROM supplier_items
		WHERE company_id = $1 AND ($2 = '' OR supplier_id = $2)
		ORDER BY created_at, id
	`, companyID, supplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.SupplierItem, 0, 64)
	for rows.Next() {
		var item domain.SupplierItem
		if err := rows.Scan(&item.ID, &item.CompanyID, &item.SupplierID, &item.ItemName, &item.UnitPrice, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CreateContainer(ctx context.Context, container domain.Container) (*domain.Container, error) {
	container.ContainerNumber = strings.TrimSpace(container.ContainerNumber)
	if container.CompanyID == "" || container.SupplierID == "" || container.ContainerNumber == "" {
		return nil, store.ErrInvalidInput
	}
	if container.ID == "" {
		container.ID = xid.New("ctr")
	}
	if container.CreatedAt.IsZero() {
		container.CreatedAt = time.Now().UTC()
	}
	if container.Status == "" {
		container.Status = domain.ContainerStatusIncomplete
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO containers (id, company_id, supplier_id, container_number, arrival_date, status, created_at)
		SELECT $1,$2,$3,$4,$5,$6,$7
		WHERE EXISTS (SELECT 1 FROM suppliers WHERE id = $3 AND company_id = $2)
	`, container.ID, container.CompanyID, container.SupplierID, container.ContainerNumber,
		nullDate(container.ArrivalDate), string(container.Status), container.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}

	items := make([]domain.ContainerItem, 0, len(container.Items))
	for _, item := range container.Items {
		if item.ID == "" {
			item.ID = xid.New("ci")
		}
		item.ContainerID = container.ID
		if err := insertContainerItem(ctx, tx, item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	container.Items = items
	return &container, nil
}

func (s *Store) GetContainer(ctx context.Context, companyID string, containerID string) (*domain.Container, error) {
	var container domain.Container
	var arrival sql.NullTime
	var status string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, supplier_id, container_number, arrival_date, status, created_at
		FROM containers
		WHERE id = $1 AND company_id = $2
	`, containerID, companyID).Scan(&container.ID, &container.CompanyID, &container.SupplierID,
		&container.ContainerNumber, &arrival, &status, &container.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	container.ArrivalDate = arrival.Time
	container.Status = domain.ContainerStatus(status)

	itemsByContainer, err := s.containerItems(ctx, []string{container.ID})
	if err != nil {
		return nil, err
	}
	container.Items = itemsByContainer[container.ID]
	if container.Items == nil {
		container.Items = []domain.ContainerItem{}
	}
	return &container, nil
}

func (s *Store) ListContainers(ctx context.Context, companyID string, supplierID string) ([]domain.Container, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, supplier_id, container_number, arrival_date, status, created_at
		FROM containers
		WHERE company_id = $1 AND ($2 = '' OR supplier_id = $2)
		ORDER BY created_at, id
	`, companyID, supplierID)
	if err != nil {
		return nil, err
	}

	containers := make([]domain.Container, 0, 32)
	ids := make([]string, 0, 32)
	for rows.Next() {
		var container domain.Container
		var arrival sql.NullTime
		var status string
		if err := rows.Scan(&container.ID, &container.CompanyID, &container.SupplierID,
			&container.ContainerNumber, &arrival, &status, &container.CreatedAt); err != nil {
			_ = rows.Close()
			return nil, err
		}
		container.ArrivalDate = arrival.Time
		container.Status = domain.ContainerStatus(status)
		containers = append(containers, container)
		ids = append(ids, container.ID)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if len(ids) == 0 {
		return containers, nil
	}
	itemsByContainer, err := s.containerItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range containers {
		containers[i].Items = itemsByContainer[containers[i].ID]
		if containers[i].Items == nil {
			containers[i].Items = []domain.ContainerItem{}
		}
	}
	return containers, nil
}

func (s *Store) AddContainerItem(ctx context.Context, companyID string, item domain.ContainerItem) (*domain.ContainerItem, error) {
	if strings.TrimSpace(item.ItemName) == "" || item.ExpectedQty < 0 {
		return nil, store.ErrInvalidInput
	}
	if item.ID == "" {
		item.ID = xid.New("ci")
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO container_items (id, container_id, item_name, expected_qty, received_qty, unit_price, offloaded_at)
		SELECT $1,$2,$3,$4,$5,$6,$7
		WHERE EXISTS (SELECT 1 FROM containers WHERE id = $2 AND company_id = $8)
	`, item.ID, item.ContainerID, item.ItemName, item.ExpectedQty, item.ReceivedQty, item.UnitPrice,
		nullTime(item.OffloadedAt), companyID)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}

	created := item
	return &created, nil
}

func (s *Store) OffloadContainer(ctx context.Context, companyID string, containerID string, received map[string]int64, status domain.ContainerStatus, at time.Time) (*domain.Container, error) {
	if !status.Valid() {
		return nil, store.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := lockContainer(ctx, tx, companyID, containerID); err != nil {
		return nil, err
	}
	for itemID, qty := range received {
		if qty < 0 {
			return nil, store.ErrInvalidInput
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE container_items
			SET received_qty = $3, offloaded_at = $4
			WHERE id = $1 AND container_id = $2
		`, itemID, containerID, qty, at)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, store.ErrInvalidInput
		}
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE containers SET status = $2 WHERE id = $1
	`, containerID, string(status)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.GetContainer(ctx, companyID, containerID)
}

func (s *Store) UpdateContainerStatus(ctx context.Context, companyID string, containerID string, status domain.ContainerStatus) (*domain.Container, error) {
	if !status.Valid() {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE containers SET status = $3 WHERE id = $1 AND company_id = $2
	`, containerID, companyID, string(status))
	if err != nil {
		return nil, err
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return s.GetContainer(ctx, companyID, containerID)
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	customer.Name = strings.TrimSpace(customer.Name)
	if customer.CompanyID == "" || customer.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if customer.ID == "" {
		customer.ID = xid.New("cus")
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, company_id, name, phone, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, customer.ID, customer.CompanyID, customer.Name, nullIfEmpty(customer.Phone), customer.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}

	created := customer
	return &created, nil
}

func (s *Store) GetCustomer(ctx context.Context, companyID string, customerID string) (*domain.Customer, error) {
	var customer domain.Customer
	var phone sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, name, phone, created_at
		FROM customers
		WHERE id = $1 AND company_id = $2
	`, customerID, companyID).Scan(&customer.ID, &customer.CompanyID, &customer.Name, &phone, &customer.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	customer.Phone = phone.String
	return &customer, nil
}

func (s *Store) ListCustomers(ctx context.Context, companyID string) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, name, phone, created_at
		FROM customers
		WHERE company_id = $1
		ORDER BY created_at, id
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		var customer domain.Customer
		var phone sql.NullString
		if err := rows.Scan(&customer.ID, &customer.CompanyID, &customer.Name, &phone, &customer.CreatedAt); err != nil {
			return nil, err
		}
		customer.Phone = phone.String
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.CompanyID == "" || sale.SaleType == "" || sale.SourceType == "" || len(sale.Items) == 0 {
		return nil, store.ErrInvalidInput
	}
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sales (id, company_id, sale_type, source_type, source_id, customer_id, total_amount, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, sale.ID, sale.CompanyID, sale.SaleType, sale.SourceType, nullIfEmpty(sale.SourceID),
		nullIfEmpty(sale.CustomerID), sale.TotalAmount, sale.CreatedAt); err != nil {
		return nil, mapWriteError(err)
	}

	items := make([]domain.SaleItem, 0, len(sale.Items))
	for _, item := range sale.Items {
		if item.ID == "" {
			item.ID = xid.New("sli")
		}
		item.SaleID = sale.ID
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sale_items (id, sale_id, item_name, quantity, unit_price)
			VALUES ($1,$2,$3,$4,$5)
		`, item.ID, item.SaleID, item.ItemName, item.Quantity, item.UnitPrice); err != nil {
			return nil, mapWriteError(err)
		}
		items = append(items, item)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	sale.Items = items
	return &sale, nil
}

func (s *Store) GetSale(ctx context.Context, companyID string, saleID string) (*domain.Sale, error) {
	sales, err := s.querySales(ctx, `WHERE id = $1 AND company_id = $2`, saleID, companyID)
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return nil, store.ErrNotFound
	}
	return &sales[0], nil
}

func (s *Store) ListSales(ctx context.Context, filter store.SaleFilter) ([]domain.Sale, error) {
	if filter.SourceIDs != nil && len(filter.SourceIDs) == 0 {
		return []domain.Sale{}, nil
	}

	clauses := []string{"company_id = $1"}
	args := []any{filter.CompanyID}
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if !filter.From.IsZero() {
		add("created_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("created_at < $%d", filter.To)
	}
	if filter.SaleType != "" {
		add("sale_type = $%d", filter.SaleType)
	}
	if filter.SourceType != "" {
		add("source_type = $%d", filter.SourceType)
	}
	if filter.SourceIDs != nil {
		add("source_id = ANY($%d)", filter.SourceIDs)
	}
	if filter.CustomerID != "" {
		add("customer_id = $%d", filter.CustomerID)
	}

	return s.querySales(ctx, "WHERE "+strings.Join(clauses, " AND "), args...)
}

func (s *Store) UpdateSaleTotal(ctx context.Context, companyID string, saleID string, total decimal.Decimal) (*domain.Sale, error) {
	if total.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE sales SET total_amount = $3 WHERE id = $1 AND company_id = $2
	`, saleID, companyID, total)
	if err != nil {
		return nil, err
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return s.GetSale(ctx, companyID, saleID)
}

func (s *Store) CreatePayment(ctx context.Context, payment domain.CustomerPayment) (*domain.CustomerPayment, error) {
	if payment.CompanyID == "" || payment.CustomerID == "" || !payment.Amount.IsPositive() {
		return nil, store.ErrInvalidInput
	}
	if payment.ID == "" {
		payment.ID = xid.New("pay")
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO customer_payments (id, company_id, customer_id, amount, note, created_at)
		SELECT $1,$2,$3,$4,$5,$6
		WHERE EXISTS (SELECT 1 FROM customers WHERE id = $3 AND company_id = $2)
	`, payment.ID, payment.CompanyID, payment.CustomerID, payment.Amount, nullIfEmpty(payment.Note), payment.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}

	created := payment
	return &created, nil
}

func (s *Store) GetPayment(ctx context.Context, companyID string, paymentID string) (*domain.CustomerPayment, error) {
	payments, err := s.queryPayments(ctx, `WHERE id = $1 AND company_id = $2`, paymentID, companyID)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, store.ErrNotFound
	}
	return &payments[0], nil
}

func (s *Store) ListPayments(ctx context.Context, companyID string, customerID string) ([]domain.CustomerPayment, error) {
	return s.queryPayments(ctx, `WHERE company_id = $1 AND ($2 = '' OR customer_id = $2)`, companyID, customerID)
}

func (s *Store) querySales(ctx context.Context, where string, args ...any) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, sale_type, source_type, source_id, customer_id, total_amount, created_at
		FROM sales
		`+where+`
		ORDER BY created_at, id
	`, args...)
	if err != nil {
		return nil, err
	}

	sales := make([]domain.Sale, 0, 64)
	ids := make([]string, 0, 64)
	for rows.Next() {
		var sale domain.Sale
		var sourceID, customerID sql.NullString
		if err := rows.Scan(&sale.ID, &sale.CompanyID, &sale.SaleType, &sale.SourceType, &sourceID,
			&customerID, &sale.TotalAmount, &sale.CreatedAt); err != nil {
			_ = rows.Close()
			return nil, err
		}
		sale.SourceID = sourceID.String
		sale.CustomerID = customerID.String
		sales = append(sales, sale)
		ids = append(ids, sale.ID)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if len(ids) == 0 {
		return sales, nil
	}
	itemsBySale, err := s.saleItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].Items = itemsBySale[sales[i].ID]
		if sales[i].Items == nil {
			sales[i].Items = []domain.SaleItem{}
		}
	}
	return sales, nil
}

func (s *Store) saleItems(ctx context.Context, saleIDs []string) (map[string][]domain.SaleItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sale_id, item_name, quantity, unit_price
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY sale_id, position
	`, saleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.SaleItem, len(saleIDs))
	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ItemName, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		result[item.SaleID] = append(result[item.SaleID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) containerItems(ctx context.Context, containerIDs []string) (map[string][]domain.ContainerItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, container_id, item_name, expected_qty, received_qty, unit_price, offloaded_at
		FROM container_items
		WHERE container_id = ANY($1)
		ORDER BY container_id, position
	`, containerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.ContainerItem, len(containerIDs))
	for rows.Next() {
		var item domain.ContainerItem
		var offloadedAt sql.NullTime
		if err := rows.Scan(&item.ID, &item.ContainerID, &item.ItemName, &item.ExpectedQty,
			&item.ReceivedQty, &item.UnitPrice, &offloadedAt); err != nil {
			return nil, err
		}
		if offloadedAt.Valid {
			at := offloadedAt.Time
			item.OffloadedAt = &at
		}
		result[item.ContainerID] = append(result[item.ContainerID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) queryPayments(ctx context.Context, where string, args ...any) ([]domain.CustomerPayment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, customer_id, amount, note, created_at
		FROM customer_payments
		`+where+`
		ORDER BY created_at, id
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.CustomerPayment, 0, 32)
	for rows.Next() {
		var payment domain.CustomerPayment
		var note sql.NullString
		if err := rows.Scan(&payment.ID, &payment.CompanyID, &payment.CustomerID, &payment.Amount, &note, &payment.CreatedAt); err != nil {
			return nil, err
		}
		payment.Note = note.String
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

func insertContainerItem(ctx context.Context, tx *sql.Tx, item domain.ContainerItem) error {
	if strings.TrimSpace(item.ItemName) == "" || item.ExpectedQty < 0 || item.ReceivedQty < 0 {
		return store.ErrInvalidInput
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO container_items (id, container_id, item_name, expected_qty, received_qty, unit_price, offloaded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, item.ID, item.ContainerID, item.ItemName, item.ExpectedQty, item.ReceivedQty, item.UnitPrice, nullTime(item.OffloadedAt))
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func lockContainer(ctx context.Context, tx *sql.Tx, companyID string, containerID string) error {
	var id string
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM containers WHERE id = $1 AND company_id = $2 FOR UPDATE
	`, containerID, companyID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505", "23514":
		return fmt.Errorf("%w: %s", store.ErrInvalidInput, pgErr.ConstraintName)
	case "23503":
		return fmt.Errorf("%w: %s", store.ErrNotFound, pgErr.ConstraintName)
	default:
		return err
	}
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullDate(val time.Time) any {
	if val.IsZero() {
		return nil
	}
	return time.Date(val.UTC().Year(), val.UTC().Month(), val.UTC().Day(), 0, 0, 0, 0, time.UTC)
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}

var _ store.Repository = (*Store)(nil)
