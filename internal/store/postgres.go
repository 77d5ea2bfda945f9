package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// schema is applied on Open. The seq columns exist only to give the list
// helpers a creation order to sort on.
const schema = `
CREATE TABLE IF NOT EXISTS tables (
	id UUID PRIMARY KEY,
	seq BIGSERIAL,
	number INT NOT NULL,
	restaurant_name TEXT NOT NULL,
	qr_code TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS bills (
	id UUID PRIMARY KEY,
	seq BIGSERIAL,
	table_id UUID NOT NULL REFERENCES tables(id),
	total NUMERIC(12,2) NOT NULL,
	paid NUMERIC(12,2) NOT NULL DEFAULT 0,
	remaining NUMERIC(12,2) NOT NULL,
	status TEXT NOT NULL DEFAULT 'unpaid' CHECK (status IN ('unpaid', 'partial', 'paid')),
	guest_count INT NOT NULL DEFAULT 1,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	start_time TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS bill_items (
	id UUID PRIMARY KEY,
	seq BIGSERIAL,
	bill_id UUID NOT NULL REFERENCES bills(id),
	name TEXT NOT NULL,
	price NUMERIC(12,2) NOT NULL,
	quantity NUMERIC(12,2) NOT NULL DEFAULT 1,
	paid_quantity NUMERIC(12,2) NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS payments (
	id UUID PRIMARY KEY,
	seq BIGSERIAL,
	bill_id UUID NOT NULL,
	amount NUMERIC(12,2) NOT NULL,
	tip NUMERIC(12,2) NOT NULL DEFAULT 0,
	items JSONB NOT NULL DEFAULT '[]',
	payment_method TEXT NOT NULL DEFAULT 'card',
	status TEXT NOT NULL DEFAULT 'completed',
	processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PGStore is the Postgres Store backend. It honors the same contract as
// MemStore; creation order comes from the seq columns.
type PGStore struct {
	pool *pgxpool.Pool
}

// OpenPG connects to Postgres and applies the schema.
func OpenPG(ctx context.Context, databaseURL string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PGStore) Close() {
	s.pool.Close()
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.String())
	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// --- Tables ---

const tableCols = `id, number, restaurant_name, qr_code, is_active, created_at`

func scanTable(row pgx.Row) (Table, error) {
	var t Table
	err := row.Scan(&t.ID, &t.Number, &t.RestaurantName, &t.QRCode, &t.IsActive, &t.CreatedAt)
	return t, err
}

func (s *PGStore) CreateTable(ctx context.Context, arg CreateTableParams) (Table, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO tables (id, number, restaurant_name, qr_code, is_active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+tableCols,
		uuid.New(), arg.Number, arg.RestaurantName, arg.QRCode, arg.IsActive)
	return scanTable(row)
}

func (s *PGStore) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	t, err := scanTable(s.pool.QueryRow(ctx,
		`SELECT `+tableCols+` FROM tables WHERE id = $1`, id))
	return t, notFound(err)
}

func (s *PGStore) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+tableCols+` FROM tables ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Table{}
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (s *PGStore) TableByNumberAndRestaurant(ctx context.Context, number int, restaurant string) (Table, error) {
	t, err := scanTable(s.pool.QueryRow(ctx,
		`SELECT `+tableCols+` FROM tables
		 WHERE number = $1 AND restaurant_name = $2
		 ORDER BY seq LIMIT 1`,
		number, restaurant))
	return t, notFound(err)
}

func (s *PGStore) UpdateTable(ctx context.Context, id uuid.UUID, patch TablePatch) (Table, error) {
	t, err := scanTable(s.pool.QueryRow(ctx,
		`UPDATE tables SET
			qr_code = COALESCE($2, qr_code),
			is_active = COALESCE($3, is_active)
		 WHERE id = $1
		 RETURNING `+tableCols,
		id, patch.QRCode, patch.IsActive))
	return t, notFound(err)
}

// --- Bills ---

const billCols = `id, table_id, total, paid, remaining, status, guest_count, is_active, start_time`

func scanBill(row pgx.Row) (Bill, error) {
	var b Bill
	var total, paid, remaining pgtype.Numeric
	err := row.Scan(&b.ID, &b.TableID, &total, &paid, &remaining,
		&b.Status, &b.GuestCount, &b.IsActive, &b.StartTime)
	if err != nil {
		return Bill{}, err
	}
	b.Total = numericToDecimal(total)
	b.Paid = numericToDecimal(paid)
	b.Remaining = numericToDecimal(remaining)
	return b, nil
}

func (s *PGStore) CreateBill(ctx context.Context, arg CreateBillParams) (Bill, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO bills (id, table_id, total, paid, remaining, status, guest_count, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+billCols,
		uuid.New(), arg.TableID, decimalToNumeric(arg.Total), decimalToNumeric(arg.Paid),
		decimalToNumeric(arg.Remaining), string(arg.Status), arg.GuestCount, arg.IsActive)
	return scanBill(row)
}

func (s *PGStore) GetBill(ctx context.Context, id uuid.UUID) (Bill, error) {
	b, err := scanBill(s.pool.QueryRow(ctx,
		`SELECT `+billCols+` FROM bills WHERE id = $1`, id))
	return b, notFound(err)
}

func (s *PGStore) ActiveBillByTable(ctx context.Context, tableID uuid.UUID) (Bill, error) {
	b, err := scanBill(s.pool.QueryRow(ctx,
		`SELECT `+billCols+` FROM bills
		 WHERE table_id = $1 AND is_active
		 ORDER BY seq LIMIT 1`,
		tableID))
	return b, notFound(err)
}

func (s *PGStore) ListActiveBills(ctx context.Context) ([]Bill, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+billCols+` FROM bills WHERE is_active ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (s *PGStore) UpdateBill(ctx context.Context, id uuid.UUID, patch BillPatch) (Bill, error) {
	var total, paid, remaining pgtype.Numeric
	if patch.Total != nil {
		total = decimalToNumeric(*patch.Total)
	}
	if patch.Paid != nil {
		paid = decimalToNumeric(*patch.Paid)
	}
	if patch.Remaining != nil {
		remaining = decimalToNumeric(*patch.Remaining)
	}
	var status *string
	if patch.Status != nil {
		v := string(*patch.Status)
		status = &v
	}

	b, err := scanBill(s.pool.QueryRow(ctx,
		`UPDATE bills SET
			total = COALESCE($2, total),
			paid = COALESCE($3, paid),
			remaining = COALESCE($4, remaining),
			status = COALESCE($5, status),
			guest_count = COALESCE($6, guest_count),
			is_active = COALESCE($7, is_active)
		 WHERE id = $1
		 RETURNING `+billCols,
		id, total, paid, remaining, status, patch.GuestCount, patch.IsActive))
	return b, notFound(err)
}

// --- Bill items ---

const itemCols = `id, bill_id, name, price, quantity, paid_quantity`

func scanBillItem(row pgx.Row) (BillItem, error) {
	var it BillItem
	var price, quantity, paidQty pgtype.Numeric
	err := row.Scan(&it.ID, &it.BillID, &it.Name, &price, &quantity, &paidQty)
	if err != nil {
		return BillItem{}, err
	}
	it.Price = numericToDecimal(price)
	it.Quantity = numericToDecimal(quantity)
	it.PaidQuantity = numericToDecimal(paidQty)
	return it, nil
}

func (s *PGStore) CreateBillItem(ctx context.Context, arg CreateBillItemParams) (BillItem, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO bill_items (id, bill_id, name, price, quantity, paid_quantity)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+itemCols,
		uuid.New(), arg.BillID, arg.Name, decimalToNumeric(arg.Price),
		decimalToNumeric(arg.Quantity), decimalToNumeric(arg.PaidQuantity))
	return scanBillItem(row)
}

func (s *PGStore) GetBillItem(ctx context.Context, id uuid.UUID) (BillItem, error) {
	it, err := scanBillItem(s.pool.QueryRow(ctx,
		`SELECT `+itemCols+` FROM bill_items WHERE id = $1`, id))
	return it, notFound(err)
}

func (s *PGStore) ItemsByBill(ctx context.Context, billID uuid.UUID) ([]BillItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+itemCols+` FROM bill_items WHERE bill_id = $1 ORDER BY seq`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []BillItem{}
	for rows.Next() {
		it, err := scanBillItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

func (s *PGStore) UpdateBillItem(ctx context.Context, id uuid.UUID, patch BillItemPatch) (BillItem, error) {
	var price, quantity, paidQty pgtype.Numeric
	if patch.Price != nil {
		price = decimalToNumeric(*patch.Price)
	}
	if patch.Quantity != nil {
		quantity = decimalToNumeric(*patch.Quantity)
	}
	if patch.PaidQuantity != nil {
		paidQty = decimalToNumeric(*patch.PaidQuantity)
	}

	it, err := scanBillItem(s.pool.QueryRow(ctx,
		`UPDATE bill_items SET
			name = COALESCE($2, name),
			price = COALESCE($3, price),
			quantity = COALESCE($4, quantity),
			paid_quantity = COALESCE($5, paid_quantity)
		 WHERE id = $1
		 RETURNING `+itemCols,
		id, patch.Name, price, quantity, paidQty))
	return it, notFound(err)
}

// --- Payments ---

const paymentCols = `id, bill_id, amount, tip, items, payment_method, status, processed_at`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	var amount, tip pgtype.Numeric
	var items []byte
	err := row.Scan(&p.ID, &p.BillID, &amount, &tip, &items,
		&p.PaymentMethod, &p.Status, &p.ProcessedAt)
	if err != nil {
		return Payment{}, err
	}
	p.Amount = numericToDecimal(amount)
	p.Tip = numericToDecimal(tip)
	if err := json.Unmarshal(items, &p.Items); err != nil {
		return Payment{}, fmt.Errorf("decode payment allocations: %w", err)
	}
	return p, nil
}

func (s *PGStore) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	items := arg.Items
	if items == nil {
		items = []ItemAllocation{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return Payment{}, fmt.Errorf("encode payment allocations: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO payments (id, bill_id, amount, tip, items, payment_method, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+paymentCols,
		uuid.New(), arg.BillID, decimalToNumeric(arg.Amount), decimalToNumeric(arg.Tip),
		encoded, arg.PaymentMethod, arg.Status)
	return scanPayment(row)
}

func (s *PGStore) PaymentsByBill(ctx context.Context, billID uuid.UUID) ([]Payment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE bill_id = $1 ORDER BY seq`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
