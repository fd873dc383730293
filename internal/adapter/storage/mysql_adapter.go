package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const mysqlErrDuplicateEntry = 1062

// MySQLAdapter serves the catalog, order and account tables. Its queries stay
// within the SQL subset SQLite also accepts, so the same adapter runs against
// an in-memory SQLite database for local runs and tests.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) FindProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	var p domain.Product
	err := m.db.QueryRowContext(ctx, `
		SELECT id, nama_produk FROM produk WHERE id = ?`, productID,
	).Scan(&p.ID, &p.Name)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}

	if err := m.loadProductDetails(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (m *MySQLAdapter) ListProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, nama_produk FROM produk ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	for i := range products {
		if err := m.loadProductDetails(ctx, &products[i]); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func (m *MySQLAdapter) loadProductDetails(ctx context.Context, p *domain.Product) error {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, nama_varian, harga, stok, ukuran
		FROM varian_produk WHERE id_produk = ? ORDER BY id`, p.ID,
	)
	if err != nil {
		return fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	p.Variants = nil
	for rows.Next() {
		var (
			v     domain.Variant
			price decimal.Decimal
		)
		if err := rows.Scan(&v.ID, &v.Name, &price, &v.Stock, &v.Size); err != nil {
			return fmt.Errorf("scan variant: %w", err)
		}
		v.Price = toMoney(price)
		p.Variants = append(p.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate variants: %w", err)
	}

	photoRows, err := m.db.QueryContext(ctx, `
		SELECT url_photo FROM foto_produk WHERE id_produk = ? ORDER BY id`, p.ID,
	)
	if err != nil {
		return fmt.Errorf("query photos: %w", err)
	}
	defer photoRows.Close()

	p.Photos = nil
	for photoRows.Next() {
		var url string
		if err := photoRows.Scan(&url); err != nil {
			return fmt.Errorf("scan photo: %w", err)
		}
		p.Photos = append(p.Photos, url)
	}
	return photoRows.Err()
}

func (m *MySQLAdapter) FindOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var (
		o     domain.Order
		total decimal.Decimal
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, nama_pelanggan, email, status, total, created_at, updated_at
		FROM orders WHERE id = ?`, orderID,
	).Scan(&o.ID, &o.CustomerName, &o.Email, &o.Status, &total, &o.CreatedAt, &o.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	o.Total = toMoney(total)
	return &o, nil
}

func (m *MySQLAdapter) CreateUser(ctx context.Context, user domain.User) (int64, error) {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO users (id_role, nama, email, password, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.Role.ID, user.Nama, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if isDuplicateKey(err) {
		return 0, port.ErrDuplicateEmail
	}
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (m *MySQLAdapter) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := m.db.QueryRowContext(ctx, `
		SELECT u.id, u.nama, u.email, u.password, u.created_at, u.updated_at, r.id, r.nama_role
		FROM users u JOIN roles r ON r.id = u.id_role
		WHERE u.email = ?`, email,
	).Scan(&u.ID, &u.Nama, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt, &u.Role.ID, &u.Role.Name)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

func (m *MySQLAdapter) FindRoleByName(ctx context.Context, name string) (*domain.Role, error) {
	var r domain.Role
	err := m.db.QueryRowContext(ctx, `
		SELECT id, nama_role FROM roles WHERE nama_role = ?`, name,
	).Scan(&r.ID, &r.Name)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query role: %w", err)
	}
	return &r, nil
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

// toMoney converts a DECIMAL column to whole currency units, rounding half away from zero.
func toMoney(d decimal.Decimal) domain.Money {
	return domain.Money(d.Round(0).IntPart())
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrDuplicateEntry
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
