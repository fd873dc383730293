package service

import (
	"context"
	"sync"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// Mock CartRepository
type mockCartRepo struct {
	carts    map[string]domain.Cart
	putCount int
	getErr   error
	putErr   error
	mu       sync.Mutex
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[string]domain.Cart)}
}

func (m *mockCartRepo) GetCart(ctx context.Context, visitorID string) (domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	if cart, ok := m.carts[visitorID]; ok {
		return cart.Clone(), nil
	}
	return domain.NewCart(), nil
}

func (m *mockCartRepo) PutCart(ctx context.Context, visitorID string, cart domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.putErr != nil {
		return m.putErr
	}
	m.putCount++
	m.carts[visitorID] = cart.Clone()
	return nil
}

func (m *mockCartRepo) stored(visitorID string) domain.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.carts[visitorID].Clone()
}

// Mock CatalogRepository
type mockCatalogRepo struct {
	products map[int64]*domain.Product
	lookups  int
	err      error
}

func newMockCatalogRepo(products ...domain.Product) *mockCatalogRepo {
	m := &mockCatalogRepo{products: make(map[int64]*domain.Product)}
	for i := range products {
		p := products[i]
		m.products[p.ID] = &p
	}
	return m
}

func (m *mockCatalogRepo) FindProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	m.lookups++
	if m.err != nil {
		return nil, m.err
	}
	return m.products[productID], nil
}

func (m *mockCatalogRepo) ListProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, nil
}

// Mock OrderRepository
type mockOrderRepo struct {
	orders  map[string]domain.Order
	lookups int
}

func (m *mockOrderRepo) FindOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	m.lookups++
	if o, ok := m.orders[orderID]; ok {
		return &o, nil
	}
	return nil, nil
}

// Mock UserRepository
type mockUserRepo struct {
	users  map[string]domain.User
	roles  map[string]domain.Role
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users: make(map[string]domain.User),
		roles: map[string]domain.Role{domain.RoleCustomer: {ID: 2, Name: domain.RoleCustomer}},
	}
}

func (m *mockUserRepo) CreateUser(ctx context.Context, user domain.User) (int64, error) {
	if _, ok := m.users[user.Email]; ok {
		return 0, port.ErrDuplicateEmail
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.Email] = user
	return user.ID, nil
}

func (m *mockUserRepo) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if u, ok := m.users[email]; ok {
		return &u, nil
	}
	return nil, nil
}

func (m *mockUserRepo) FindRoleByName(ctx context.Context, name string) (*domain.Role, error) {
	if r, ok := m.roles[name]; ok {
		return &r, nil
	}
	return nil, nil
}

func strPtr(s string) *string { return &s }

func testProduct() domain.Product {
	return domain.Product{
		ID:     5,
		Name:   "Kaos Polos",
		Photos: []string{"/img/kaos-1.jpg", "/img/kaos-2.jpg"},
		Variants: []domain.Variant{
			{ID: 2, Name: "Hitam", Price: 50000, Stock: 3, Size: "L"},
			{ID: 3, Name: "Putih", Price: 55000, Stock: 500, Size: "XL"},
		},
	}
}
