package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

type fakeCatalog struct {
	products map[int64]domain.Product
}

func (f *fakeCatalog) FindProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeCatalog) ListProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

type fakeOrders map[string]domain.Order

func (f fakeOrders) FindOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	if o, ok := f[orderID]; ok {
		return &o, nil
	}
	return nil, nil
}

type fakeUsers struct {
	users map[string]domain.User
}

func (f *fakeUsers) CreateUser(ctx context.Context, user domain.User) (int64, error) {
	if _, ok := f.users[user.Email]; ok {
		return 0, port.ErrDuplicateEmail
	}
	user.ID = int64(len(f.users) + 1)
	f.users[user.Email] = user
	return user.ID, nil
}

func (f *fakeUsers) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if u, ok := f.users[email]; ok {
		return &u, nil
	}
	return nil, nil
}

func (f *fakeUsers) FindRoleByName(ctx context.Context, name string) (*domain.Role, error) {
	return &domain.Role{ID: 2, Name: name}, nil
}

// testClient keeps cookies between requests like a browser would.
type testClient struct {
	t       *testing.T
	router  http.Handler
	carts   *storage.MemoryAdapter
	cookies map[string]*http.Cookie
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()

	catalog := &fakeCatalog{products: map[int64]domain.Product{
		5: {
			ID:     5,
			Name:   "Kaos Polos",
			Photos: []string{"/img/kaos-1.jpg"},
			Variants: []domain.Variant{
				{ID: 2, Name: "Hitam", Price: 50000, Stock: 3, Size: "L"},
				{ID: 3, Name: "Putih", Price: 55000, Stock: 500, Size: "XL"},
			},
		},
	}}
	orders := fakeOrders{
		"ORD-1": {ID: "ORD-1", CustomerName: "Budi", Email: "budi@example.com", Status: domain.OrderStatusPaid, Total: 102500, CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
	}
	carts := storage.NewMemoryAdapter()

	h, err := NewHTTPHandler(
		service.NewCartService(carts, catalog, service.NewPricing(service.DefaultTax, nil), nil),
		service.NewOrderService(orders, nil),
		service.NewUserService(&fakeUsers{users: map[string]domain.User{}}, bcrypt.MinCost, nil),
		catalog,
		NewSessions(time.Hour, false),
		nil,
	)
	require.NoError(t, err)

	return &testClient{t: t, router: NewRouter(h), carts: carts, cookies: map[string]*http.Cookie{}}
}

func (c *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *testClient) get(target string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (c *testClient) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *testClient) sendJSON(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *testClient) storedCart() domain.Cart {
	ck, ok := c.cookies[visitorCookieName]
	require.True(c.t, ok, "visitor cookie not set")

	cart, err := c.carts.GetCart(context.Background(), ck.Value)
	require.NoError(c.t, err)
	return cart
}

func TestHealthCheck(t *testing.T) {
	c := newTestClient(t)

	rec := c.get("/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSessions_AssignsAndKeepsVisitorID(t *testing.T) {
	c := newTestClient(t)

	c.get("/cart")
	first, ok := c.cookies[visitorCookieName]
	require.True(t, ok)
	assert.True(t, first.HttpOnly)

	c.get("/cart")
	assert.Equal(t, first.Value, c.cookies[visitorCookieName].Value)
}

func TestSessions_ReplacesMalformedVisitorID(t *testing.T) {
	c := newTestClient(t)
	c.cookies[visitorCookieName] = &http.Cookie{Name: visitorCookieName, Value: "not-a-uuid"}

	c.get("/cart")
	assert.NotEqual(t, "not-a-uuid", c.cookies[visitorCookieName].Value)
}

func TestAddToCart_RedirectsAndShowsFlash(t *testing.T) {
	c := newTestClient(t)

	rec := c.postForm("/cart/add/5", url.Values{"variant_id": {"2"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cart", rec.Header().Get("Location"))

	cartPage := c.get("/cart")
	require.Equal(t, http.StatusOK, cartPage.Code)
	body := cartPage.Body.String()
	assert.Contains(t, body, "Produk berhasil ditambahkan di keranjang")
	assert.Contains(t, body, "Kaos Polos")
	assert.Contains(t, body, "Rp 52.500")

	// the flash is shown once
	again := c.get("/cart")
	assert.NotContains(t, again.Body.String(), "Produk berhasil ditambahkan di keranjang")
}

func TestAddToCart_RedirectsToReferer(t *testing.T) {
	c := newTestClient(t)

	req := httptest.NewRequest(http.MethodPost, "/cart/add/5", strings.NewReader("variant_id=3"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "http://example.com/products/5?tab=detail")

	rec := c.do(req)
	assert.Equal(t, "/products/5?tab=detail", rec.Header().Get("Location"))
}

func TestAddToCart_IgnoresForeignReferer(t *testing.T) {
	referers := []string{
		"https://evil.example/\\evil.example",
		"https://evil.example/phish",
		"http://example.com/\\evil.example",
		"//evil.example/phish",
		"http://example.com:8080/products/5",
	}

	for _, referer := range referers {
		t.Run(referer, func(t *testing.T) {
			c := newTestClient(t)

			req := httptest.NewRequest(http.MethodPost, "/cart/add/5", strings.NewReader("variant_id=3"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.Header.Set("Referer", referer)

			rec := c.do(req)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/cart", rec.Header().Get("Location"))
		})
	}
}

func TestAddToCart_ErrorOutcomesShowFlash(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		variant string
		message string
	}{
		{"unknown product", "/cart/add/99", "1", "Product not found."},
		{"unknown variant", "/cart/add/5", "42", "Invalid variant selected."},
		{"bad variant id", "/cart/add/5", "abc", "Invalid request."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t)

			rec := c.postForm(tt.target, url.Values{"variant_id": {tt.variant}})
			assert.Equal(t, http.StatusSeeOther, rec.Code)

			cartPage := c.get("/cart")
			assert.Contains(t, cartPage.Body.String(), tt.message)
			assert.Empty(t, c.storedCart())
		})
	}
}

func TestCart_QueryParametersAddBeforeReconcile(t *testing.T) {
	c := newTestClient(t)

	c.get("/cart?id=5&variant_id=2")
	rec := c.get("/cart?id=5&variant_id=2")

	body := rec.Body.String()
	assert.Contains(t, body, "Produk berhasil ditambahkan di keranjang")
	assert.Contains(t, body, "Rp 100.000")
	assert.Contains(t, body, "Rp 102.500")
	assert.Equal(t, 2, c.storedCart()[domain.NewItemKey(5, 2)].Quantity)
}

func TestCart_StockLimitMessage(t *testing.T) {
	c := newTestClient(t)

	for range 3 {
		c.get("/cart?id=5&variant_id=2")
	}
	rec := c.get("/cart?id=5&variant_id=2")

	assert.Contains(t, rec.Body.String(), "Maximum stock reached for this variant.")
	assert.Equal(t, 3, c.storedCart()[domain.NewItemKey(5, 2)].Quantity)
}

func TestCart_EmptyCartShowsTaxOnly(t *testing.T) {
	c := newTestClient(t)

	body := c.get("/cart").Body.String()
	assert.Contains(t, body, "Keranjang belanja kosong.")
	assert.Contains(t, body, "Rp 2.500")
}

func TestUpdateCartItem(t *testing.T) {
	c := newTestClient(t)
	c.postForm("/cart/add/5", url.Values{"variant_id": {"2"}})

	rec := c.postForm("/cart/update/5_2", url.Values{"quantity": {"7"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cart", rec.Header().Get("Location"))
	assert.Equal(t, 7, c.storedCart()[domain.NewItemKey(5, 2)].Quantity)

	c.postForm("/cart/update/5_2", url.Values{"quantity": {"-3"}})
	assert.Empty(t, c.storedCart())
}

func TestUpdateCartItem_InvalidInputLeavesCart(t *testing.T) {
	c := newTestClient(t)
	c.postForm("/cart/add/5", url.Values{"variant_id": {"2"}})
	c.get("/cart")

	c.postForm("/cart/update/5_2", url.Values{"quantity": {"lots"}})
	assert.Equal(t, 1, c.storedCart()[domain.NewItemKey(5, 2)].Quantity)
	assert.Contains(t, c.get("/cart").Body.String(), "Invalid request.")

	c.postForm("/cart/update/5-2", url.Values{"quantity": {"4"}})
	assert.Equal(t, 1, c.storedCart()[domain.NewItemKey(5, 2)].Quantity)
}

func TestRemoveCartItem(t *testing.T) {
	c := newTestClient(t)
	c.postForm("/cart/add/5", url.Values{"variant_id": {"2"}})
	c.postForm("/cart/add/5", url.Values{"variant_id": {"3"}})

	rec := c.postForm("/cart/remove/5_2", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	cart := c.storedCart()
	assert.Len(t, cart, 1)
	assert.Contains(t, cart, domain.NewItemKey(5, 3))

	// removing again is a no-op
	c.postForm("/cart/remove/5_2", nil)
	assert.Len(t, c.storedCart(), 1)
}

func TestOrders(t *testing.T) {
	c := newTestClient(t)

	found := c.get("/orders?search=ORD-1").Body.String()
	assert.Contains(t, found, "Budi")
	assert.Contains(t, found, "Rp 102.500")

	missing := c.get("/orders?search=ORD-404").Body.String()
	assert.Contains(t, missing, "Pesanan Tidak Ditemukan")
	assert.Contains(t, missing, "Tidak ada pesanan dengan ID: ORD-404")

	empty := c.get("/orders").Body.String()
	assert.NotContains(t, empty, "Pesanan Tidak Ditemukan")
}

func TestHomeAndProductPages(t *testing.T) {
	c := newTestClient(t)

	home := c.get("/")
	assert.Equal(t, http.StatusOK, home.Code)
	assert.Contains(t, home.Body.String(), `href="/products/5"`)

	product := c.get("/products/5")
	assert.Equal(t, http.StatusOK, product.Code)
	assert.Contains(t, product.Body.String(), `action="/cart/add/5"`)

	assert.Equal(t, http.StatusNotFound, c.get("/products/99").Code)
	assert.Equal(t, http.StatusNotFound, c.get("/products/abc").Code)
}

func TestRegisterAndLogin(t *testing.T) {
	c := newTestClient(t)

	rec := c.postForm("/account/register", url.Values{
		"nama":     {"Siti"},
		"email":    {"Siti@Example.com"},
		"password": {"rahasia123"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/account/login", rec.Header().Get("Location"))

	dup := c.postForm("/account/register", url.Values{
		"nama":     {"Siti"},
		"email":    {"siti@example.com"},
		"password": {"rahasia123"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, dup.Code)
	assert.Contains(t, dup.Body.String(), "Email sudah terdaftar.")

	bad := c.postForm("/account/login", url.Values{"email": {"siti@example.com"}, "password": {"salah"}})
	assert.Equal(t, http.StatusUnauthorized, bad.Code)
	assert.Contains(t, bad.Body.String(), "Email atau password salah.")

	ok := c.postForm("/account/login", url.Values{"email": {"siti@example.com"}, "password": {"rahasia123"}})
	assert.Equal(t, http.StatusSeeOther, ok.Code)
	assert.Contains(t, c.get("/").Body.String(), "Selamat datang, Siti")
}

func TestAPI_CartLifecycle(t *testing.T) {
	c := newTestClient(t)

	rec := c.sendJSON(http.MethodPost, "/api/cart/items", `{"product_id":5,"variant_id":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var added AddCartItemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &added))
	assert.True(t, added.Success)
	require.NotNil(t, added.Item)
	assert.Equal(t, "5_2", added.Item.Key)
	assert.Equal(t, 1, added.Item.Quantity)

	rec = c.sendJSON(http.MethodPut, "/api/cart/items/5_2", `{"quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var cart CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, domain.Money(100000), cart.Subtotal)
	assert.Equal(t, domain.Money(2500), cart.Tax)
	assert.Equal(t, domain.Money(0), cart.Discount)
	assert.Equal(t, domain.Money(102500), cart.Total)

	rec = c.sendJSON(http.MethodDelete, "/api/cart/items/5_2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Empty(t, cart.Items)
	assert.Equal(t, domain.Money(2500), cart.Total)
}

func TestHomeShowsCartCount(t *testing.T) {
	c := newTestClient(t)
	assert.NotContains(t, c.get("/").Body.String(), "Keranjang (")

	c.postForm("/cart/add/5", url.Values{"variant_id": {"3"}})
	c.postForm("/cart/add/5", url.Values{"variant_id": {"3"}})

	assert.Contains(t, c.get("/").Body.String(), "Keranjang (2)")
	assert.Contains(t, c.get("/products/5").Body.String(), "Keranjang (2)")
}

type brokenWriter struct {
	header      http.Header
	headerCalls int
}

func (w *brokenWriter) Header() http.Header { return w.header }

func (w *brokenWriter) WriteHeader(status int) { w.headerCalls++ }

func (w *brokenWriter) Write(p []byte) (int, error) { return 0, errors.New("broken pipe") }

func TestRender_WriteFailureSendsOneHeader(t *testing.T) {
	views, err := newRenderer()
	require.NoError(t, err)
	h := &HTTPHandler{views: views, logger: zap.NewNop()}

	w := &brokenWriter{header: http.Header{}}
	h.render(w, httptest.NewRequest(http.MethodGet, "/login", nil), http.StatusOK, "login", page{Email: "budi@example.com"})

	assert.Equal(t, 1, w.headerCalls)
	assert.Equal(t, "text/html; charset=utf-8", w.header.Get("Content-Type"))
}

func TestAPI_UpdateSkipsStockCheck(t *testing.T) {
	c := newTestClient(t)
	c.sendJSON(http.MethodPost, "/api/cart/items", `{"product_id":5,"variant_id":2}`)

	rec := c.sendJSON(http.MethodPut, "/api/cart/items/5_2", `{"quantity":"150"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 150, c.storedCart()[domain.NewItemKey(5, 2)].Quantity)
}

func TestAPI_ErrorStatuses(t *testing.T) {
	c := newTestClient(t)

	tests := []struct {
		name    string
		method  string
		target  string
		body    string
		status  int
		outcome string
	}{
		{"unknown product", http.MethodPost, "/api/cart/items", `{"product_id":99,"variant_id":1}`, http.StatusNotFound, "not_found"},
		{"unknown variant", http.MethodPost, "/api/cart/items", `{"product_id":5,"variant_id":42}`, http.StatusUnprocessableEntity, "invalid_variant"},
		{"bad body", http.MethodPost, "/api/cart/items", `{`, http.StatusBadRequest, "invalid_input"},
		{"bad key", http.MethodPut, "/api/cart/items/5", `{"quantity":1}`, http.StatusBadRequest, "invalid_input"},
		{"bad quantity", http.MethodPut, "/api/cart/items/5_2", `{"quantity":"many"}`, http.StatusBadRequest, "invalid_input"},
		{"huge quantity", http.MethodPut, "/api/cart/items/5_2", `{"quantity":"9223372036854775807"}`, http.StatusBadRequest, "invalid_input"},
		{"missing order", http.MethodGet, "/api/orders/ORD-404", "", http.StatusNotFound, "no_results"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.sendJSON(tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var resp APIResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.outcome, resp.Outcome)
		})
	}
}

func TestAPI_StockLimitConflict(t *testing.T) {
	c := newTestClient(t)

	for range 3 {
		rec := c.sendJSON(http.MethodPost, "/api/cart/items", `{"product_id":5,"variant_id":2}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := c.sendJSON(http.MethodPost, "/api/cart/items", `{"product_id":5,"variant_id":2}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_GetOrder(t *testing.T) {
	c := newTestClient(t)

	rec := c.get("/api/orders/ORD-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var order OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, "ORD-1", order.ID)
	assert.Equal(t, "paid", order.Status)
	assert.Equal(t, domain.Money(102500), order.Total)
}

func TestFormatRupiah(t *testing.T) {
	assert.Equal(t, "Rp 0", formatRupiah(0))
	assert.Equal(t, "Rp 2.500", formatRupiah(2500))
	assert.Equal(t, "Rp 102.500", formatRupiah(102500))
	assert.Equal(t, "-Rp 1.000", formatRupiah(-1000))
}
