package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

const homeProductLimit = 12

type HTTPHandler struct {
	carts    *service.CartService
	orders   *service.OrderService
	users    *service.UserService
	catalog  port.CatalogRepository
	sessions *Sessions
	views    *renderer
	logger   *zap.Logger
}

func NewHTTPHandler(
	carts *service.CartService,
	orders *service.OrderService,
	users *service.UserService,
	catalog port.CatalogRepository,
	sessions *Sessions,
	logger *zap.Logger,
) (*HTTPHandler, error) {
	views, err := newRenderer()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{
		carts:    carts,
		orders:   orders,
		users:    users,
		catalog:  catalog,
		sessions: sessions,
		views:    views,
		logger:   logger,
	}, nil
}

func NewRouter(h *HTTPHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	r.Handle("/assets/*", staticHandler())

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.Middleware)

		r.Get("/", h.Home)
		r.Get("/products/{productID}", h.Product)

		r.Get("/cart", h.Cart)
		r.Post("/cart/add/{productID}", h.AddToCart)
		r.Post("/cart/update/{itemKey}", h.UpdateCartItem)
		r.Post("/cart/remove/{itemKey}", h.RemoveCartItem)

		r.Get("/orders", h.Orders)

		r.Get("/account/register", h.RegisterForm)
		r.Post("/account/register", h.Register)
		r.Get("/account/login", h.LoginForm)
		r.Post("/account/login", h.Login)

		r.Route("/api", func(r chi.Router) {
			r.Get("/cart", h.APIGetCart)
			r.Post("/cart/items", h.APIAddCartItem)
			r.Put("/cart/items/{itemKey}", h.APIUpdateCartItem)
			r.Delete("/cart/items/{itemKey}", h.APIRemoveCartItem)
			r.Get("/orders/{orderID}", h.APIGetOrder)
		})
	})

	return r
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) Home(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context(), homeProductLimit)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "home", page{
		Flash:    popFlash(w, r),
		Products: products,
	})
}

func (h *HTTPHandler) Product(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	product, err := h.catalog.FindProduct(r.Context(), productID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if product == nil {
		http.NotFound(w, r)
		return
	}

	h.render(w, r, http.StatusOK, "product", page{
		Flash:   popFlash(w, r),
		Product: product,
	})
}

// AddToCart adds one unit and sends the visitor back where they came from.
func (h *HTTPHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	productID, perr := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	variantID, verr := strconv.ParseInt(r.PostFormValue("variant_id"), 10, 64)
	if perr != nil || verr != nil {
		setFlash(w, addFlash(service.OutcomeInvalidInput))
		redirectBack(w, r)
		return
	}

	_, err := h.carts.Add(r.Context(), VisitorID(r.Context()), productID, variantID)
	outcome := service.OutcomeOf(err)
	if outcome == service.OutcomeFailure {
		h.serverError(w, r, err)
		return
	}
	h.logOutcome(r, "add to cart", outcome)

	setFlash(w, addFlash(outcome))
	redirectBack(w, r)
}

// Cart renders the reconciled cart. When both id and variant_id are present
// the item is added first and the result is shown on the same page.
func (h *HTTPHandler) Cart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	visitorID := VisitorID(ctx)
	flash := popFlash(w, r)

	query := r.URL.Query()
	if rawID, rawVariant := query.Get("id"), query.Get("variant_id"); rawID != "" && rawVariant != "" {
		outcome := service.OutcomeInvalidInput

		productID, perr := strconv.ParseInt(rawID, 10, 64)
		variantID, verr := strconv.ParseInt(rawVariant, 10, 64)
		if perr == nil && verr == nil {
			_, err := h.carts.Add(ctx, visitorID, productID, variantID)
			outcome = service.OutcomeOf(err)
			if outcome == service.OutcomeFailure {
				h.serverError(w, r, err)
				return
			}
		}
		h.logOutcome(r, "add to cart", outcome)

		f := addFlash(outcome)
		flash = &f
	}

	view, err := h.carts.Reconcile(ctx, visitorID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "cart", page{
		Flash:     flash,
		CartCount: view.Cart.TotalQuantity(),
		View:      view,
	})
}

func (h *HTTPHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	key, err := service.ParseItemKey(chi.URLParam(r, "itemKey"))
	if err == nil {
		err = h.carts.UpdateQuantity(r.Context(), VisitorID(r.Context()), key, r.PostFormValue("quantity"))
	}
	h.finishCartChange(w, r, "update cart item", err)
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	key, err := service.ParseItemKey(chi.URLParam(r, "itemKey"))
	if err == nil {
		err = h.carts.Remove(r.Context(), VisitorID(r.Context()), key)
	}
	h.finishCartChange(w, r, "remove cart item", err)
}

func (h *HTTPHandler) finishCartChange(w http.ResponseWriter, r *http.Request, action string, err error) {
	outcome := service.OutcomeOf(err)
	if outcome == service.OutcomeFailure {
		h.serverError(w, r, err)
		return
	}
	if outcome != service.OutcomeSuccess {
		h.logOutcome(r, action, outcome)
		setFlash(w, addFlash(outcome))
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

func (h *HTTPHandler) Orders(w http.ResponseWriter, r *http.Request) {
	result, err := h.orders.Lookup(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	flash := popFlash(w, r)
	if result.Outcome == service.OutcomeNoResults {
		f := orderNotFoundFlash(result.Term)
		flash = &f
	}

	h.render(w, r, http.StatusOK, "orders", page{
		Flash:  flash,
		Search: result.Term,
		Orders: result.Orders,
	})
}

func (h *HTTPHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", page{Flash: popFlash(w, r)})
}

func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	nama, email := r.PostFormValue("nama"), r.PostFormValue("email")

	_, err := h.users.Register(r.Context(), nama, email, r.PostFormValue("password"))
	if err != nil {
		if service.OutcomeOf(err) == service.OutcomeFailure {
			h.serverError(w, r, err)
			return
		}
		h.logOutcome(r, "register", service.OutcomeInvalidInput)

		f := accountFlash(err)
		h.render(w, r, http.StatusUnprocessableEntity, "register", page{
			Flash: &f,
			Nama:  nama,
			Email: email,
		})
		return
	}

	setFlash(w, Flash{Kind: FlashSuccess, Title: "Berhasil", Message: "Akun berhasil dibuat, silakan masuk."})
	http.Redirect(w, r, "/account/login", http.StatusSeeOther)
}

func (h *HTTPHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", page{Flash: popFlash(w, r)})
}

func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")

	user, err := h.users.Authenticate(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		if service.OutcomeOf(err) == service.OutcomeFailure {
			h.serverError(w, r, err)
			return
		}
		h.logOutcome(r, "login", service.OutcomeInvalidInput)

		f := accountFlash(err)
		h.render(w, r, http.StatusUnauthorized, "login", page{Flash: &f, Email: email})
		return
	}

	setFlash(w, Flash{Kind: FlashSuccess, Title: "Halo!", Message: "Selamat datang, " + user.Nama})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *HTTPHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data page) {
	if data.CartCount == 0 {
		if visitorID := VisitorID(r.Context()); visitorID != "" {
			n, err := h.carts.Count(r.Context(), visitorID)
			if err != nil {
				h.logger.Warn("cart count failed", zapRequestFields(r, err)...)
			}
			data.CartCount = n
		}
	}

	err := h.views.render(w, status, name, data)
	switch {
	case err == nil:
	case errors.Is(err, errResponseWritten):
		h.logger.Warn("response write failed", zapRequestFields(r, err)...)
	default:
		h.serverError(w, r, err)
	}
}

func (h *HTTPHandler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed", zapRequestFields(r, err)...)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func zapRequestFields(r *http.Request, err error) []zap.Field {
	return []zap.Field{
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
}

func (h *HTTPHandler) logOutcome(r *http.Request, action string, outcome service.Outcome) {
	h.logger.Info(action,
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Stringer("outcome", outcome),
	)
}

// redirectBack follows the Referer when it points at a path on this host and
// falls back to the cart otherwise.
func redirectBack(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, sameSiteReferer(r, "/cart"), http.StatusSeeOther)
}

func sameSiteReferer(r *http.Request, fallback string) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || (ref.Host != "" && ref.Host != r.Host) {
		return fallback
	}
	// Browsers treat a backslash like a slash, so "/\host" is protocol relative.
	if !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") || strings.Contains(ref.Path, "\\") {
		return fallback
	}
	target := ref.Path
	if ref.RawQuery != "" {
		target += "?" + ref.RawQuery
	}
	return target
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
