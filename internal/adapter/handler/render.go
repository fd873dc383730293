package handler

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageNames = []string{"home", "product", "cart", "orders", "register", "login"}

var rupiahPrinter = message.NewPrinter(language.Indonesian)

// formatRupiah renders an amount with Indonesian digit grouping, e.g. "Rp 102.500".
func formatRupiah(amount domain.Money) string {
	if amount < 0 {
		return "-" + rupiahPrinter.Sprintf("Rp %d", -int64(amount))
	}
	return rupiahPrinter.Sprintf("Rp %d", int64(amount))
}

// page is the view model shared by all templates; each page fills the fields it uses.
type page struct {
	Flash     *Flash
	CartCount int

	Products []domain.Product
	Product  *domain.Product
	View     *service.CartView
	Search   string
	Orders   []domain.Order
	Nama     string
	Email    string
}

type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	funcs := template.FuncMap{"rupiah": formatRupiah}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			fmt.Sprintf("templates/%s.html", name),
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &renderer{pages: pages}, nil
}

// errResponseWritten marks a failure after the status line went out. Nothing
// more can be sent to the client.
var errResponseWritten = errors.New("response already written")

// render executes into a buffer first so a template error never leaves a
// half-written page behind.
func (r *renderer) render(w http.ResponseWriter, status int, name string, data page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("execute template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %w", errResponseWritten, err)
	}
	return nil
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/assets/", http.FileServer(http.FS(sub)))
}
