package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

const (
	productID = 1
	variantID = 1
)

// staticCatalog serves a single product so the run needs Redis only.
type staticCatalog struct {
	product domain.Product
}

func (c staticCatalog) FindProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if id != c.product.ID {
		return nil, nil
	}
	p := c.product
	return &p, nil
}

func (c staticCatalog) ListProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	return []domain.Product{c.product}, nil
}

type stressOptions struct {
	redisAddr      string
	visitors       int
	sharedRequests int
	stock          int
}

func main() {
	if err := newStressCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newStressCommand() *cobra.Command {
	opts := &stressOptions{}

	cmd := &cobra.Command{
		Use:           "stress_test",
		Short:         "Hammer the Redis cart store with concurrent adds",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.redisAddr, "redis", "localhost:6379", "redis address")
	cmd.Flags().IntVar(&opts.visitors, "visitors", 50, "number of distinct visitors")
	cmd.Flags().IntVar(&opts.sharedRequests, "shared", 50, "concurrent adds into one shared cart")
	cmd.Flags().IntVar(&opts.stock, "stock", 99, "variant stock")
	return cmd
}

func runStress(ctx context.Context, opts *stressOptions) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{Addr: opts.redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()
	logger.Info("connected to redis", zap.String("addr", opts.redisAddr))

	catalog := staticCatalog{product: domain.Product{
		ID:   productID,
		Name: "Stress Tee",
		Variants: []domain.Variant{
			{ID: variantID, Name: "Black", Price: 50000, Stock: opts.stock, Size: "L"},
		},
	}}
	carts := storage.NewRedisAdapter(rdb, 5*time.Minute)
	svc := service.NewCartService(carts, catalog, service.NewPricing(service.DefaultTax, nil), logger.Named("cart"))

	// Scenario 1: one add per visitor, every cart must end with quantity 1
	var (
		wg       sync.WaitGroup
		failures atomic.Int32
	)
	ids := make([]string, opts.visitors)
	for i := range ids {
		ids[i] = "stress-" + uuid.NewString()
	}

	start := time.Now()
	for _, id := range ids {
		wg.Add(1)
		go func(visitorID string) {
			defer wg.Done()
			if _, err := svc.Add(ctx, visitorID, productID, variantID); err != nil {
				logger.Warn("add failed", zap.String("visitor", visitorID), zap.Error(err))
				failures.Add(1)
			}
		}(id)
	}
	wg.Wait()
	perVisitorElapsed := time.Since(start)

	wrong := 0
	for _, id := range ids {
		view, err := svc.Reconcile(ctx, id)
		if err != nil || view.Cart.TotalQuantity() != 1 {
			wrong++
		}
		rdb.Del(ctx, "cart:"+id)
	}

	// Scenario 2: many concurrent adds into one cart; lost updates are expected
	shared := "stress-shared-" + uuid.NewString()
	var succeeded, limited atomic.Int32

	start = time.Now()
	for i := 0; i < opts.sharedRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Add(ctx, shared, productID, variantID)
			switch service.OutcomeOf(err) {
			case service.OutcomeSuccess:
				succeeded.Add(1)
			case service.OutcomeStockLimitReached:
				limited.Add(1)
			default:
				failures.Add(1)
			}
		}()
	}
	wg.Wait()
	sharedElapsed := time.Since(start)

	view, err := svc.Reconcile(ctx, shared)
	if err != nil {
		return fmt.Errorf("read shared cart: %w", err)
	}
	finalQuantity := view.Cart.TotalQuantity()
	rdb.Del(ctx, "cart:"+shared)

	fmt.Println("========== CART STRESS RESULTS ==========")
	fmt.Printf("Visitors:              %d\n", opts.visitors)
	fmt.Printf("Per-visitor duration:  %v\n", perVisitorElapsed)
	fmt.Printf("Carts not at qty 1:    %d\n", wrong)
	fmt.Printf("Shared-cart adds:      %d\n", opts.sharedRequests)
	fmt.Printf("  succeeded:           %d\n", succeeded.Load())
	fmt.Printf("  stock limited:       %d\n", limited.Load())
	fmt.Printf("  final quantity:      %d\n", finalQuantity)
	fmt.Printf("  lost updates:        %d\n", int(succeeded.Load())-finalQuantity)
	fmt.Printf("Shared-cart duration:  %v\n", sharedElapsed)
	fmt.Printf("Errors:                %d\n", failures.Load())
	fmt.Println("==========================================")

	if wrong == 0 && failures.Load() == 0 {
		fmt.Println("PASS: independent carts are isolated")
	} else {
		fmt.Println("FAIL: independent carts interfered or errored")
	}
	if finalQuantity > domain.QuantityCap(opts.stock) {
		fmt.Printf("FAIL: shared cart quantity %d above cap %d\n", finalQuantity, domain.QuantityCap(opts.stock))
	}
	return nil
}
