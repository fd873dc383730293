package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/rl1809/storefront/internal/adapter/handler"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

type rootOptions struct {
	configPath string
	dev        bool
	httpAddr   string
	grpcAddr   string
	cartStore  string
	dbDriver   string
	dbDSN      string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront web server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().BoolVar(&opts.dev, "dev", false, "human readable debug logging")
	cmd.PersistentFlags().StringVar(&opts.dbDriver, "db-driver", "", "database driver (mysql|sqlite3)")
	cmd.PersistentFlags().StringVar(&opts.dbDSN, "db-dsn", "", "database DSN")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	serve.Flags().StringVar(&opts.httpAddr, "http-addr", "", "HTTP listen address")
	serve.Flags().StringVar(&opts.grpcAddr, "grpc-addr", "", "gRPC listen address")
	serve.Flags().StringVar(&opts.cartStore, "cart-store", "", "cart store (redis|memory)")

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, opts)
		},
	}

	cmd.AddCommand(serve, migrate)
	return cmd
}

func loadConfig(cmd *cobra.Command, opts *rootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("dev") {
		cfg.Dev = opts.dev
	}
	if flags.Changed("db-driver") {
		cfg.Database.Driver = opts.dbDriver
	}
	if flags.Changed("db-dsn") {
		cfg.Database.DSN = opts.dbDSN
	}
	if flags.Changed("http-addr") {
		cfg.HTTPAddr = opts.httpAddr
	}
	if flags.Changed("grpc-addr") {
		cfg.GRPCAddr = opts.grpcAddr
	}
	if flags.Changed("cart-store") {
		cfg.Cart.Store = opts.cartStore
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return db, nil
}

func runMigrate(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Dev)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.Migrate(ctx, db, cfg.Database.Driver); err != nil {
		return err
	}
	logger.Info("schema applied", zap.String("driver", cfg.Database.Driver))
	return nil
}

// cartStore is what the server needs from a cart store adapter.
type cartStore interface {
	port.CartRepository
	handler.Pinger
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Dev)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to database", zap.String("driver", cfg.Database.Driver))

	if cfg.Database.Driver == config.DriverSQLite {
		if err := storage.Migrate(ctx, db, cfg.Database.Driver); err != nil {
			return err
		}
	}

	// Initialize cart store
	var carts cartStore
	switch cfg.Cart.Store {
	case config.CartStoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
		carts = storage.NewRedisAdapter(rdb, cfg.Session.Lifetime)
	default:
		logger.Warn("using in-memory cart store; carts are lost on restart")
		carts = storage.NewMemoryAdapter()
	}

	// Initialize services
	mysqlAdapter := storage.NewMySQLAdapter(db)
	pricing := service.NewPricing(domain.Money(cfg.Cart.Tax), service.NoDiscount)
	cartService := service.NewCartService(carts, mysqlAdapter, pricing, logger.Named("cart"))
	orderService := service.NewOrderService(mysqlAdapter, logger.Named("order"))
	userService := service.NewUserService(mysqlAdapter, cfg.Accounts.BcryptCost, logger.Named("user"))

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	grpcHandler := handler.NewGRPCHandler(map[string]handler.Pinger{
		"database":   mysqlAdapter,
		"cart_store": carts,
	}, logger.Named("health"))
	grpcHandler.Register(grpcServer)
	go grpcHandler.Run(ctx, cfg.Health.ProbeInterval)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}

	serverErr := make(chan error, 2)

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			serverErr <- fmt.Errorf("gRPC server: %w", err)
		}
	}()

	// Initialize HTTP server
	httpHandler, err := handler.NewHTTPHandler(
		cartService,
		orderService,
		userService,
		mysqlAdapter,
		handler.NewSessions(cfg.Session.Lifetime, cfg.Session.SecureCookie),
		logger.Named("http"),
	)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewRouter(httpHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	runErr := waitForShutdown(quit, serverErr)
	if runErr != nil {
		logger.Error("server failed", zap.Error(runErr))
	}

	logger.Info("shutting down")
	grpcHandler.Shutdown()

	// Stop HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	// Stop gRPC server
	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	cancel()
	return runErr
}

// waitForShutdown blocks until a signal arrives or a server stops on its own.
// A server error is returned so the process exits non-zero.
func waitForShutdown(quit <-chan os.Signal, serverErr <-chan error) error {
	select {
	case <-quit:
		return nil
	case err := <-serverErr:
		return err
	}
}
