package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nvimer/plaet-kitchen/internal/adapter/logger"
	"github.com/nvimer/plaet-kitchen/internal/adapter/orderapi"
	"github.com/nvimer/plaet-kitchen/internal/adapter/postgres"
	"github.com/nvimer/plaet-kitchen/internal/adapter/rabbitmq"
	"github.com/nvimer/plaet-kitchen/internal/app/board"
	"github.com/nvimer/plaet-kitchen/internal/app/notification"
	"github.com/nvimer/plaet-kitchen/internal/app/order"
	"github.com/nvimer/plaet-kitchen/internal/app/terminal"
	"github.com/nvimer/plaet-kitchen/internal/app/tracking"
	"github.com/nvimer/plaet-kitchen/internal/config"
	"github.com/nvimer/plaet-kitchen/internal/domain"

	amqpAdapter "github.com/nvimer/plaet-kitchen/internal/adapter/amqp"
	httpAdapter "github.com/nvimer/plaet-kitchen/internal/adapter/http"
)

func main() {
	// Parse command-line flags
	mode := flag.String("mode", "", "Service mode: order-service, kitchen-board, notification-subscriber")
	port := flag.Int("port", 3000, "HTTP port")
	terminalName := flag.String("terminal-name", "", "Terminal name (for kitchen-board)")
	viewportWidth := flag.Int("viewport-width", 1280, "Viewport width for displays that do not send one (for kitchen-board)")
	prefetch := flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	configPath := flag.String("config", "config.yaml", "Path to the yaml config file")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lgr := logger.NewWithOutput(*mode, os.Stdout, cfg.Log.Level)

	switch *mode {
	case "order-service":
		runOrderService(ctx, cfg, lgr, *port)

	case "kitchen-board":
		if *terminalName == "" {
			log.Fatal("--terminal-name is required for kitchen-board mode")
		}
		runKitchenBoard(ctx, cfg, lgr, *terminalName, *port, *viewportWidth)

	case "notification-subscriber":
		runNotificationSubscriber(ctx, cfg, lgr, *prefetch)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func connectPostgres(ctx context.Context, cfg *config.Config, lgr logger.Logger, name string) postgres.DB {
	db, err := postgres.Connect(ctx, cfg.Database, name)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})
	return db
}

func connectRabbitMQ(cfg *config.Config, lgr logger.Logger, name string) rabbitmq.Connection {
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ, name)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})
	return mqConn
}

func newServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// serve runs server until ctx ends, then calls each shutdown step in order.
// It returns once the server has drained.
func serve(ctx context.Context, server *http.Server, lgr logger.Logger, name string, beforeClose ...func(context.Context) error) {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()

		lgr.Info("shutdown_initiated", fmt.Sprintf("Shutting down %s", name), "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		for _, step := range beforeClose {
			if err := step(shutdownCtx); err != nil {
				lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
			}
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
		return
	}
	<-drained
}

func runOrderService(ctx context.Context, cfg *config.Config, lgr logger.Logger, port int) {
	db := connectPostgres(ctx, cfg, lgr, "order-service")
	defer db.Close()
	mqConn := connectRabbitMQ(cfg, lgr, "order-service")
	defer mqConn.Close()

	clock := clockwork.NewRealClock()

	// Initialize repositories
	orderRepo := postgres.NewOrderRepository(db)
	terminalRepo := postgres.NewTerminalRepository(db)

	// Initialize services
	orderService := order.NewService(orderRepo, rabbitmq.NewPublisher(mqConn), lgr, clock)
	trackingService := tracking.NewService(orderRepo, terminalRepo, lgr, clock, cfg.Board.HeartbeatInterval)

	handler := httpAdapter.NewRouter(lgr,
		httpAdapter.NewOrderHandler(orderService, lgr),
		httpAdapter.NewTrackingHandler(trackingService, lgr),
	)

	lgr.Info("service_started", fmt.Sprintf("Order Service started on port %d", port), "startup", map[string]interface{}{
		"port": port,
	})

	serve(ctx, newServer(port, handler), lgr, "Order Service")
}

func runKitchenBoard(ctx context.Context, cfg *config.Config, lgr logger.Logger, terminalName string, port, viewportWidth int) {
	name := "kitchen-board/" + terminalName
	db := connectPostgres(ctx, cfg, lgr, name)
	defer db.Close()
	mqConn := connectRabbitMQ(cfg, lgr, name)
	defer mqConn.Close()

	clock := clockwork.NewRealClock()

	terminalService := terminal.NewService(postgres.NewTerminalRepository(db), lgr, clock, terminalName, cfg.Board.HeartbeatInterval)
	if err := terminalService.Start(ctx); err != nil {
		log.Fatalf("Failed to start kitchen board: %v", err)
	}

	source := orderapi.NewClient(cfg.OrderService.BaseURL, cfg.OrderService.Timeout).WithTerminal(terminalName).WithLogger(lgr)
	notifier := notification.NewNotifier(rabbitmq.NewPublisher(mqConn), terminalService, lgr, clock, terminalName)

	boardHandler := httpAdapter.NewBoardHandler(source, notifier, lgr, board.Options{
		Categories:     domain.NewCategoryConfig(cfg.Kitchen.ProteinCategoryIDs, cfg.Kitchen.ExtraCategoryIDs),
		PollInterval:   cfg.Board.PollInterval,
		RenderInterval: cfg.Board.RenderInterval,
		Thresholds:     board.Thresholds{Warning: cfg.Board.WarningAfter, Urgent: cfg.Board.UrgentAfter},
		Swipe:          board.SwipeConfig{Threshold: cfg.Board.SwipeThreshold, Max: cfg.Board.MaxSwipe},
		Breakpoint:     cfg.Board.MobileBreakpoint,
		Clock:          clock,
	}, viewportWidth, terminalName)

	lgr.Info("service_started", fmt.Sprintf("Kitchen Board %s started on port %d", terminalName, port), "startup", map[string]interface{}{
		"terminal_name": terminalName,
		"port":          port,
		"order_service": cfg.OrderService.BaseURL,
		"poll_interval": cfg.Board.PollInterval.String(),
	})

	serve(ctx, newServer(port, httpAdapter.NewRouter(lgr, boardHandler)), lgr, "Kitchen Board", boardHandler.Shutdown)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := terminalService.Shutdown(shutdownCtx); err != nil {
		lgr.Error("shutdown_error", "Failed to mark terminal offline", "shutdown", nil, err)
	}
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, lgr logger.Logger, prefetch int) {
	mqConn := connectRabbitMQ(cfg, lgr, "notification-subscriber")
	defer mqConn.Close()

	consumer := rabbitmq.NewConsumer(mqConn, prefetch, lgr)
	notificationHandler := amqpAdapter.NewNotificationHandler(lgr, os.Stdout)

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

	if err := consumer.ConsumeNotifications(ctx, notificationHandler.HandleNotification); err != nil && ctx.Err() == nil {
		lgr.Error("consumer_error", "Error consuming notifications", "runtime", nil, err)
	}

	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
}
