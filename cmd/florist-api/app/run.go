package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/maua/florist-api/configs"
	"github.com/maua/florist-api/internal/adapter/cache"
	"github.com/maua/florist-api/internal/adapter/http"
	"github.com/maua/florist-api/internal/adapter/http/middleware"
	"github.com/maua/florist-api/internal/adapter/kafka"
	"github.com/maua/florist-api/internal/adapter/pawapay"
	"github.com/maua/florist-api/internal/adapter/queue"
	"github.com/maua/florist-api/internal/adapter/repo"
	"github.com/maua/florist-api/internal/logging"
	"github.com/maua/florist-api/internal/security"
	"github.com/maua/florist-api/internal/usecase"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Router *gin.Engine
}

// InitWithConfig wires every adapter. Background consumers stop when ctx is
// cancelled; cleanup closes the connections.
func InitWithConfig(ctx context.Context, cfg configs.Config) (*App, func(), error) {
	log := logging.New("bootstrap")
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() { _ = db.Close() })
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fail(fmt.Errorf("mysql ping: %w", err))
	}

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	closers = append(closers, func() { _ = rdb.Close() })
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return fail(fmt.Errorf("redis ping: %w", err))
	}

	// infra
	orderRepo := repo.NewMySQLOrderRepo(db)
	productRepo := repo.NewMySQLProductRepo(db)
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	statusCache := cache.NewRedisCache(rdb, cfg.Cache.TTL)

	// init rabbitmq: publisher + staff notifier. Events are optional.
	var events usecase.EventPublisher
	if cfg.Rabbit.URL != "" {
		producer, closeRabbit, err := setupQueue(ctx, cfg)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, closeRabbit)
		events = producer
	} else {
		log.Warn("rabbitmq.url empty, order events are not published")
	}

	// use cases
	ordersUC := usecase.NewOrders(orderRepo, statusCache)
	createUC := usecase.NewCreateOrder(orderRepo, productRepo, idem, events)
	initiateUC := usecase.NewInitiatePayment(orderRepo, statusCache, idem, pawapay.NewClient(cfg), cfg.PawaPay.Currency)
	reconcileUC := usecase.NewReconcileDeposits(orderRepo, statusCache, events)

	// register kafka-listener
	if len(cfg.Kafka.Brokers) > 0 {
		closeKafka, err := setupKafkaListener(ctx, cfg, ordersUC)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, closeKafka)
	}

	// webhook signature key
	key, err := security.LoadWebhookKey(cfg)
	if err != nil {
		return fail(err)
	}
	var signer security.CryptoService
	if key != nil {
		if signer, err = security.NewCryptoService(key); err != nil {
			return fail(err)
		}
	}

	// init handlers + routers + middleware
	router := http.NewRouter(http.Handlers{
		Orders:   http.NewOrderHandler(createUC, ordersUC),
		Products: http.NewProductHandler(usecase.NewCatalog(productRepo)),
		Payments: http.NewPaymentHandler(initiateUC, cfg.PawaPay.Timeout+5*time.Second),
		Webhooks: http.NewWebhookHandler(reconcileUC, cfg.PawaPay.WebhookTimeout),
		Tokens:   http.NewTokenHandler(cfg, security.NewClients(cfg)),
	}, middleware.NewAuthz(cfg), middleware.NewCryptoVerify(signer))

	log.Info("florist-api: started", "pawapay_configured", cfg.PawaPay.Token != "")
	return &App{Router: router}, cleanup, nil
}

func setupQueue(ctx context.Context, cfg configs.Config) (*queue.RabbitProducer, func(), error) {
	conn, err := amqp091.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	closeConn := func() { _ = conn.Close() }

	pubCh, err := conn.Channel()
	if err != nil {
		closeConn()
		return nil, nil, err
	}
	producer, err := queue.NewRabbitProducer(pubCh, cfg.Rabbit.Exchange)
	if err != nil {
		closeConn()
		return nil, nil, err
	}

	// consumers get their own channel; confirm mode is publisher-only
	subCh, err := conn.Channel()
	if err != nil {
		closeConn()
		return nil, nil, err
	}
	router := queue.NewRouter(subCh, queue.WithPrefetch(cfg.Rabbit.Prefetch))
	queue.NewStaffNotifier().Register(router)
	if err := router.Start(ctx); err != nil {
		closeConn()
		return nil, nil, err
	}
	return producer, closeConn, nil
}

func setupKafkaListener(ctx context.Context, cfg configs.Config, orders *usecase.Orders) (func(), error) {
	grp, err := kafka.NewGroup(cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka group: %w", err)
	}

	h := kafka.NewDeliveryConfirmedHandler(orders)
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.DeliveryTopic}, h.Handle)

	// Run in background until ctx is cancelled
	go func() {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			consumer.Logger.Error("kafka consumer stopped", "err", err)
		}
	}()
	return func() { _ = grp.Close() }, nil
}
