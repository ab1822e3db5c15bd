package app

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	libredis "chargemap/libs/redis"

	"chargemap/internal/clients"
	"chargemap/internal/config"
	"chargemap/internal/filter"
	"chargemap/internal/flow"
	httpserver "chargemap/internal/http"
	"chargemap/internal/http/handlers"
	"chargemap/internal/http/middleware"
	"chargemap/internal/live"
	"chargemap/internal/models"
	"chargemap/internal/query"
	"chargemap/internal/refresh"
	"chargemap/internal/resstore"
	wshub "chargemap/internal/ws"
)

// Event broadcast to local UI clients when caches are invalidated.
const eventInvalidate = "invalidate"

// Event broadcast when a subscribed station list was re-fetched.
const eventStationsUpdated = "stations-updated"

// App wires the chargemap daemon's dependency graph.
type App struct {
	server      *httpserver.Server
	channel     *live.Channel
	hub         *wshub.Hub
	sweeper     *refresh.Sweeper
	store       *query.Store
	redisClient *redis.Client
	logger      *zap.Logger

	mu          sync.Mutex
	unsubscribe func()
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	backend := clients.NewBackend(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger)
	store := query.NewStore(backend, query.StoreConfig{
		StationsTTL: cfg.Cache.StationsTTL,
		PointsTTL:   cfg.Cache.PointsTTL,
	}, logger)
	filters := filter.NewModel()
	hub := wshub.NewHub(logger)

	var reservations resstore.Store
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		client, err := libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			store.Close()
			return nil, err
		}
		redisClient = client
		reservations = resstore.NewRedisStore(client)
	} else {
		reservations = resstore.NewMemoryStore()
	}

	a := &App{
		hub:         hub,
		store:       store,
		redisClient: redisClient,
		logger:      logger,
	}

	invalidate := func() {
		store.InvalidateAll()
		hub.Broadcast(eventInvalidate)
	}

	a.channel = live.NewChannel(cfg.Backend.SocketURL, cfg.Live.Reconnect, func(string) {
		invalidate()
	}, logger)

	recordReservation := func(ack models.ReservationAck, email string, minutes int) {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := reservations.Save(ctx, resstore.FromAck(ack, email, minutes)); err != nil {
			logger.Warn("failed to record reservation", zap.Int64("point_id", ack.PointID), zap.Error(err))
		}
		invalidate()
	}

	flowCtrl := flow.NewController(backend, store, func(s flow.Summary) {
		recordReservation(s.Ack, s.Email, s.Minutes)
	}, logger)

	// Keep an eager-refresh subscription on whichever predicate is active so
	// push invalidation and the staleness sweeper reach it; re-fetches ripple
	// out to connected UIs.
	filters.Subscribe(a.subscribeStations)
	a.subscribeStations(filters.Current())

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit.PerSecond), cfg.RateLimit.Burst)

	routes := httpserver.Routes{
		Stations:     handlers.NewStationsHandler(store, filters),
		Points:       handlers.NewPointsHandler(store),
		GetFilters:   handlers.NewGetFiltersHandler(filters),
		PutFilters:   handlers.NewPutFiltersHandler(filters),
		ResetFilters: handlers.NewResetFiltersHandler(filters),
		FlowState:    handlers.NewFlowStateHandler(flowCtrl),
		FlowOpen:     handlers.NewFlowOpenHandler(flowCtrl, store),
		FlowType:     handlers.NewFlowSelectTypeHandler(flowCtrl),
		FlowPoint:    handlers.NewFlowSelectPointHandler(flowCtrl),
		FlowForm:     handlers.NewFlowFormHandler(flowCtrl),
		FlowSubmit:   handlers.NewFlowSubmitHandler(flowCtrl),
		FlowBack:     handlers.NewFlowBackHandler(flowCtrl),
		FlowClose:    handlers.NewFlowCloseHandler(flowCtrl),
		EmailReserve: handlers.NewEmailReserveHandler(backend, recordReservation),
		Reserve:      handlers.NewReserveHandler(backend, recordReservation),
		Reservations: handlers.NewReservationsHandler(reservations),
		Health:       handlers.NewHealthHandler(func() string { return a.channel.State().String() }),
		Push:         hub.Handler(),
	}

	router := httpserver.NewRouter(routes, limiter.Wrap)
	a.server = httpserver.NewServer(cfg.HTTPAddress(), router, logger)
	a.sweeper = refresh.NewSweeper(store, cfg.Cache.Sweep, logger)

	return a, nil
}

// subscribeStations moves the station-list subscription to the given
// predicate, dropping the previous one.
func (a *App) subscribeStations(f models.Filters) {
	updates, cancel := a.store.SubscribeStations(f)

	a.mu.Lock()
	prev := a.unsubscribe
	a.unsubscribe = cancel
	a.mu.Unlock()
	if prev != nil {
		prev()
	}

	go func() {
		for range updates {
			a.hub.Broadcast(eventStationsUpdated)
		}
	}()
}

// Run starts the push channel, the sweeper, the UI hub and the HTTP facade,
// and blocks until ctx ends.
func (a *App) Run(ctx context.Context) error {
	go a.channel.Run(ctx)
	go a.hub.Run(ctx)
	go func() {
		if err := a.sweeper.Run(ctx); err != nil {
			a.logger.Warn("staleness sweeper failed", zap.Error(err))
		}
	}()

	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	a.mu.Lock()
	unsubscribe := a.unsubscribe
	a.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}

	a.store.Close()
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
