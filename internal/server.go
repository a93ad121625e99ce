package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/anagoge/liftlog/internal/auth"
	"github.com/anagoge/liftlog/internal/avatars"
	"github.com/anagoge/liftlog/internal/config"
	"github.com/anagoge/liftlog/internal/db"
	"github.com/anagoge/liftlog/internal/exercises"
	"github.com/anagoge/liftlog/internal/leaderboard"
	"github.com/anagoge/liftlog/internal/middleware"
	"github.com/anagoge/liftlog/internal/strava"
	"github.com/anagoge/liftlog/internal/telemetry/metrics"
	"github.com/anagoge/liftlog/internal/templates"
	"github.com/anagoge/liftlog/internal/users"
	"github.com/anagoge/liftlog/internal/weekly"
	"github.com/anagoge/liftlog/internal/workouts"
	"github.com/anagoge/liftlog/pkg"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/coocood/freecache"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const leaderboardCacheSize = 10 * 1024 * 1024

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config       *config.Config
	dbPool       *pgxpool.Pool
	redisClient  *redis.Client
	authService  *auth.Service
	avatarsStore *avatars.DiskStore
	stravaClient *strava.Client

	leaderboardCache *freecache.Cache

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
}

type NewServerParams struct {
	Config             *config.Config
	VersionInfo        string
	RedisPassword      string
	StravaClientID     string
	StravaClientSecret string
	TracingEnabled     bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		TracingEnabled: params.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	if err := exercises.NewRepo(dbPool).Seed(ctx, exercises.DefaultCatalog); err != nil {
		log.Errorf("failed to seed exercise catalog: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	avatarsStore, err := avatars.NewDiskStore(params.Config.AvatarsRootPath)
	if err != nil {
		return nil, fmt.Errorf("new avatars disk store: %w", err)
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	return &Server{
		config:       params.Config,
		versionInfo:  params.VersionInfo,
		dbPool:       dbPool,
		redisClient:  rdb,
		authService:  auth.NewService(auth.DefaultTTL, rdb),
		avatarsStore: avatarsStore,
		stravaClient: strava.NewClient(strava.NewClientParams{
			ClientID:     params.StravaClientID,
			ClientSecret: params.StravaClientSecret,
			RedirectURL:  params.Config.StravaRedirectURL,
			HTTPClient:   tracedHttpClient,
		}),

		leaderboardCache: freecache.NewCache(leaderboardCacheSize),

		metricsManager: metricsManager,
		promRegistry:   promRegistry,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, "liftlog backend")
	}).Methods("GET").Name("root")
	r.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET").Name("version")

	usersRepo := users.NewRepo(s.dbPool)
	exercisesRepo := exercises.NewRepo(s.dbPool)
	templatesRepo := templates.NewRepo(s.dbPool)

	usersHandler := users.NewHandler(usersRepo, s.authService, s.avatarsStore)
	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	authRouter := r.PathPrefix("/a").Subrouter()
	authRouter.Use(middleware.RateLimit(
		reqRateLimiter, "auth",
		s.config.LoginRateLimitAllowedPerMin,
		s.metricsManager,
	))
	authRouter.HandleFunc("/register", usersHandler.HandleRegister).Methods("POST", "OPTIONS").Name("register")
	authRouter.HandleFunc("/login", usersHandler.HandleLogin).Methods("POST", "OPTIONS").Name("login")
	authRouter.HandleFunc("/logout", usersHandler.HandleLogout).Methods("POST", "OPTIONS").Name("logout")

	r.HandleFunc("/profile", usersHandler.HandleGetProfile).Methods("GET", "OPTIONS").Name("get-profile")
	r.HandleFunc("/profile/avatar", usersHandler.HandleUploadAvatar).Methods("POST", "OPTIONS").Name("upload-avatar")
	r.HandleFunc("/profile/avatar", usersHandler.HandleGetAvatar).Methods("GET", "OPTIONS").Name("get-avatar")

	exercisesHandler := exercises.NewHandler(exercisesRepo, usersRepo)
	r.HandleFunc("/exercises", exercisesHandler.HandleList).Methods("GET", "OPTIONS").Name("list-exercises")
	r.HandleFunc("/exercises", exercisesHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-exercise")

	workoutsHandler := workouts.NewHandler(workouts.NewRepo(s.dbPool), s.metricsManager)
	r.HandleFunc("/workouts", workoutsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
	r.HandleFunc("/workouts", workoutsHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-workout")
	r.HandleFunc("/workouts/{id}", workoutsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-workout")
	r.HandleFunc("/workouts/{id}", workoutsHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-workout")
	r.HandleFunc("/workouts/{id}", workoutsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-workout")

	templatesHandler := templates.NewHandler(
		templates.NewService(templatesRepo, exercisesRepo),
	)
	r.HandleFunc("/templates", templatesHandler.HandleList).Methods("GET", "OPTIONS").Name("list-templates")
	r.HandleFunc("/templates", templatesHandler.HandleCreate).Methods("POST", "OPTIONS").Name("new-template")
	r.HandleFunc("/templates/load/{id}", templatesHandler.HandleGetView).Methods("GET", "OPTIONS").Name("load-template")
	r.HandleFunc("/templates/{id}", templatesHandler.HandleGetView).Methods("GET", "OPTIONS").Name("get-template")
	r.HandleFunc("/templates/{id}", templatesHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-template")
	r.HandleFunc("/templates/{id}", templatesHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-template")

	weeklyHandler := weekly.NewHandler(
		weekly.NewService(weekly.NewRepo(s.dbPool), templatesRepo, usersRepo),
	)
	r.HandleFunc("/weekly", weeklyHandler.HandleList).Methods("GET", "OPTIONS").Name("list-weeks")
	r.HandleFunc("/weekly", weeklyHandler.HandleCreate).Methods("POST", "OPTIONS").Name("new-week")
	r.HandleFunc("/weekly/today", weeklyHandler.HandleToday).Methods("GET", "OPTIONS").Name("todays-workout")
	r.HandleFunc("/weekly/{id}", weeklyHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-week")
	r.HandleFunc("/weekly/{id}", weeklyHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-week")
	r.HandleFunc("/weekly/{id}", weeklyHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-week")

	leaderboardHandler := leaderboard.NewHandler(
		leaderboard.NewRepo(s.dbPool),
		exercisesRepo,
		s.leaderboardCache,
	)
	r.HandleFunc("/leaderboard", leaderboardHandler.HandleGet).Methods("GET", "OPTIONS").Name("leaderboard")

	stravaHandler := strava.NewHandler(
		strava.NewService(s.stravaClient, strava.NewRepo(s.dbPool), s.metricsManager),
	)
	r.HandleFunc("/strava/connect", stravaHandler.HandleConnect).Methods("GET", "OPTIONS").Name("strava-connect")
	r.HandleFunc("/strava/callback", stravaHandler.HandleCallback).Methods("GET", "OPTIONS").Name("strava-callback")
	r.HandleFunc("/strava/sync", stravaHandler.HandleSync).Methods("POST", "OPTIONS").Name("strava-sync")
	r.HandleFunc("/strava/disconnect", stravaHandler.HandleDisconnect).Methods("POST", "OPTIONS").Name("strava-disconnect")
	r.HandleFunc("/strava/workouts", stravaHandler.HandleListWorkouts).Methods("GET", "OPTIONS").Name("strava-workouts")
	r.HandleFunc("/strava/status", stravaHandler.HandleStatus).Methods("GET", "OPTIONS").Name("strava-status")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.authService)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
