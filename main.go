package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"wedmatch_server/app"
	"wedmatch_server/config"
	"wedmatch_server/controllers"
	"wedmatch_server/logger"
	"wedmatch_server/metrics"
	"wedmatch_server/routes"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Initializing engine...", "backend", cfg.Store.Backend)
	a, err := app.Build(ctx, cfg, log, true)
	if err != nil {
		log.Fatal("failed to initialize engine", "error", err)
	}
	defer a.Close()

	base := controllers.Base{Log: log, Timeout: cfg.Server.RequestTimeout}
	ctrls := routes.Controllers{
		Interactions: &controllers.InteractionController{Base: base, InteractionService: a.Interactions},
		Matches:      &controllers.MatchController{Base: base, MatchService: a.Matches},
		Openings:     &controllers.OpeningController{Base: base, OpeningService: a.Openings},
		Cohorts:      &controllers.CohortController{Base: base, Generator: a.Generator},
	}
	if a.Archive != nil {
		ctrls.Cohorts.Archive = a.Archive
	}

	// Initialize the router
	r := mux.NewRouter()
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	if a.Socket != nil {
		r.PathPrefix("/socket.io/").Handler(a.Socket.Handler())
	}
	api := r.NewRoute().Subrouter()
	api.Use(routes.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst).Middleware)
	routes.RegisterRoutes(api, ctrls)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if a.Socket != nil {
		g.Go(func() error {
			if err := a.Socket.Serve(); err != nil && gctx.Err() == nil {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		log.Info("🚀 Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		if a.Socket != nil {
			_ = a.Socket.Close()
		}
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
	}
}
