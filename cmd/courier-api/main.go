// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courier/internal/config"
	httptransport "courier/internal/http"
	"courier/internal/infra"
	"courier/internal/maps"
	"courier/internal/modules/coupon"
	"courier/internal/modules/delivery"
	"courier/internal/modules/fare"
	"courier/internal/modules/ratecard"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	log := infra.NewLogger(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.WithError(err).Fatal("database init")
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	rateCardStore := ratecard.NewStore(dbPool)
	rateCardCache := ratecard.NewCache(redisClient, cfg.RateCard.CacheTTL)
	rateCardSvc := ratecard.NewService(rateCardStore, rateCardCache, log)

	couponStore := coupon.NewStore(dbPool)
	couponSvc := coupon.NewService(couponStore, couponStore, log)

	calc := fare.NewCalculator(log)

	var distances delivery.Distances
	if cfg.Maps.APIKey != "" {
		ds, err := maps.NewDistanceService(cfg.Maps.APIKey)
		if err != nil {
			log.WithError(err).Fatal("maps init")
		}
		distances = ds
	}

	deliveryStore := delivery.NewStore(dbPool)
	deliverySvc := delivery.NewService(deliveryStore, rateCardSvc, couponSvc, distances, calc)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Delivery:  deliverySvc,
		Coupons:   couponSvc,
		RateCards: rateCardSvc,
		Log:       log,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", cfg.HTTP.Addr).Info("listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server")
	}
}
