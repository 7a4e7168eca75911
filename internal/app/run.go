package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"greenhouse-server/internal/config"
	"greenhouse-server/internal/db"
	"greenhouse-server/internal/db/migrate"
	"greenhouse-server/internal/httpapi"
	"greenhouse-server/internal/modules/telemetry"
	"greenhouse-server/internal/modules/telemetry/client"
	"greenhouse-server/internal/modules/telemetry/repository"
	"greenhouse-server/internal/modules/telemetry/service"
	"greenhouse-server/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"staticDir", cfg.StaticDir,
		"telemetryURL", cfg.TelemetryURL,
		"pollInterval", cfg.PollInterval,
		"fetchTimeout", cfg.FetchTimeout,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)

	dbConn, err := db.Open(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(dbConn); err != nil {
		return err
	}

	var ok int
	err = dbConn.QueryRow(`SELECT 1`).Scan(&ok)
	if err != nil {
		return err
	}
	if ok != 1 {
		return errors.New("database connection failed")
	}
	slog.Info("database connection successful")

	cacheRepository := repository.NewRepository(dbConn)
	fetcher := client.New(cfg.TelemetryURL, cfg.FetchTimeout)

	var announcer service.Announcer
	var publisher *mqtt.Publisher
	if cfg.MQTTBroker != "" {
		publisher = mqtt.NewPublisher(cfg, slog.Default())
		// Short timeout for initial connect so a down broker does not block
		// startup; announcements stay off until auto-reconnect succeeds.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = publisher.Connect(connectCtx)
		connectCancel()
		if err != nil {
			slog.Warn("mqtt connection failed (continuing without announcements)", "error", err)
		}
		announcer = telemetry.NewAnnouncer(publisher)
	}

	synchronizer := service.NewSynchronizer(fetcher, cacheRepository, announcer, cfg.PollInterval, slog.Default())

	mux := httpapi.NewMux(dbConn, cfg.StaticDir)
	telemetry.RegisterFeature(mux, synchronizer)

	synchronizer.Start()

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		synchronizer.Stop()
		if publisher != nil {
			publisher.Disconnect()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("synchronizer stopping")
	synchronizer.Stop()

	if publisher != nil {
		slog.Info("mqtt disconnecting")
		publisher.Disconnect()
	}

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
