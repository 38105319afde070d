package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"brewtemp/internal/config"
	"brewtemp/internal/drd"
	"brewtemp/internal/handlers"
	"brewtemp/internal/hardware"
	"brewtemp/internal/logger"
	"brewtemp/internal/metrics"
	"brewtemp/internal/repository"
	"brewtemp/internal/repository/db"
	"brewtemp/internal/server"
	"brewtemp/internal/service"
	"brewtemp/internal/storage"
	"brewtemp/internal/telemetry"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(viper.New(), configFile())
	if err != nil {
		logger.Get(logger.ErrorLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.LogLevel)

	sqlDB, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DB.Path)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()
	repos := repository.NewRepository(sqlDB)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reason := detectBoot(ctx, repos, cfg.Device.DoubleReset, log)
	configMode := reason == drd.BootDoubleReset

	settings := service.NewSettingsService(storage.NewSettingsStore(afero.NewOsFs(), cfg.Storage.MountPoint, cfg.Device.ConfigFilePath))
	fileState := loadSettings(settings, log)

	board := hardware.NewBoard(cfg.Device, hardware.NewMemoryGPIO(), cfg.Simulator.AmbientC)
	plant := service.NewPlant(cfg.Device, board)
	services := service.NewService(repos, plant, settings, cfg)

	boot := service.BootInfo{
		Reason:     string(reason),
		FileState:  fileState.String(),
		ConfigMode: configMode,
		Revision:   cfg.Device.Revision.String(),
	}
	if err := services.Device.Boot(ctx, boot); err != nil {
		log.Fatalw("failed to record boot", "err", err)
	}
	log.Infow("device_booted", "reason", reason, "revision", boot.Revision, "settings_file", boot.FileState)

	go services.Simulator.Run(ctx, cfg.Simulator.Tick)

	m := metrics.New(services.Monitoring)
	if configMode {
		log.Warnw("setup_mode", "ap_ssid", cfg.Device.AP.SSID, "ap_password", cfg.Device.AP.Password,
			"port", cfg.Device.HTTPPort)
	} else if ts := startTelemetry(ctx, cfg, services, settings, repos, log); ts != nil {
		m.TrackTelemetryFailures(ts.Failures)
	}

	apiHandler := handlers.NewHandler(services, log, boot).WithMetrics(m)
	srv := &server.Server{}
	go func() {
		if err := srv.Run(strconv.Itoa(cfg.Device.HTTPPort), apiHandler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
	log.Infow("http_listening", "port", cfg.Device.HTTPPort)

	<-ctx.Done()
	log.Infow("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
	board.AllOff()
}

func configFile() string {
	if f := os.Getenv("CONFIG_FILE"); f != "" {
		return f
	}
	return config.DefaultFile
}

// detectBoot checks for a double reset and clears the flag once the window
// has passed.
func detectBoot(ctx context.Context, repos *repository.Repository, cfg config.DoubleResetConfig, log *logger.Logger) drd.BootReason {
	det := drd.NewDetector(repos.RTC, cfg)
	reason, err := det.Detect(ctx)
	if err != nil {
		log.Errorw("double_reset_detect_failed", "err", err)
	}
	time.AfterFunc(cfg.Timeout, func() {
		if err := det.Stop(context.Background()); err != nil {
			log.Errorw("double_reset_stop_failed", "err", err)
		}
	})
	return reason
}

func loadSettings(settings *service.SettingsService, log *logger.Logger) config.FileState {
	state, err := settings.Load()
	switch {
	case errors.Is(err, storage.ErrNotMounted):
		log.Errorw("settings_fs_not_mounted", "err", err)
	case err != nil:
		log.Errorw("settings_load_failed", "state", state, "err", err)
	case state != config.FileOK:
		log.Infow("settings_defaults_used", "state", state)
	default:
		log.Infow("settings_loaded")
	}
	return state
}

func startTelemetry(ctx context.Context, cfg *config.Config, services *service.Service, settings *service.SettingsService,
	repos *repository.Repository, log *logger.Logger) *service.TelemetryService {
	tcfg := cfg.Device.Telemetry
	cur := settings.Current()

	var tr telemetry.Transport
	switch cfg.Transport.Kind {
	case config.TransportMQTT:
		mt := telemetry.NewMQTTTransport(telemetry.NewMQTTClient(tcfg, cfg.Transport.MQTTPort, cur.Token), cfg.Transport.Timeout)
		if err := mt.Connect(ctx); err != nil {
			log.Errorw("mqtt_connect_failed", "err", err, "host", tcfg.Host)
			return nil
		}
		if err := mt.Subscribe(ctx, cur.DeviceLabel, tcfg.Labels.Controls()); err != nil {
			log.Errorw("mqtt_subscribe_failed", "err", err)
		}
		tr = mt
	default:
		tr = telemetry.NewHTTPTransport(telemetry.BaseURL(tcfg), cur.Token, cfg.Transport.Timeout)
	}

	ts := service.NewTelemetryService(tr, tcfg, services.Device, services.Monitoring, repos.EventRepo)
	interval := cfg.Simulator.Tick * time.Duration(cfg.Device.Timing.MeasurementSubintervals)
	go func() {
		defer func() { _ = tr.Close() }()
		ts.Run(ctx, interval, func(err error) {
			log.Warnw("telemetry_cycle_failed", "err", err, "failures", ts.Failures())
		})
	}()
	log.Infow("telemetry_started", "transport", cfg.Transport.Kind, "host", tcfg.Host, "interval", interval)
	return ts
}
