package main

import (
	"log"

	"okusuri/backend/internal/config"
	"okusuri/backend/internal/db"
	"okusuri/backend/internal/handler"
	"okusuri/backend/internal/logger"
	"okusuri/backend/internal/notify"
	"okusuri/backend/internal/push"
	"okusuri/backend/internal/reminder"
	"okusuri/backend/internal/repository"
	"okusuri/backend/internal/router"
	"okusuri/backend/internal/service"
	"okusuri/backend/internal/speech"
)

func main() {
	cfg := config.Load()

	zapLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer zapLogger.Sync()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(database)
	medicationRepo := repository.NewMedicationRepository(database)
	contactRepo := repository.NewContactRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)

	// Push is a capability, not a requirement: without a broker the
	// orchestrator simply skips scheduling.
	var pushChannel push.Channel
	if cfg.MQTTBroker != "" {
		mqttChannel, err := push.NewMQTTChannel(push.MQTTOptions{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		}, zapLogger)
		if err != nil {
			log.Fatalf("connect push channel: %v", err)
		}
		defer mqttChannel.Close()
		pushChannel = mqttChannel
	} else {
		zapLogger.Info("push channel disabled, no MQTT broker configured")
	}

	voiceQueue := speech.NewQueue(speech.NewLogSynthesizer(zapLogger), cfg.SpeechSettle, zapLogger)
	dispatcher := notify.NewDispatcher(
		notify.NewSMSSender(zapLogger),
		notify.NewEmailSender(cfg.EmailRelayURL),
		zapLogger,
	)

	timing := reminder.Timing{
		InactivityWindow: cfg.InactivityWindow,
		PostponeDelay:    cfg.PostponeDelay,
		SnoozeDelay:      reminder.DefaultTiming().SnoozeDelay,
	}

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	medicationService := service.NewMedicationService(medicationRepo, zapLogger)
	reminderService := service.NewReminderService(
		medicationService,
		medicationRepo,
		contactRepo,
		dispatcher,
		voiceQueue,
		pushChannel,
		timing,
		zapLogger,
	)
	onboardingService := service.NewOnboardingService(settingsRepo, contactRepo, zapLogger)

	authHandler := handler.NewAuthHandler(authService)
	medicationHandler := handler.NewMedicationHandler(medicationService)
	reminderHandler := handler.NewReminderHandler(reminderService)
	onboardingHandler := handler.NewOnboardingHandler(onboardingService)

	engine := router.New(
		authService,
		authHandler,
		medicationHandler,
		reminderHandler,
		onboardingHandler,
		cfg.CORSOrigins,
	)
	log.Printf("backend listening on :%s", cfg.Port)
	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
