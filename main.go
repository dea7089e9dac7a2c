package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-review/client"
	"github.com/nijaru/yt-review/config"
	"github.com/nijaru/yt-review/db"
	"github.com/nijaru/yt-review/handlers"
	"github.com/nijaru/yt-review/logger"
	"github.com/nijaru/yt-review/middleware"
	"github.com/nijaru/yt-review/player"
	"github.com/nijaru/yt-review/speech"
	"github.com/nijaru/yt-review/view"
)

func main() {
	cfg := config.LoadConfig()
	if err := config.ValidateConfig(cfg); err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	logCloser, err := logger.Setup(logger.Config{Dir: cfg.LogDir, Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to set up logging")
	}
	defer logCloser.Close()

	source, closeSource, err := openSource(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open video source")
	}
	defer closeSource()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Process-wide resources shared by every view.
	var (
		engine   speech.Engine
		resolver *speech.VoiceResolver
	)
	if e := speech.NewExecEngine(ctx, cfg.SpeechCommand); e.Available() {
		engine = e
		resolver = speech.NewVoiceResolver(ctx, engine, speech.VoicePreference{
			Name:   cfg.SpeechVoiceName,
			Lang:   cfg.SpeechVoiceLang,
			Vendor: cfg.SpeechVoiceVendor,
		}, cfg.SpeechVoiceTimeout)
	} else {
		logrus.WithField("command", cfg.SpeechCommand).Warn("Speech synthesizer not found, speech disabled")
	}

	host := player.NewMPVHost(cfg.PlayerCommand, cfg.PlayerSocket)
	defer host.Shutdown()
	if host.ScriptPresent() && !host.APIReady() {
		logrus.WithField("socket", cfg.PlayerSocket).Warn("Removing stale player socket")
		os.Remove(cfg.PlayerSocket)
	}
	loader := player.NewScriptLoader(ctx, host, player.LoaderConfig{PollInterval: cfg.PlayerPollInterval})
	playerOpts := player.DefaultOptions(cfg.PlayerOrigin)

	newDetail := func() *view.Detail {
		binder := player.NewBinder(host, loader, playerOpts)
		binder.MountHandle().Attach(player.NewSlotMount("mpv"))
		return view.NewDetail(binder, speech.New(engine, resolver), view.Options{AutoSeek: cfg.AutoSeekOnSpeech})
	}

	h := handlers.New(source, newDetail, cfg.APITimeout)
	defer h.Close()

	server := &http.Server{
		Addr: ":" + cfg.ServerPort,
		Handler: middleware.Chain(h.Routes(),
			middleware.RequestID,
			middleware.LoggingMiddleware,
			middleware.Recovery,
			middleware.RateLimit(cfg.RateLimit, cfg.RateLimitInterval),
		),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logrus.WithField("port", cfg.ServerPort).Info("Listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatalf("Could not listen on :%s", cfg.ServerPort)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop

	logrus.Info("Shutting down the server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
}

func openSource(cfg *config.Config) (handlers.VideoSource, func(), error) {
	if cfg.VideoSource == config.SourceAPI {
		logrus.WithField("url", cfg.APIURL).Info("Reading videos from the backend API")
		c := client.New(client.Config{
			BaseURL:      cfg.APIURL,
			Timeout:      cfg.APITimeout,
			RateLimit:    cfg.RateLimit,
			RateInterval: cfg.RateLimitInterval,
		})
		return c, func() {}, nil
	}

	store, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close database")
		}
	}, nil
}
