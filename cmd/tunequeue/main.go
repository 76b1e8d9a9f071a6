package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/glebovdev/tunequeue/internal/api"
	"github.com/glebovdev/tunequeue/internal/cache"
	"github.com/glebovdev/tunequeue/internal/config"
	"github.com/glebovdev/tunequeue/internal/playback"
	"github.com/glebovdev/tunequeue/internal/player"
	"github.com/glebovdev/tunequeue/internal/service"
	"github.com/glebovdev/tunequeue/internal/settingsync"
	"github.com/glebovdev/tunequeue/internal/store"
	"github.com/glebovdev/tunequeue/internal/ui"
)

var (
	app = kingpin.New(config.AppName, config.AppDescription)

	debugFlag     = app.Flag("debug", "Enable debug logging").Bool()
	randomFlag    = app.Flag("random", "Start with a random track selected").Bool()
	configDirFlag = app.Flag("config-dir", "Directory for config and state files").String()
	apiURLFlag    = app.Flag("api-url", "Catalog API base URL").Envar(config.EnvAPIURL).String()

	playCmd    = app.Command("play", "Start the player (default)").Default()
	versionCmd = app.Command("version", "Show version information")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case versionCmd.FullCommand():
		fmt.Printf("%s v%s\n", config.AppName, config.AppVersion)
		fmt.Println(config.AppDescription)
		return
	case playCmd.FullCommand():
		os.Exit(run())
	}
}

func setupLogging() {
	if !*debugFlag {
		// Avoid TUI corruption by only logging errors to /dev/null
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		logFile, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0644)
		if err == nil {
			log.Logger = log.Output(logFile)
		}
		return
	}

	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	cacheDir, err := cache.GetCacheDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not get cache dir: %v\n", err)
		cacheDir = os.TempDir()
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log dir: %v\n", err)
	}
	logPath := filepath.Join(cacheDir, "debug.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log file: %v\n", err)
		logFile = os.Stderr
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: logFile, TimeFormat: "15:04:05"})
	fmt.Printf("Debug log: %s\n", logPath)
	log.Info().Msgf("Starting %s v%s (debug mode)", config.AppName, config.AppVersion)
}

func run() int {
	if *configDirFlag != "" {
		config.SetDir(*configDirFlag)
	}

	setupLogging()

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
	}
	if *apiURLFlag != "" {
		cfg.API.BaseURL = *apiURLFlag
	}
	if cfg.EnsureDeviceID() {
		if err := cfg.Save(); err != nil {
			log.Warn().Err(err).Msg("Failed to save device id")
		}
	}

	if configPath, err := config.GetConfigPath(); err == nil {
		log.Debug().Msgf("Config: %s", configPath)
	}

	client := api.NewClient(api.Options{
		BaseURL:  cfg.API.BaseURL,
		Token:    cfg.API.Token,
		DeviceID: cfg.DeviceID,
		Timeout:  cfg.API.Timeout(),
	})

	opts := playback.Options{
		RestartThreshold: cfg.Playback.RestartThreshold(),
		LoadTimeout:      cfg.Playback.LoadTimeout(),
		SeedRandomTrack:  *randomFlag,
		Volume:           cfg.Volume,
		Muted:            cfg.Muted,
		Shuffle:          cfg.Shuffle,
		Loop:             cfg.Loop,
	}

	if st, err := store.Open(); err != nil {
		log.Warn().Err(err).Msg("Playback state will not be persisted")
	} else {
		log.Debug().Msgf("State: %s", st.Path())
		opts.Store = st
	}

	var syncer *settingsync.Syncer
	if cfg.Sync.Enabled {
		syncer = settingsync.New(client, cfg.Sync.Debounce(), nil)
		opts.Settings = syncer
	}

	controller := playback.NewController(player.NewEngine(), opts)
	catalog := service.NewCatalogService(client)
	tui := ui.NewUI(controller, catalog, cfg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, cleaning up...")
		tui.Shutdown()
	}()

	log.Info().Msg("Starting UI...")

	uiDone := make(chan error, 1)

	// Run UI in a goroutine so we can handle signals properly
	go func() {
		uiDone <- tui.Run()
	}()

	exitCode := 0
	if err := <-uiDone; err != nil {
		log.Error().Err(err).Msg("Error running UI")
		exitCode = 1
	}

	// Close stops the engine and records the final listening time
	controller.Close()
	if syncer != nil {
		syncer.Close()
	}

	log.Info().Msgf("%s stopped", config.AppTitle)
	return exitCode
}
