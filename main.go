package main

import (
	"context"
	"os"
	"os/signal"
	"rhythmix/bot"
	"rhythmix/config"
	"rhythmix/health"
	"rhythmix/resolver"
	"rhythmix/resolver/ytdlp"
	"rhythmix/spotify"
	"rhythmix/youtube"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type MusicBot struct {
	Config *Configuration `yaml:"MusicBot" validate:"required"`
}

type Configuration struct {
	LogLevel log.Level               `yaml:"LogLevel" validate:"required" env:"LOG_LEVEL"`
	Bot      *bot.Configuration      `yaml:"Bot" validate:"required"`
	Resolver *resolver.Configuration `yaml:"Resolver" validate:"required"`
	Ytdlp    *ytdlp.Configuration    `yaml:"Ytdlp" validate:"required"`
	Youtube  *youtube.Configuration  `yaml:"Youtube" validate:"required"`
	Spotify  *spotify.Configuration  `yaml:"Spotify" validate:"required"`
	Health   *health.Configuration   `yaml:"Health" validate:"required"`
	// Help is the content of the help command, the list
	// of the commands is used when empty.
	Help string `yaml:"Help"`
}

// loadConfig loads the environment and the config from the provided
// yaml files into the Configuration object, panics on error
func loadConfig(configFiles []string, envFiles []string) *Configuration {
	if err := config.LoadEnvironment(envFiles...); err != nil {
		log.Panic(err)
	}
	var musicBot MusicBot
	err := config.LoadAndValidateConfiguration(configFiles, &musicBot)
	if err != nil {
		log.Panic(err)
	}
	return musicBot.Config
}

// initResolver creates the backends listed in the configuration
// and the resolver that chains them.
func initResolver(ctx context.Context, configuration *Configuration) *resolver.Resolver {
	backends := make([]resolver.Backend, 0, 2)
	for _, name := range configuration.Resolver.Backends {
		switch name {
		case "ytdlp":
			b := ytdlp.NewBackend(configuration.Ytdlp)
			if err := b.Init(ctx); err != nil {
				log.Panic(err)
			}
			backends = append(backends, b)
		case "youtube":
			backends = append(backends, youtube.NewYoutube(configuration.Youtube))
		}
	}
	var translator resolver.Translator
	if configuration.Resolver.EnableSpotify && configuration.Spotify.Enabled() {
		translator = spotify.NewTranslator(ctx, configuration.Spotify)
	}
	r, err := resolver.NewResolver(configuration.Resolver, translator, backends...)
	if err != nil {
		log.Panic(err)
	}
	return r
}

// run starts the bot and the health server and blocks until
// the bot is stopped. It returns true when a reboot was requested.
func run(configuration *Configuration) bool {
	log.SetLevel(configuration.LogLevel)
	started := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	shutdownSignal := make(chan os.Signal, 2)
	signal.Notify(shutdownSignal, syscall.SIGTERM, syscall.SIGINT)

	musicBot, err := bot.NewBot(
		ctx,
		configuration.Bot,
		initResolver(ctx, configuration),
		started,
		configuration.Help,
	)
	if err != nil {
		log.Panic(err)
	}
	var reboot atomic.Bool
	musicBot.OnReboot(func() {
		reboot.Store(true)
		cancel()
	})
	if err := musicBot.Init(); err != nil {
		log.Panic(err)
	}

	go func() {
		if err := health.NewServer(configuration.Health, started).Run(ctx); err != nil {
			log.Errorf("Health server stopped: %v", err)
		}
	}()

	go func() {
		// graceful shutdown
		select {
		case <-shutdownSignal:
			log.Println()
			log.Warn("Shutdown requested ...")
			cancel()
		case <-ctx.Done():
		}
		<-time.After(time.Second * 10)
		log.Fatal("Forced shutdown")
	}()

	if err := musicBot.Run(); err != nil {
		log.Error(err)
	}
	return reboot.Load()
}

func rootCmd() *cobra.Command {
	var configFiles string
	var envFiles string
	cmd := &cobra.Command{
		Use:     "rhythmix",
		Short:   "Discord music bot",
		Version: appVersion(),
		Run: func(cmd *cobra.Command, args []string) {
			configuration := loadConfig(
				strings.Split(configFiles, ","),
				strings.Split(envFiles, ","),
			)
			if !run(configuration) {
				log.Print("Clean Shutdown")
				return
			}
			log.Warn("Rebooting ...")
			executable, err := os.Executable()
			if err != nil {
				log.Fatal(err)
			}
			log.Fatal(syscall.Exec(executable, os.Args, os.Environ()))
		},
	}
	cmd.Flags().StringVar(&configFiles, "configFiles", "config.yaml", "Files with configuration")
	cmd.Flags().StringVar(&envFiles, "envFiles", ".env", "Files with environment variables")
	return cmd
}

func appVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi.Main.Version == "" {
		return "unknown"
	}
	return bi.Main.Version
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
