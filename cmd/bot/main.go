package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/dexter-sinister/internal/bot"
	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

func main() {
	url := flag.String("url", "http://localhost:3009", "server base URL")
	players := flag.Int("players", 5, "remote seats, each logged in as its own user")
	scripted := flag.Int("scripted", 0, "server-side scripted seats added by the host")
	seed := flag.Int64("seed", time.Now().UnixNano(), "seed for the seats' decisions")
	sniper := flag.Bool("sniper", false, "include the Sniper")
	timeout := flag.Duration("timeout", 10*time.Minute, "give up after this long")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	roles := dexter.DefaultRoleToggles()
	roles.Sniper = *sniper

	orch := bot.NewOrchestrator(bot.TableConfig{
		BaseURL:  *url,
		Players:  *players,
		Scripted: *scripted,
		Roles:    roles,
		Seed:     *seed,
		Timeout:  *timeout,
	})
	if _, err := orch.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Bot orchestrator failed")
	}
	log.Info().Msg("Bot game completed successfully")
}
