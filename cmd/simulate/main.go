// Command simulate plays games between scripted players only and reports
// win rates by table size.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	numGames  int
	playerArg string
	rolesArg  string
	workers   int
	seed      int64
	stepLimit int
	jsonOut   bool
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play scripted-only games and report win rates",
	Long: `simulate seats scripted players at tables of the requested sizes,
plays each game to the end and prints how often each faction won.`,
	Example: `  simulate -n 500 --players 5-10
  simulate -n 200 --players 7 --roles duke,sniper,nerlin --json`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		level := zerolog.WarnLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

		sizes, err := parsePlayerCounts(playerArg)
		if err != nil {
			return err
		}
		roles, err := parseRoles(rolesArg)
		if err != nil {
			return err
		}
		if numGames < 1 {
			return fmt.Errorf("--games must be at least 1")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		results := runAll(ctx, plan{
			sizes:     sizes,
			games:     numGames,
			roles:     roles,
			workers:   workers,
			seed:      seed,
			stepLimit: stepLimit,
		})
		summary := summarize(results)

		if jsonOut {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		}
		renderTable(cmd.OutOrStdout(), summary)
		return nil
	},
}

func init() {
	rootCmd.Flags().IntVarP(&numGames, "games", "n", 100, "games per table size")
	rootCmd.Flags().StringVarP(&playerArg, "players", "p", "5-10", "table sizes: a number, a range (5-10) or a list (5,7,9)")
	rootCmd.Flags().StringVar(&rolesArg, "roles", "duke", "comma-separated optional roles: duke, support-manager, sniper, nerlin, dev-slayer")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 4, "games played in parallel")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "base seed (0 = random)")
	rootCmd.Flags().IntVar(&stepLimit, "step-limit", 2000, "scripted batches allowed per game before it counts as stalled")
	rootCmd.Flags().BoolVar(&jsonOut, "json", false, "print the summary as JSON")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every failed game")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
