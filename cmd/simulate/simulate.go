package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/dexter-sinister/internal/bot"
	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

type plan struct {
	sizes     []int
	games     int
	roles     dexter.RoleToggles
	workers   int
	seed      int64
	stepLimit int
}

type job struct {
	players int
	seed    int64
}

// result is the outcome of one game.
type result struct {
	Players  int
	Winner   dexter.Faction
	Sniped   bool
	Stories  int
	Batches  int
	Stalled  bool
	Err      error
	Duration time.Duration
}

// sizeSummary aggregates results for one table size.
type sizeSummary struct {
	Players     int     `json:"players"`
	Games       int     `json:"games"`
	DexterWins  int     `json:"dexter_wins"`
	SinisterWin int     `json:"sinister_wins"`
	Snipes      int     `json:"snipes"`
	Stalled     int     `json:"stalled"`
	Failed      int     `json:"failed"`
	AvgStories  float64 `json:"avg_stories"`
	AvgBatches  float64 `json:"avg_batches"`
	DexterRate  float64 `json:"dexter_rate"`
	AvgDuration string  `json:"avg_duration"`
}

func runAll(ctx context.Context, p plan) []result {
	if p.workers < 1 {
		p.workers = 1
	}
	base := p.seed
	if base == 0 {
		base = time.Now().UnixNano()
	}

	jobs := make(chan job)
	out := make(chan result)
	var wg sync.WaitGroup
	for range p.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				out <- playOne(j, p.roles, p.stepLimit)
			}
		}()
	}
	go func() {
		defer close(jobs)
		n := int64(0)
		for _, size := range p.sizes {
			for range p.games {
				n++
				select {
				case jobs <- job{players: size, seed: base + n}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	go func() {
		wg.Wait()
		close(out)
	}()

	var results []result
	for r := range out {
		if r.Err != nil {
			log.Debug().Err(r.Err).Int("players", r.Players).Msg("Game failed")
		}
		results = append(results, r)
	}
	return results
}

// playOne seats n scripted players and drives the game to its end.
func playOne(j job, roles dexter.RoleToggles, limit int) result {
	start := time.Now()
	res := result{Players: j.players}

	g, err := dexter.NewGame(uuid.NewString(), "simulation", dexter.Settings{Capacity: j.players, Roles: roles})
	if err != nil {
		res.Err = err
		return res
	}
	for i := range j.players {
		p := dexter.Player{ID: fmt.Sprintf("bot-%d", i), Name: fmt.Sprintf("Bot %d", i+1), Kind: dexter.PlayerScripted}
		if err := g.AddPlayer(p); err != nil {
			res.Err = err
			return res
		}
	}
	rng := bot.NewRand(j.seed)
	if err := g.Start(g.Host(), rng); err != nil {
		res.Err = err
		return res
	}

	res.Batches, err = bot.NewDriver(bot.NewPolicy(rng)).Run(g, limit)
	res.Duration = time.Since(start)
	switch {
	case errors.Is(err, bot.ErrStepLimit):
		res.Stalled = true
		return res
	case err != nil:
		res.Err = err
		return res
	}

	winner, over := g.Winner()
	if !over {
		res.Stalled = true
		return res
	}
	res.Winner = winner
	for _, s := range g.StoryResults {
		if s != dexter.StoryUnresolved {
			res.Stories++
		}
	}
	res.Sniped = winner == dexter.FactionSinister && slices.ContainsFunc(g.Log, func(e dexter.LogEntry) bool {
		return e.Kind == "assassination"
	})
	return res
}

func summarize(results []result) []sizeSummary {
	by := make(map[int]*sizeSummary)
	durations := make(map[int]time.Duration)
	for _, r := range results {
		s, ok := by[r.Players]
		if !ok {
			s = &sizeSummary{Players: r.Players}
			by[r.Players] = s
		}
		s.Games++
		switch {
		case r.Err != nil:
			s.Failed++
			continue
		case r.Stalled:
			s.Stalled++
			continue
		}
		switch r.Winner {
		case dexter.FactionDexter:
			s.DexterWins++
		case dexter.FactionSinister:
			s.SinisterWin++
		}
		if r.Sniped {
			s.Snipes++
		}
		s.AvgStories += float64(r.Stories)
		s.AvgBatches += float64(r.Batches)
		durations[r.Players] += r.Duration
	}

	out := make([]sizeSummary, 0, len(by))
	for _, s := range by {
		if done := s.DexterWins + s.SinisterWin; done > 0 {
			s.AvgStories /= float64(done)
			s.AvgBatches /= float64(done)
			s.DexterRate = float64(s.DexterWins) / float64(done)
			s.AvgDuration = (durations[s.Players] / time.Duration(done)).String()
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Players < out[j].Players })
	return out
}

func renderTable(w io.Writer, summary []sizeSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Scripted games by table size")
	t.AppendHeader(table.Row{"Players", "Games", "Dexter", "Sinister", "Snipes", "Dexter %", "Avg stories", "Stalled", "Failed", "Avg time"})
	for _, s := range summary {
		t.AppendRow(table.Row{
			s.Players, s.Games, s.DexterWins, s.SinisterWin, s.Snipes,
			fmt.Sprintf("%.1f", 100*s.DexterRate), fmt.Sprintf("%.2f", s.AvgStories),
			s.Stalled, s.Failed, s.AvgDuration,
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Style().Title.Align = text.AlignCenter
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	t.Render()
}

// parsePlayerCounts accepts "7", "5-10" or "5,7,9".
func parsePlayerCounts(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid player count %q", part)
		}
		b := a
		if isRange {
			if b, err = strconv.Atoi(hi); err != nil || b < a {
				return nil, fmt.Errorf("invalid player range %q", part)
			}
		}
		for n := a; n <= b; n++ {
			if n < dexter.MinPlayers || n > dexter.MaxPlayers {
				return nil, fmt.Errorf("player count %d outside %d-%d", n, dexter.MinPlayers, dexter.MaxPlayers)
			}
			if !slices.Contains(out, n) {
				out = append(out, n)
			}
		}
	}
	slices.Sort(out)
	return out, nil
}

// parseRoles turns a comma-separated role list into toggles. "none" or an
// empty list enables no optional roles.
func parseRoles(s string) (dexter.RoleToggles, error) {
	var t dexter.RoleToggles
	for _, name := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "", "none":
		case "duke":
			t.Duke = true
		case "support-manager", "support_manager":
			t.SupportManager = true
		case "sniper":
			t.Sniper = true
		case "nerlin":
			t.Nerlin = true
		case "dev-slayer", "dev_slayer":
			t.DevSlayer = true
		default:
			return t, fmt.Errorf("unknown role %q", name)
		}
	}
	return t, nil
}
