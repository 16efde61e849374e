// Command liars-bar-llm-amongus runs tables of LLM players through social
// deduction games: Blood-on-the-Clocktower-style village nights, Secret
// Hitler elections, classic mafia, Paranoia missions, or rounds of the
// liar's bar card game. Every game is recorded to JSON, sqlite, and an
// optional live WebSocket feed.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/esha0612/liars-bar-llm-amongus/agent"
	"github.com/esha0612/liars-bar-llm-amongus/engine"
	"github.com/esha0612/liars-bar-llm-amongus/games/clocktower"
	"github.com/esha0612/liars-bar-llm-amongus/games/liarsbar"
	"github.com/esha0612/liars-bar-llm-amongus/games/mafia"
	"github.com/esha0612/liars-bar-llm-amongus/games/paranoia"
	"github.com/esha0612/liars-bar-llm-amongus/games/secrethitler"
	"github.com/esha0612/liars-bar-llm-amongus/record"
)

// defaultSeats is how many players each variant gets when the config does
// not list a roster.
var defaultSeats = map[string]int{
	"clocktower":   7,
	"secrethitler": 7,
	"mafia":        7,
	"paranoia":     6,
	"liarsbar":     4,
}

var defaultNames = []string{"Alice", "Bob", "Carol", "Dave", "Eve", "Frank", "Grace", "Heidi", "Ivan", "Judy"}

func main() {
	godotenv.Load()

	fv := registerFlags()
	flag.Parse()
	cfg := loadConfig(*fv.configPath)
	fv.applyTo(&cfg)

	// Log to both stdout and a file
	logFile, err := os.OpenFile("arena.log", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		log.Fatal("Failed to open log file:", err)
	}
	defer logFile.Close()
	log.SetOutput(io.MultiWriter(os.Stdout, logFile))

	if _, ok := defaultSeats[cfg.Game]; !ok {
		log.Fatalf("Unknown game %q (want clocktower|secrethitler|mafia|paranoia|liarsbar)", cfg.Game)
	}
	if cfg.Games < 1 {
		cfg.Games = 1
	}

	opts := llmOptions(cfg)

	seats, err := buildSeats(cfg, opts)
	if err != nil {
		log.Fatal("Failed to build players:", err)
	}

	// Recorders shared across games
	var shared engine.Multi
	var store *record.SQLiteRecorder
	if cfg.DB != "" {
		store, err = record.OpenSQLite(cfg.DB)
		if err != nil {
			log.Fatal("Failed to open event store:", err)
		}
		defer store.Close()
		shared = append(shared, store)
	}
	if cfg.Addr != "" {
		hub := record.NewHub()
		hub.Run()
		defer hub.Stop()
		shared = append(shared, hub)
		http.Handle("/ws", hub)
		go func() {
			log.Printf("Live feed on %s/ws", cfg.Addr)
			if err := http.ListenAndServe(cfg.Addr, nil); err != nil {
				log.Printf("Live feed stopped: %v", err)
			}
		}()
	}
	if cfg.Transcript {
		shared = append(shared, record.NewTranscript(os.Stdout))
	}

	ctx := context.Background()
	wins := make(map[string]int)
	for i := 0; i < cfg.Games; i++ {
		rec := shared
		if cfg.RecordDir != "" {
			fr, err := record.NewFileRecorder(cfg.RecordDir, cfg.Game)
			if err != nil {
				log.Fatal("Failed to create game record:", err)
			}
			rec = append(append(engine.Multi{}, shared...), fr)
			log.Printf("Game %d/%d: recording to %s", i+1, cfg.Games, fr.Path())
		}

		seed := cfg.Seed
		if seed != 0 {
			seed += int64(i)
		}
		winner, rounds, err := runOne(ctx, cfg, seats, rec, seed, opts)
		if err != nil {
			log.Printf("Game %d/%d failed: %v", i+1, cfg.Games, err)
			continue
		}
		wins[winner]++
		log.Printf("Game %d/%d: %s won after %d rounds", i+1, cfg.Games, winner, rounds)
	}

	log.Printf("Results over %d game(s):", cfg.Games)
	for who, n := range wins {
		log.Printf("  %s: %d", who, n)
	}
}

func llmOptions(cfg AppConfig) agent.Options {
	temp := 0.0
	if cfg.Temperature != "" {
		if t, err := strconv.ParseFloat(cfg.Temperature, 64); err == nil {
			temp = t
		} else {
			log.Printf("Ignoring bad temperature %q: %v", cfg.Temperature, err)
		}
	}
	return agent.Options{
		OllamaURL:   cfg.OllamaURL,
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		GroqAPIKey:  cfg.GroqAPIKey,
		Temperature: temp,
	}
}

// buildSeats turns the configured roster into engine seats, falling back to
// a table of random agents when no players are configured.
func buildSeats(cfg AppConfig, opts agent.Options) ([]engine.Seat, error) {
	players := cfg.Players
	if len(players) == 0 {
		n := defaultSeats[cfg.Game]
		for i := 0; i < n; i++ {
			players = append(players, PlayerConfig{Name: defaultNames[i], Model: "random"})
		}
	}

	seats := make([]engine.Seat, len(players))
	for i, p := range players {
		ag, err := buildAgent(p.Model, cfg.Seed+int64(i), opts)
		if err != nil {
			return nil, fmt.Errorf("player %s: %w", p.Name, err)
		}
		seats[i] = engine.Seat{Name: p.Name, Model: p.Model, Agent: ag}
	}
	return seats, nil
}

func buildAgent(model string, seed int64, opts agent.Options) (engine.Agent, error) {
	if model == "" || model == "random" {
		return agent.NewRandom(seed), nil
	}
	return agent.NewLLM(model, opts)
}

func runOne(ctx context.Context, cfg AppConfig, seats []engine.Seat, rec engine.Recorder, seed int64, opts agent.Options) (winner string, rounds int, err error) {
	timeout := time.Duration(cfg.DecisionTimeoutSecs) * time.Second
	budget := time.Duration(cfg.BudgetMins) * time.Minute

	switch cfg.Game {
	case "clocktower":
		g, err := clocktower.New(clocktower.Config{
			Seats: seats, Recorder: rec, Seed: seed,
			DecisionTimeout: timeout, MaxRounds: cfg.MaxRounds, Budget: budget,
		})
		if err != nil {
			return "", 0, err
		}
		res, err := g.Play(ctx)
		return res.Winner, res.Rounds, err
	case "secrethitler":
		g, err := secrethitler.New(secrethitler.Config{
			Seats: seats, Recorder: rec, Seed: seed,
			DecisionTimeout: timeout, MaxRounds: cfg.MaxRounds, Budget: budget,
		})
		if err != nil {
			return "", 0, err
		}
		res, err := g.Play(ctx)
		return res.Winner, res.Rounds, err
	case "mafia":
		g, err := mafia.New(mafia.Config{
			Seats: seats, Recorder: rec, Seed: seed,
			DecisionTimeout: timeout, MaxRounds: cfg.MaxRounds, Budget: budget,
		})
		if err != nil {
			return "", 0, err
		}
		res, err := g.Play(ctx)
		return res.Winner, res.Rounds, err
	case "paranoia":
		judge, err := buildAgent(cfg.Computer, seed+1000, opts)
		if err != nil {
			return "", 0, fmt.Errorf("computer: %w", err)
		}
		g, err := paranoia.New(paranoia.Config{
			Seats: seats, Computer: judge, Recorder: rec, Seed: seed,
			DecisionTimeout: timeout, MaxRounds: cfg.MaxRounds, Budget: budget,
		})
		if err != nil {
			return "", 0, err
		}
		res, err := g.Play(ctx)
		return res.Winner, res.Rounds, err
	case "liarsbar":
		g, err := liarsbar.New(liarsbar.Config{
			Seats: seats, Recorder: rec, Seed: seed,
			DecisionTimeout: timeout, MaxRounds: cfg.MaxRounds, Budget: budget,
		})
		if err != nil {
			return "", 0, err
		}
		res, err := g.Play(ctx)
		return res.Winner, res.Rounds, err
	}
	return "", 0, fmt.Errorf("unknown game %q", cfg.Game)
}
