package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"
)

// PlayerConfig is one seat at the table: a display name and a prefixed model
// string ("openai/gpt-4o-mini", "claude/...", "ollama/...", or "random").
type PlayerConfig struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

// AppConfig holds all runner configuration.
// Priority (lowest → highest): defaults < env vars < JSON config file < CLI flags.
type AppConfig struct {
	// Run
	Game  string `json:"game"`  // clocktower | secrethitler | mafia | paranoia | liarsbar
	Games int    `json:"games"` // number of games to run back to back
	Seed  int64  `json:"seed"`  // 0 picks a fresh random seed per game

	// Table
	Players  []PlayerConfig `json:"players"`
	Computer string         `json:"computer"` // judge model for paranoia

	// Limits
	DecisionTimeoutSecs int `json:"decision_timeout_secs"`
	MaxRounds           int `json:"max_rounds"`
	BudgetMins          int `json:"budget_mins"`

	// Recording
	DB         string `json:"db"`         // sqlite connection string for the event store
	RecordDir  string `json:"record_dir"` // directory for per-game JSON record files
	Addr       string `json:"addr"`       // listen address for the live WebSocket feed, empty disables
	Transcript bool   `json:"transcript"` // print a public play-by-play to stdout

	// LLM providers
	OllamaURL   string `json:"ollama_url"`
	BaseURL     string `json:"base_url"` // openai-compatible server
	APIKey      string `json:"api_key"`  // openai-compatible server
	GroqAPIKey  string `json:"groq_api_key"`
	Temperature string `json:"temperature"` // float 0-1 as string
}

func defaultConfig() AppConfig {
	return AppConfig{
		Game:      "clocktower",
		Games:     1,
		DB:        "file::memory:?cache=shared",
		RecordDir: "records",
		OllamaURL: "http://localhost:11434",
	}
}

// loadConfig builds a config by layering: defaults → env vars → JSON config file.
// CLI flag overrides are applied separately by flagValues.applyTo after flag.Parse.
func loadConfig(configPath string) AppConfig {
	cfg := defaultConfig()

	envStr := os.Getenv
	envInt := func(key string) (int, bool) {
		v := os.Getenv(key)
		if v == "" {
			return 0, false
		}
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	envBool := func(key string) (val bool, set bool) {
		v := os.Getenv(key)
		if v == "" {
			return false, false
		}
		return v == "1" || v == "true" || v == "yes", true
	}

	if v := envStr("GAME"); v != "" {
		cfg.Game = v
	}
	if v, ok := envInt("GAMES"); ok {
		cfg.Games = v
	}
	if v, ok := envInt("SEED"); ok {
		cfg.Seed = int64(v)
	}
	if v := envStr("COMPUTER"); v != "" {
		cfg.Computer = v
	}
	if v, ok := envInt("DECISION_TIMEOUT_SECS"); ok {
		cfg.DecisionTimeoutSecs = v
	}
	if v, ok := envInt("MAX_ROUNDS"); ok {
		cfg.MaxRounds = v
	}
	if v, ok := envInt("BUDGET_MINS"); ok {
		cfg.BudgetMins = v
	}
	if v := envStr("DB"); v != "" {
		cfg.DB = v
	}
	if v := envStr("RECORD_DIR"); v != "" {
		cfg.RecordDir = v
	}
	if v := envStr("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v, ok := envBool("TRANSCRIPT"); ok {
		cfg.Transcript = v
	}
	if v := envStr("OLLAMA_URL"); v != "" {
		cfg.OllamaURL = v
	}
	if v := envStr("BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := envStr("API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := envStr("GROQ_API_KEY"); v != "" {
		cfg.GroqAPIKey = v
	}
	if v := envStr("TEMPERATURE"); v != "" {
		cfg.Temperature = v
	}

	// JSON config file — only fields present in the file override env vars
	if data, err := os.ReadFile(configPath); err == nil {
		var overlay map[string]json.RawMessage
		if err := json.Unmarshal(data, &overlay); err != nil {
			log.Printf("Config: failed to parse %s: %v", configPath, err)
		} else {
			applyJSONOverlay(&cfg, overlay)
			log.Printf("Config: loaded from %s", configPath)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("Config: failed to read %s: %v", configPath, err)
	}

	return cfg
}

// applyJSONOverlay only sets fields that are explicitly present in the JSON map.
func applyJSONOverlay(cfg *AppConfig, m map[string]json.RawMessage) {
	set := func(key string, dst any) {
		if v, ok := m[key]; ok {
			json.Unmarshal(v, dst)
		}
	}
	set("game", &cfg.Game)
	set("games", &cfg.Games)
	set("seed", &cfg.Seed)
	set("players", &cfg.Players)
	set("computer", &cfg.Computer)
	set("decision_timeout_secs", &cfg.DecisionTimeoutSecs)
	set("max_rounds", &cfg.MaxRounds)
	set("budget_mins", &cfg.BudgetMins)
	set("db", &cfg.DB)
	set("record_dir", &cfg.RecordDir)
	set("addr", &cfg.Addr)
	set("transcript", &cfg.Transcript)
	set("ollama_url", &cfg.OllamaURL)
	set("base_url", &cfg.BaseURL)
	set("api_key", &cfg.APIKey)
	set("groq_api_key", &cfg.GroqAPIKey)
	set("temperature", &cfg.Temperature)
}

// flagValues holds pointers to all registered CLI flags.
type flagValues struct {
	configPath  *string
	game        *string
	games       *int
	seed        *int64
	computer    *string
	timeoutSecs *int
	maxRounds   *int
	budgetMins  *int
	db          *string
	recordDir   *string
	addr        *string
	transcript  *bool
	ollamaURL   *string
	baseURL     *string
	apiKey      *string
	groqAPIKey  *string
	temperature *string
}

// registerFlags registers all CLI flags and returns pointers to their values.
// Call flag.Parse() after this, then applyTo to layer them over the loaded config.
func registerFlags() flagValues {
	return flagValues{
		configPath:  flag.String("config", "config.json", "path to JSON config file"),
		game:        flag.String("game", "", "game variant (clocktower|secrethitler|mafia|paranoia|liarsbar)"),
		games:       flag.Int("n", 0, "number of games to run"),
		seed:        flag.Int64("seed", 0, "RNG seed (0 picks a fresh seed per game)"),
		computer:    flag.String("computer", "", "judge model for paranoia"),
		timeoutSecs: flag.Int("decision-timeout", 0, "per-decision agent timeout in seconds"),
		maxRounds:   flag.Int("max-rounds", 0, "round cap before forced resolution"),
		budgetMins:  flag.Int("budget", 0, "wall-clock budget per game in minutes"),
		db:          flag.String("db", "", "sqlite connection string for the event store"),
		recordDir:   flag.String("records", "", "directory for per-game JSON record files"),
		addr:        flag.String("addr", "", "listen address for the live WebSocket feed"),
		transcript:  flag.Bool("transcript", false, "print a public play-by-play to stdout"),
		ollamaURL:   flag.String("ollama-url", "", "Ollama server URL"),
		baseURL:     flag.String("base-url", "", "base URL for the openai-compatible provider"),
		apiKey:      flag.String("api-key", "", "API key for the openai-compatible provider"),
		groqAPIKey:  flag.String("groq-api-key", "", "Groq API key"),
		temperature: flag.String("temperature", "", "sampling temperature 0-1"),
	}
}

// applyTo overlays any CLI flags that were explicitly set onto cfg.
// Flags that were not passed on the command line are ignored (env/JSON values win).
func (fv flagValues) applyTo(cfg *AppConfig) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "game":
			cfg.Game = *fv.game
		case "n":
			cfg.Games = *fv.games
		case "seed":
			cfg.Seed = *fv.seed
		case "computer":
			cfg.Computer = *fv.computer
		case "decision-timeout":
			cfg.DecisionTimeoutSecs = *fv.timeoutSecs
		case "max-rounds":
			cfg.MaxRounds = *fv.maxRounds
		case "budget":
			cfg.BudgetMins = *fv.budgetMins
		case "db":
			cfg.DB = *fv.db
		case "records":
			cfg.RecordDir = *fv.recordDir
		case "addr":
			cfg.Addr = *fv.addr
		case "transcript":
			cfg.Transcript = *fv.transcript
		case "ollama-url":
			cfg.OllamaURL = *fv.ollamaURL
		case "base-url":
			cfg.BaseURL = *fv.baseURL
		case "api-key":
			cfg.APIKey = *fv.apiKey
		case "groq-api-key":
			cfg.GroqAPIKey = *fv.groqAPIKey
		case "temperature":
			cfg.Temperature = *fv.temperature
		}
	})
}
