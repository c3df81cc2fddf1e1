package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"wordrush/crypto"

	"github.com/joho/godotenv"
)

var (
	ErrMissingVariable = errors.New("missing-environment-variable")
	ErrInvalidVariable = errors.New("invalid-environment-variable")
)

type Config struct {
	Port           string
	LogLevel       string
	AllowedOrigins []string
	PostgresURL    string
	RedisURL       string
	JWTKey         string
	ContentDir     string
	DefaultPack    string
	Game           GameConfig
}

// GameConfig holds the tunables of rooms and rounds.
type GameConfig struct {
	MaxRounds     int
	MinPlayers    int
	MaxPlayers    int
	RoundDuration time.Duration
	RevealDelay   time.Duration
}

func DefaultGameConfig() GameConfig {
	return GameConfig{
		MaxRounds:     5,
		MinPlayers:    2,
		MaxPlayers:    5,
		RoundDuration: 30 * time.Second,
		RevealDelay:   3 * time.Second,
	}
}

// Argon2id parameters used for password hashing. Memory is in KB.
var Argon2id = crypto.HashParams{
	Time:       1,
	Memory:     1024 * 64,
	Threads:    2,
	KeyLen:     32,
	SaltLength: 16,
}

var JWTCookie = struct {
	Name     string
	MaxAge   int
	Path     string
	Domain   string
	Secure   bool
	HttpOnly bool
}{
	Name:     "token",
	MaxAge:   3600 * 24 * 365,
	Path:     "/",
	Domain:   "",
	Secure:   true,
	HttpOnly: true,
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:        getOr("PORT", "8080"),
		LogLevel:    getOr("LOG_LEVEL", "info"),
		RedisURL:    os.Getenv("REDIS_URL"),
		ContentDir:  os.Getenv("CONTENT_DIR"),
		DefaultPack: getOr("DEFAULT_PACK", "general"),
		Game:        DefaultGameConfig(),
	}

	var err error
	origins, err := required("ALLOWED_ORIGINS")
	if err != nil {
		return Config{}, err
	}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if cfg.PostgresURL, err = required("POSTGRES_URL"); err != nil {
		return Config{}, err
	}
	if cfg.JWTKey, err = required("JWT_KEY"); err != nil {
		return Config{}, err
	}

	if cfg.Game.MaxRounds, err = positiveInt("MAX_ROUNDS", cfg.Game.MaxRounds); err != nil {
		return Config{}, err
	}
	if cfg.Game.MinPlayers, err = positiveInt("MIN_PLAYERS", cfg.Game.MinPlayers); err != nil {
		return Config{}, err
	}
	if cfg.Game.MaxPlayers, err = positiveInt("MAX_PLAYERS", cfg.Game.MaxPlayers); err != nil {
		return Config{}, err
	}
	if cfg.Game.MaxPlayers < cfg.Game.MinPlayers {
		return Config{}, fmt.Errorf("%w: MAX_PLAYERS below MIN_PLAYERS", ErrInvalidVariable)
	}

	roundSeconds, err := positiveInt("ROUND_SECONDS", int(cfg.Game.RoundDuration/time.Second))
	if err != nil {
		return Config{}, err
	}
	revealSeconds, err := positiveInt("REVEAL_SECONDS", int(cfg.Game.RevealDelay/time.Second))
	if err != nil {
		return Config{}, err
	}
	cfg.Game.RoundDuration = time.Duration(roundSeconds) * time.Second
	cfg.Game.RevealDelay = time.Duration(revealSeconds) * time.Second

	return cfg, nil
}

func getOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func required(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingVariable, key)
	}
	return v, nil
}

func positiveInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidVariable, key, v)
	}
	return n, nil
}
