// internal/config/config.go
//
// Runtime configuration, read from the environment.
// A `.env` file in the working directory is loaded first when present;
// real environment variables win over it.
//
// Environment variables (defaults in brackets):
//   PORT [5175]                 HTTP listen port
//   LOG_LEVEL [info]            zerolog level
//   CONSOLE_LOG [false]         human-readable logs instead of JSON
//   DB_PATH [./data/codebreaker.db]  scoreboard database; empty disables it
//   JWT_SECRET [dev_secret_change_me]
//   TOKEN_TTL_HOURS [24]
//   CLIENT_ORIGIN [http://localhost:5173]
//   ROUND_SECONDS [60]
//   BUFFER_CAPACITY [10]
//   INSERT_POLICY [shift]       shift | overwrite | splice
//   TRACE_DELAY_MS [150]        pause between animated search probes
//   RATE_PER_SECOND [10]        command rate per client
//   RATE_BURST [20]
//   ALLOW_FIXED_SECRET [false]  lets POST /sessions choose the secret
//   COOKIE_SECURE [false]       Secure + SameSite=None token cookie (HTTPS)

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/robalobadob/codebreaker/internal/board"
)

const defaultSecret = "dev_secret_change_me"

// Config bundles every tunable of the server.
type Config struct {
	Port             string
	LogLevel         string
	ConsoleLog       bool
	DBPath           string
	JWTSecret        string
	TokenTTL         time.Duration
	ClientOrigin     string
	Round            time.Duration
	Capacity         int
	Policy           board.Policy
	TraceDelay       time.Duration
	RatePerSecond    float64
	RateBurst        int
	AllowFixedSecret bool
	SecureCookies    bool
}

// Load reads .env (if any) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() (Config, error) {
	policy, err := board.ParsePolicy(getEnv("INSERT_POLICY", string(board.PolicyShift)))
	if err != nil {
		return Config{}, err
	}

	c := Config{
		Port:             getEnv("PORT", "5175"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		ConsoleLog:       envBool("CONSOLE_LOG", false),
		DBPath:           os.Getenv("DB_PATH"),
		JWTSecret:        getEnv("JWT_SECRET", defaultSecret),
		TokenTTL:         time.Duration(envInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		ClientOrigin:     getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		Round:            time.Duration(envInt("ROUND_SECONDS", 60)) * time.Second,
		Capacity:         envInt("BUFFER_CAPACITY", board.DefaultCapacity),
		Policy:           policy,
		TraceDelay:       time.Duration(envInt("TRACE_DELAY_MS", 150)) * time.Millisecond,
		RatePerSecond:    envFloat("RATE_PER_SECOND", 10),
		RateBurst:        envInt("RATE_BURST", 20),
		AllowFixedSecret: envBool("ALLOW_FIXED_SECRET", false),
		SecureCookies:    envBool("COOKIE_SECURE", false),
	}
	if _, set := os.LookupEnv("DB_PATH"); !set {
		c.DBPath = "./data/codebreaker.db"
	}
	return c, c.Validate()
}

// Validate rejects values the game cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Round < time.Second:
		return fmt.Errorf("ROUND_SECONDS must be at least 1")
	case c.Capacity < 1:
		return fmt.Errorf("BUFFER_CAPACITY must be at least 1")
	case c.TraceDelay < 0:
		return fmt.Errorf("TRACE_DELAY_MS must not be negative")
	case c.RatePerSecond <= 0 || c.RateBurst < 1:
		return fmt.Errorf("RATE_PER_SECOND and RATE_BURST must be positive")
	}
	return nil
}

// DefaultJWTSecret reports whether the development secret is in use.
func (c Config) DefaultJWTSecret() bool { return c.JWTSecret == defaultSecret }

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil {
		return f
	}
	return def
}

func envBool(k string, def bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}
