// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envListenAddr             = "LISTEN_ADDR"
	envPort                   = "PORT"
	envRPCURL                 = "HELIUS_RPC_URL"
	envXBearerToken           = "X_BEARER_TOKEN"
	envAxiomAccessToken       = "AXIOM_AUTH_ACCESS_TOKEN"
	envAxiomRefreshToken      = "AXIOM_AUTH_REFRESH_TOKEN"
	envAllowedOrigins         = "ALLOWED_ORIGINS"
	envTokenMint              = "TOKEN_MINT_ADDRESS"
	envRequiredTokenAmount    = "REQUIRED_TOKEN_AMOUNT"
	envRefreshSchedule        = "TOKEN_REFRESH_SCHEDULE"
	envRefreshLeeway          = "TOKEN_REFRESH_LEEWAY"
	envTrackedWalletsFallback = "TRACKED_WALLETS_FALLBACK"
	envPortfolioFallback      = "PORTFOLIO_FALLBACK"
	envAxiomAuthURL           = "AXIOM_AUTH_URL"
	envAxiomTradeURL          = "AXIOM_TRADE_URL"
	envAxiomPortfolioURL      = "AXIOM_PORTFOLIO_URL"
	envXAPIURL                = "X_API_URL"
	envPumpFunURL             = "PUMPFUN_API_URL"
	envChatURL                = "CHAT_API_URL"
	envRequestTimeout         = "REQUEST_TIMEOUT"
	envChatTimeout            = "CHAT_TIMEOUT"
	envInsecureSkipVerify     = "UPSTREAM_INSECURE"
	envLogLevel               = "LOG_LEVEL"
	envServerReadTimeout      = "SERVER_READ_TIMEOUT"
	envServerWriteTimeout     = "SERVER_WRITE_TIMEOUT"
	envServerIdleTimeout      = "SERVER_IDLE_TIMEOUT"
	envGracefulShutdown       = "GRACEFUL_SHUTDOWN"
	defaultPort               = "3000"
	defaultTokenMint          = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	defaultRefreshSchedule    = "@every 30s"
	defaultRefreshLeeway      = 60 * time.Second
	defaultAxiomAuthURL       = "https://api4.axiom.trade"
	defaultAxiomTradeURL      = "https://api4.axiom.trade"
	defaultAxiomPortfolioURL  = "https://api3.axiom.trade"
	defaultXAPIURL            = "https://api.x.com"
	defaultPumpFunURL         = "https://frontend-api-v3.pump.fun"
	defaultChatURL            = "https://boncatxbt.fun/api/chat"
	defaultRequestTimeout     = 30 * time.Second
	defaultChatTimeout        = 10 * time.Second
	defaultLogLevel           = "info"
	defaultServerReadTimeout  = 30 * time.Second
	defaultServerWriteTimeout = 60 * time.Second
	defaultServerIdleTimeout  = 120 * time.Second
	defaultGracefulShutdown   = 10 * time.Second
)

// DefaultAllowedOrigins is the CORS allow-list used when ALLOWED_ORIGINS is unset.
var DefaultAllowedOrigins = []string{
	"https://zonk.fyi",
	"http://localhost:3000",
	"http://localhost:5500",
}

// FallbackPolicy selects how a refresh-guarded endpoint answers once the
// upstream call has failed for good.
type FallbackPolicy string

const (
	// FallbackError surfaces a 500 with the failure details.
	FallbackError FallbackPolicy = "error"
	// FallbackMock answers 200 with a canned placeholder payload.
	FallbackMock FallbackPolicy = "mock"
)

// Upstreams holds the base URLs of every third-party API the service fronts.
type Upstreams struct {
	RPC            *url.URL
	AxiomAuth      *url.URL
	AxiomTrade     *url.URL
	AxiomPortfolio *url.URL
	XAPI           *url.URL
	PumpFun        *url.URL
	Chat           *url.URL
}

// Config captures runtime settings for the gateway.
type Config struct {
	ListenAddr              string
	Upstreams               Upstreams
	XBearerToken            string
	AxiomAccessToken        string
	AxiomRefreshToken       string
	AllowedOrigins          []string
	TokenMint               string
	RequiredTokenAmount     uint64
	RefreshSchedule         string
	RefreshLeeway           time.Duration
	TrackedWalletsFallback  FallbackPolicy
	PortfolioFallback       FallbackPolicy
	RequestTimeout          time.Duration
	ChatTimeout             time.Duration
	InsecureSkipVerify      bool
	LogLevel                string
	ServerReadTimeout       time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	GracefulShutdownTimeout time.Duration
}

// Load reads an optional .env file, then configuration from environment
// variables, and validates required values.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (Config, error) {
	rpcURL, err := requiredURL(envRPCURL)
	if err != nil {
		return Config{}, err
	}

	bearer := strings.TrimSpace(os.Getenv(envXBearerToken))
	if bearer == "" {
		return Config{}, errors.New("X_BEARER_TOKEN is required")
	}

	accessToken := strings.TrimSpace(os.Getenv(envAxiomAccessToken))
	refreshToken := strings.TrimSpace(os.Getenv(envAxiomRefreshToken))
	if accessToken == "" || refreshToken == "" {
		return Config{}, errors.New("AXIOM_AUTH_ACCESS_TOKEN and AXIOM_AUTH_REFRESH_TOKEN are required")
	}

	required, err := getUint(envRequiredTokenAmount, 0)
	if err != nil {
		return Config{}, err
	}

	trackedPolicy, err := getPolicy(envTrackedWalletsFallback, FallbackMock)
	if err != nil {
		return Config{}, err
	}
	portfolioPolicy, err := getPolicy(envPortfolioFallback, FallbackError)
	if err != nil {
		return Config{}, err
	}

	upstreams := Upstreams{RPC: rpcURL}
	for _, u := range []struct {
		dst      **url.URL
		key      string
		fallback string
	}{
		{&upstreams.AxiomAuth, envAxiomAuthURL, defaultAxiomAuthURL},
		{&upstreams.AxiomTrade, envAxiomTradeURL, defaultAxiomTradeURL},
		{&upstreams.AxiomPortfolio, envAxiomPortfolioURL, defaultAxiomPortfolioURL},
		{&upstreams.XAPI, envXAPIURL, defaultXAPIURL},
		{&upstreams.PumpFun, envPumpFunURL, defaultPumpFunURL},
		{&upstreams.Chat, envChatURL, defaultChatURL},
	} {
		parsed, err := parseAbsoluteURL(u.key, getString(u.key, u.fallback))
		if err != nil {
			return Config{}, err
		}
		*u.dst = parsed
	}

	cfg := Config{
		ListenAddr:              listenAddr(),
		Upstreams:               upstreams,
		XBearerToken:            bearer,
		AxiomAccessToken:        accessToken,
		AxiomRefreshToken:       refreshToken,
		AllowedOrigins:          getList(envAllowedOrigins, DefaultAllowedOrigins),
		TokenMint:               getString(envTokenMint, defaultTokenMint),
		RequiredTokenAmount:     required,
		RefreshSchedule:         getOptionalString(envRefreshSchedule, defaultRefreshSchedule),
		RefreshLeeway:           getDuration(envRefreshLeeway, defaultRefreshLeeway),
		TrackedWalletsFallback:  trackedPolicy,
		PortfolioFallback:       portfolioPolicy,
		RequestTimeout:          getDuration(envRequestTimeout, defaultRequestTimeout),
		ChatTimeout:             getDuration(envChatTimeout, defaultChatTimeout),
		InsecureSkipVerify:      getBool(envInsecureSkipVerify, false),
		LogLevel:                strings.ToLower(getString(envLogLevel, defaultLogLevel)),
		ServerReadTimeout:       getDuration(envServerReadTimeout, defaultServerReadTimeout),
		ServerWriteTimeout:      getDuration(envServerWriteTimeout, defaultServerWriteTimeout),
		ServerIdleTimeout:       getDuration(envServerIdleTimeout, defaultServerIdleTimeout),
		GracefulShutdownTimeout: getDuration(envGracefulShutdown, defaultGracefulShutdown),
	}

	return cfg, nil
}

// listenAddr prefers LISTEN_ADDR and otherwise binds all interfaces on PORT.
func listenAddr() string {
	if addr := strings.TrimSpace(os.Getenv(envListenAddr)); addr != "" {
		return addr
	}
	return ":" + getString(envPort, defaultPort)
}

func requiredURL(key string) (*url.URL, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil, fmt.Errorf("%s is required", key)
	}
	return parseAbsoluteURL(key, raw)
}

func parseAbsoluteURL(key, raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("%s must be absolute (scheme://host)", key)
	}
	return parsed, nil
}

func getString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// getOptionalString distinguishes an unset variable (fallback) from one set
// to the empty string (feature disabled).
func getOptionalString(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return strings.TrimSpace(val)
}

func getList(key string, fallback []string) []string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getBool(key string, fallback bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getUint(key string, fallback uint64) (uint64, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getPolicy(key string, fallback FallbackPolicy) (FallbackPolicy, error) {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch FallbackPolicy(val) {
	case "":
		return fallback, nil
	case FallbackError, FallbackMock:
		return FallbackPolicy(val), nil
	default:
		return "", fmt.Errorf("invalid %s %q: want %q or %q", key, val, FallbackError, FallbackMock)
	}
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
