package config

import (
	"os"
	"strconv"
)

// Settings carries the bidding policy knobs consumed by the engine.
type Settings struct {
	BlockSellerBidding      bool    // sellers may not bid on their own listings
	PreventDuplicateHighest bool    // the current highest bidder may not bid again
	MaxBidLimit             float64 // 0 = no ceiling on submitted amounts
	AntiSnipingMinutes      int     // 0 = no deadline extension
	MaxDeadlineExtensions   int     // 0 = unlimited cumulative extensions
}

// LoadSettings reads the bidding policy from the environment.
func LoadSettings() Settings {
	return Settings{
		BlockSellerBidding:      GetEnvBool("BLOCK_SELLER_BIDDING", true),
		PreventDuplicateHighest: GetEnvBool("PREVENT_DUPLICATE_HIGHEST", false),
		MaxBidLimit:             GetEnvFloat("MAX_BID_LIMIT", 0),
		AntiSnipingMinutes:      GetEnvInt("ANTI_SNIPING_MINUTES", 0),
		MaxDeadlineExtensions:   GetEnvInt("MAX_DEADLINE_EXTENSIONS", 0),
	}
}

// GetEnv returns the environment variable or a fallback default.
func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetEnvInt returns the environment variable parsed as int, or the fallback.
func GetEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// GetEnvFloat returns the environment variable parsed as float64, or the fallback.
func GetEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// GetEnvBool returns the environment variable parsed as bool, or the fallback.
func GetEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
