package config

import (
	"crypto/rand"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration loaded from env.
type Config struct {
	Port                 string
	Env                  string
	DatabaseURL          string
	CacheFile            string
	CacheTTL             time.Duration
	RefreshCheckInterval time.Duration
	ValkeyAddr           string
	ValkeyPassword       string
	JustWatchCountry     string
	JustWatchLanguage    string
	SourceTimeout        time.Duration
	IncludeArchive       bool
	CursorSecret         []byte
	CORSAllowedOrigins   []string
}

func FromEnv() Config {
	c := Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("ENV", "development"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		CacheFile:            getEnv("CACHE_FILE", "data/catalog.json"),
		CacheTTL:             time.Duration(getEnvInt("CACHE_TTL_SECONDS", 21600)) * time.Second,
		RefreshCheckInterval: time.Duration(getEnvInt("REFRESH_CHECK_SECONDS", 300)) * time.Second,
		ValkeyAddr:           os.Getenv("VALKEY_ADDR"),
		ValkeyPassword:       os.Getenv("VALKEY_PASSWORD"),
		JustWatchCountry:     getEnv("JUSTWATCH_COUNTRY", "IN"),
		JustWatchLanguage:    getEnv("JUSTWATCH_LANGUAGE", "en"),
		SourceTimeout:        time.Duration(getEnvInt("SOURCE_TIMEOUT_SECONDS", 30)) * time.Second,
		IncludeArchive:       os.Getenv("INCLUDE_ARCHIVE") != "0",
	}
	if s := os.Getenv("CORS_ALLOWED_ORIGINS"); s != "" {
		for _, p := range strings.Split(s, ",") {
			if v := strings.TrimSpace(p); v != "" {
				c.CORSAllowedOrigins = append(c.CORSAllowedOrigins, v)
			}
		}
	}
	// cursor secret: raw bytes from env; if empty, generate ephemeral
	if s := os.Getenv("CURSOR_SECRET"); s != "" {
		c.CursorSecret = []byte(s)
	} else {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err == nil {
			c.CursorSecret = buf
		} else {
			log.Printf("warning: failed to generate cursor secret: %v", err)
			c.CursorSecret = []byte("insecure-default")
		}
	}
	return c
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("warning: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}
