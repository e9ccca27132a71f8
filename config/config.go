package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

var (
	TLS_DOMAINS           = ""             // e.g. "example.com,example2.com"
	MYSQL_DSN             = ""             // MySQL will be used if this is set
	SQLITE_FILE           = "tripwise.db"  // SQLite will be used if MYSQL_DSN is not configured
	BIND_ADDRESS          = "0.0.0.0:8080" //
	DEBUG_MODE            = true
	SESSION_KEY           = "this is a long key"
	SESSION_MAX_AGE       = 365 * 86400 // 1 year
	SPLASH_DELAY_MS       = 2000
	LOGIN_RATE_PER_MINUTE = 20 // per client IP, 0 disables the limiter
)

func init() {
	ReadEnv()
}

// ReadEnv overrides the current values with anything set in the environment.
func ReadEnv() {
	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvString("MYSQL_DSN", &MYSQL_DSN)
	readEnvString("SQLITE_FILE", &SQLITE_FILE)
	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvString("SESSION_KEY", &SESSION_KEY)
	readEnvInt("SESSION_MAX_AGE", &SESSION_MAX_AGE)
	readEnvInt("SPLASH_DELAY_MS", &SPLASH_DELAY_MS)
	readEnvInt("LOGIN_RATE_PER_MINUTE", &LOGIN_RATE_PER_MINUTE)
}

// SplashDelay is how long the splash screen stays up
func SplashDelay() time.Duration {
	return time.Duration(SPLASH_DELAY_MS) * time.Millisecond
}

type fileConfig struct {
	TLSDomains         *string `toml:"tls_domains"`
	MySQLDSN           *string `toml:"mysql_dsn"`
	SQLiteFile         *string `toml:"sqlite_file"`
	BindAddress        *string `toml:"bind_address"`
	DebugMode          *bool   `toml:"debug_mode"`
	SessionKey         *string `toml:"session_key"`
	SessionMaxAge      *int    `toml:"session_max_age"`
	SplashDelayMS      *int    `toml:"splash_delay_ms"`
	LoginRatePerMinute *int    `toml:"login_rate_per_minute"`
}

// LoadFile applies a TOML config file. Keys missing from the file keep their current value,
// environment variables should be re-applied afterwards with ReadEnv.
func LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return apply(data)
}

func apply(data []byte) error {
	fc := fileConfig{}
	if err := toml.Unmarshal(data, &fc); err != nil {
		return err
	}
	setString(fc.TLSDomains, &TLS_DOMAINS)
	setString(fc.MySQLDSN, &MYSQL_DSN)
	setString(fc.SQLiteFile, &SQLITE_FILE)
	setString(fc.BindAddress, &BIND_ADDRESS)
	if fc.DebugMode != nil {
		DEBUG_MODE = *fc.DebugMode
	}
	setString(fc.SessionKey, &SESSION_KEY)
	setInt(fc.SessionMaxAge, &SESSION_MAX_AGE)
	setInt(fc.SplashDelayMS, &SPLASH_DELAY_MS)
	setInt(fc.LoginRatePerMinute, &LOGIN_RATE_PER_MINUTE)
	return nil
}

func setString(v *string, value *string) {
	if v != nil {
		*value = *v
	}
}

func setInt(v *int, value *int) {
	if v != nil {
		*value = *v
	}
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = f
}
