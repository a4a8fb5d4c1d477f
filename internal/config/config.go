package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time provides duration types for TTL settings
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  HoldTTL is the single timeout authority
// for seat holds; no other component invents its own expiry.
type Config struct {
	Env               string        // application environment (e.g. "dev", "prod")
	Port              string        // HTTP port to listen on
	DBUser            string        // database username
	DBPass            string        // database password (optional)
	DBHost            string        // database host address
	DBPort            string        // database port number
	DBName            string        // database name
	JWTSecret         string        // secret used to sign checkout session tokens
	SessionTTLMin     int           // checkout session token time-to-live in minutes
	WebhookSecret     string        // shared secret for gateway webhook signatures
	RabbitURL         string        // AMQP broker URL for the receipt queue (optional)
	CurrencyID        string        // ISO currency code for all amounts
	TicketPriceCents  int64         // base ticket price in cents for the seeded catalog
	HoldTTL           time.Duration // seat hold time-to-live
	SweepInterval     time.Duration // cadence of the hold sweeper and stale-pending canceller
	GatewayPendingTTL time.Duration // how long a gateway transaction may stay PENDING
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:               must("APP_ENV"),                  // environment (dev/test/prod)
		Port:              must("APP_PORT"),                 // port to bind the HTTP server
		DBUser:            must("DB_USER"),                  // database user
		DBPass:            os.Getenv("DB_PASS"),             // database password (empty allowed)
		DBHost:            must("DB_HOST"),                  // database host
		DBPort:            must("DB_PORT"),                  // database port
		DBName:            must("DB_NAME"),                  // database name
		JWTSecret:         must("JWT_SECRET"),               // secret for session token signing
		SessionTTLMin:     mustInt("SESSION_TOKEN_TTL_MIN"), // TTL for session tokens in minutes
		WebhookSecret:     must("GATEWAY_WEBHOOK_SECRET"),   // shared secret for webhook HMAC
		RabbitURL:         os.Getenv("RABBITMQ_URL"),        // broker URL (publisher falls back to localhost)
		CurrencyID:        envStr("CURRENCY_ID", "ARS"),
		TicketPriceCents:  envInt64("TICKET_PRICE_CENTS", 500000),
		HoldTTL:           envDur("HOLD_TTL", 5*time.Minute),
		SweepInterval:     envDur("SWEEP_INTERVAL", 15*time.Second),
		GatewayPendingTTL: envDur("GATEWAY_PENDING_TTL", 30*time.Minute),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// envInt64 reads an optional int64 variable, falling back to a default.
func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
