package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DBUrl     string
	JWTSecret string
	AppEnv    string

	SupabaseURL        string
	SupabaseBucket     string
	SupabaseServiceKey string

	ContactPolicy         string
	ContactBlockedMessage string

	AdminEmails []string

	MercadoPagoAccessToken string
	CheckoutSuccessURL     string
	CheckoutCancelURL      string

	FirebaseCredentialsFile string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	contactPolicy := strings.ToLower(getEnv("CONTACT_POLICY", "block"))
	switch contactPolicy {
	case "block", "redact", "ignore":
	default:
		return nil, fmt.Errorf("CONTACT_POLICY must be block, redact or ignore, got %q", contactPolicy)
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		DBUrl:     getEnv("DB_URL", ""),
		JWTSecret: jwtSecret,
		AppEnv:    normalizeEnv(getEnv("APP_ENV", "production")),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseBucket:     getEnv("SUPABASE_BUCKET", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),

		ContactPolicy:         contactPolicy,
		ContactBlockedMessage: getEnv("CONTACT_BLOCKED_MESSAGE", ""),

		AdminEmails: splitList(getEnv("ADMIN_EMAILS", "")),

		MercadoPagoAccessToken: getEnv("MERCADOPAGO_ACCESS_TOKEN", ""),
		CheckoutSuccessURL:     getEnv("CHECKOUT_SUCCESS_URL", ""),
		CheckoutCancelURL:      getEnv("CHECKOUT_CANCEL_URL", ""),

		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
