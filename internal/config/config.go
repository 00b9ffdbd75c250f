package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	AppId       string
	FSPath      string // Physical directory for uploaded enrollment documents

	// External dashboard credentials. Injected into the sync engine as a
	// dashsync.DashboardConfig; the engine itself never reads the environment.
	DashboardURL      string
	DashboardUsername string
	DashboardPassword string

	// SMTP settings for sync outcome notifications
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	NotifyFrom   string
	NotifyTo     string

	// Cron expression for the background retry of failed uploads.
	// Empty disables the scheduler.
	RetrySchedule string

	// Local admin login for the API
	AdminUser     string
	AdminPassword string

	// Production postgres used by the export CLI
	PostgresURI string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:      getEnv("DB_NAME", "byov"),
		SkipAuth:    getEnv("SKIP_AUTH", "false") == "true",
		Environment: getEnv("ENVIRONMENT", "development"),
		AppId:       getEnv("APP_ID", "byov-backend"),
		FSPath:      getEnv("FS_PATH", "./uploads"),

		DashboardURL:      getEnv("DASHBOARD_URL", "https://byovdashboard.replit.app"),
		DashboardUsername: getEnv("DASHBOARD_USERNAME", "admin"),
		DashboardPassword: getEnv("DASHBOARD_PASSWORD", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		NotifyFrom:   getEnv("NOTIFY_FROM", ""),
		NotifyTo:     getEnv("NOTIFY_TO", ""),

		RetrySchedule: getEnv("RETRY_SCHEDULE", ""),

		AdminUser:     getEnv("ADMIN_USER", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		PostgresURI: getEnv("POSTGRES_URI", ""),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
