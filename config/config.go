package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Site endpoints.
	BaseURL    string
	APIBaseURL string

	// Feed readiness. ContentSelector is the element the session waits for
	// before anything else; its timeout is the one fatal deadline.
	ContentSelector  string
	ContentTimeoutMs int

	// Scroll driver tunables. The stability and staleness signals run on
	// separate counters; these only set their thresholds.
	MaxScrolls     int
	SettleMs       int
	ExpandSettleMs int
	StableAfter    int
	TailWindow     int
	StaleLimit     int
	MinSample      int

	// Correlation and secondary lookups.
	NavBudgetMs     int
	NavPollMs       int
	APITimeoutMs    int
	APIRateMs       int
	DetailTimeoutMs int

	// Pacing between feeds and retry policy around each one.
	SubcategoryDelayMs int
	CategoryDelayMs    int
	MaxRetries         int

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	PostgresEnabled  bool

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	S3Bucket           string
	S3BasePath         string
	S3OfficesBasePath  string
	UploadImages       bool

	// Offices pipeline: keep listings published up to this many days back.
	FilterDaysBack int

	OutputDir      string
	RawCSVPath     string
	CategoriesPath string
	ChromeBin      string
	Debug          bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		BaseURL:    getEnv("BASE_URL", "https://www.boshamlan.com"),
		APIBaseURL: getEnv("API_BASE_URL", "https://api-v2.boshamlan.com"),

		ContentSelector:  getEnv("CONTENT_SELECTOR", "article, .relative.min-h-48"),
		ContentTimeoutMs: getEnvInt("CONTENT_TIMEOUT_MS", 60000),

		MaxScrolls:     getEnvInt("MAX_SCROLLS", 50),
		SettleMs:       getEnvInt("SETTLE_MS", 3000),
		ExpandSettleMs: getEnvInt("EXPAND_SETTLE_MS", 10000),
		StableAfter:    getEnvInt("STABLE_AFTER", 3),
		TailWindow:     getEnvInt("TAIL_WINDOW", 10),
		StaleLimit:     getEnvInt("STALE_LIMIT", 5),
		MinSample:      getEnvInt("MIN_SAMPLE", 3),

		NavBudgetMs:     getEnvInt("NAV_BUDGET_MS", 5000),
		NavPollMs:       getEnvInt("NAV_POLL_MS", 100),
		APITimeoutMs:    getEnvInt("API_TIMEOUT_MS", 10000),
		APIRateMs:       getEnvInt("API_RATE_MS", 500),
		DetailTimeoutMs: getEnvInt("DETAIL_TIMEOUT_MS", 10000),

		SubcategoryDelayMs: getEnvInt("SUBCATEGORY_DELAY_MS", 2000),
		CategoryDelayMs:    getEnvInt("CATEGORY_DELAY_MS", 3000),
		MaxRetries:         getEnvInt("MAX_RETRIES", 3),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "boshamlan_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3Bucket:           getEnv("S3_BUCKET", "data-collection-dl"),
		S3BasePath:         getEnv("S3_BASE_PATH", "boshamlan-data/properties"),
		S3OfficesBasePath:  getEnv("S3_OFFICES_BASE_PATH", "boshamlan-data/offices"),
		UploadImages:       getEnvBool("UPLOAD_IMAGES", true),

		FilterDaysBack: getEnvInt("FILTER_DAYS_BACK", 1),

		OutputDir:      getEnv("OUTPUT_DIR", "./scraped_data"),
		RawCSVPath:     getEnv("RAW_CSV_PATH", "./scraped_data/raw_records.csv"),
		CategoriesPath: getEnv("CATEGORIES_PATH", ""),
		ChromeBin:      getEnv("CHROME_BIN", ""),
		Debug:          getEnvBool("DEBUG", false),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
