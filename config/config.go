package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	MaxRetries       int

	PagesToScrape     int
	ListingsPerPage   int
	MinRecordsPerPage int
	DelayMin          time.Duration
	DelayMax          time.Duration
	RequestTimeout    time.Duration
	PageLoadWait      time.Duration

	Fetcher       string
	BaseURL       string
	SiteOrigin    string
	SiteDomain    string
	DealType      string
	OfferType     string
	Region        string
	EngineVersion string

	CSVOutputPath string
	SelectorsFile string
	ChromeBin     string
	LogLevel      string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "realty_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),

		PagesToScrape:     getEnvInt("PAGES_TO_SCRAPE", 2),
		ListingsPerPage:   getEnvInt("LISTINGS_PER_PAGE", 8),
		MinRecordsPerPage: getEnvInt("MIN_RECORDS_PER_PAGE", 1),
		DelayMin:          getEnvDuration("DELAY_MIN", 4*time.Second),
		DelayMax:          getEnvDuration("DELAY_MAX", 5*time.Second),
		RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
		PageLoadWait:      getEnvDuration("PAGE_LOAD_WAIT", 5*time.Second),

		Fetcher:       strings.ToLower(getEnv("FETCHER", "http")),
		BaseURL:       getEnv("BASE_URL", "https://www.cian.ru/cat.php"),
		SiteOrigin:    getEnv("SITE_ORIGIN", "https://www.cian.ru"),
		SiteDomain:    getEnv("SITE_DOMAIN", "cian.ru"),
		DealType:      getEnv("DEAL_TYPE", "sale"),
		OfferType:     getEnv("OFFER_TYPE", "flat"),
		Region:        getEnv("REGION", "1"),
		EngineVersion: getEnv("ENGINE_VERSION", "2"),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./data/raw/cian_moscow_raw.csv"),
		SelectorsFile: getEnv("SELECTORS_FILE", ""),
		ChromeBin:     getEnv("CHROME_BIN", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
