package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	LogFile      string
	MaxUploadMB  int

	// каталог
	CatalogFile string // стартовый снапшот, пусто = ждать /catalog/refresh

	// каскад
	Workers            int
	FuzzyNameThreshold float64
	FuzzyNameCeiling   float64
	FuzzySkuMaxDist    int
	MinConfidenceAuto  int
	ProposalMinConf    int

	// semantic/LLM коллаборатор
	SemanticURL        string
	SemanticAPIKey     string
	SemanticTimeout    time.Duration
	SemanticRPS        float64
	SemanticCandidates int
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		Host:         getenv("HOST", "127.0.0.1"),
		Port:         getint("PORT", 8084),
		AllowOrigins: strings.Split(getenv("ALLOW_ORIGINS", "*"), ","),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFile:      getenv("LOG_FILE", "logs/match-service.log"),
		MaxUploadMB:  getint("MAX_UPLOAD_MB", 64),

		CatalogFile: getenv("CATALOG_FILE", ""),

		Workers:            getint("RESOLVE_WORKERS", 8),
		FuzzyNameThreshold: getfloat("FUZZY_NAME_THRESHOLD", 0.70),
		FuzzyNameCeiling:   getfloat("FUZZY_NAME_CEILING", 0.95),
		FuzzySkuMaxDist:    getint("FUZZY_SKU_MAX_DIST", 1),
		MinConfidenceAuto:  getint("MIN_CONFIDENCE_AUTO", 80),
		ProposalMinConf:    getint("PROPOSAL_MIN_CONF", 80),

		SemanticURL:        getenv("SEMANTIC_URL", ""),
		SemanticAPIKey:     getenv("SEMANTIC_API_KEY", ""),
		SemanticTimeout:    getdur("SEMANTIC_TIMEOUT", 30*time.Second),
		SemanticRPS:        getfloat("SEMANTIC_RPS", 1),
		SemanticCandidates: getint("SEMANTIC_CANDIDATES", 50),
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func getfloat(k string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(k), 64)
	if err != nil {
		return def
	}
	return v
}

func getdur(k string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}
