package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port     string
	MySQLDSN string
	RedisURL string

	KafkaBrokers string
	KafkaTopic   string

	LedgerBackend   string // eth | memory
	LedgerRPCURL    string
	ContractAddress string
	LedgerKeyHex    string

	AnalyzerBackend  string // lexicon | remote
	ModelPath        string
	TokenizerPath    string
	AnalyzerEndpoint string
	AnalyzerAPIKey   string
	AnalyzerModel    string
	AnalyzerWorkers  int
	AnalyzerTimeout  time.Duration

	VerifyThreshold float64
	RejectThreshold float64
	ConfirmBudget   time.Duration

	LogLevel   string
	LogConsole bool

	RateLimit int // requests per minute per client
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func getfloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("env %s: %v", key, err)
	}
	return f
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("env %s: %v", key, err)
	}
	return n
}

func getduration(key, def string) time.Duration {
	d, err := time.ParseDuration(getenv(key, def))
	if err != nil {
		log.Fatalf("env %s: %v", key, err)
	}
	return d
}

func Load() Config {
	cfg := Config{
		Port:     getenv("PORT", "8080"),
		MySQLDSN: getenv("MYSQL_DSN", "newsverify:newsverify@tcp(127.0.0.1:3306)/newsverify?parseTime=true"),
		RedisURL: getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),

		KafkaBrokers: getenv("KAFKA_BROKERS", "127.0.0.1:9092"),
		KafkaTopic:   getenv("KAFKA_TOPIC", "news.verification"),

		LedgerBackend:   getenv("LEDGER_BACKEND", "memory"),
		LedgerRPCURL:    getenv("LEDGER_RPC_URL", "http://127.0.0.1:8545"),
		ContractAddress: getenv("LEDGER_CONTRACT", "0x0000000000000000000000000000000000000000"),
		LedgerKeyHex:    os.Getenv("LEDGER_KEY"),

		AnalyzerBackend:  getenv("ANALYZER_BACKEND", "lexicon"),
		ModelPath:        os.Getenv("ANALYZER_MODEL_PATH"),
		TokenizerPath:    os.Getenv("ANALYZER_TOKENIZER_PATH"),
		AnalyzerEndpoint: os.Getenv("ANALYZER_ENDPOINT"),
		AnalyzerAPIKey:   os.Getenv("ANALYZER_API_KEY"),
		AnalyzerModel:    os.Getenv("ANALYZER_MODEL"),
		AnalyzerWorkers:  getint("ANALYZER_WORKERS", 4),
		AnalyzerTimeout:  getduration("ANALYZER_TIMEOUT", "45s"),

		VerifyThreshold: getfloat("VERIFY_THRESHOLD", 0.7),
		RejectThreshold: getfloat("REJECT_THRESHOLD", 0.4),
		ConfirmBudget:   getduration("CONFIRM_BUDGET", "30s"),

		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogConsole: os.Getenv("LOG_CONSOLE") == "1",

		RateLimit: getint("RATE_LIMIT", 60),
	}

	if cfg.LedgerBackend == "eth" && cfg.LedgerKeyHex == "" {
		log.Fatalf("missing env LEDGER_KEY for eth ledger backend")
	}
	if cfg.RejectThreshold > cfg.VerifyThreshold {
		log.Fatalf("REJECT_THRESHOLD cannot exceed VERIFY_THRESHOLD")
	}
	return cfg
}
