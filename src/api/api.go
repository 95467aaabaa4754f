package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/chainpress/newsverify/src/analyzer"
	"github.com/chainpress/newsverify/src/api/config"
	"github.com/chainpress/newsverify/src/api/data"
	"github.com/chainpress/newsverify/src/api/webserver"
	"github.com/chainpress/newsverify/src/ledger"
	"github.com/chainpress/newsverify/src/logging"
	"github.com/chainpress/newsverify/src/verification"
)

func main() {
	cfg := config.Load()
	zlog := logging.New("newsverify-api", cfg.LogLevel, cfg.LogConsole)
	defer zlog.Sync()

	db := data.MustMySQL(cfg.MySQLDSN)
	data.Migrate(db)
	store := data.NewStore(db)

	rdb := data.MustRedis(cfg.RedisURL)
	cache := data.NewCache(rdb)

	events := data.NewEventProducer(cfg.KafkaBrokers, cfg.KafkaTopic, zlog)
	defer events.Close()

	analyze, err := analyzer.New(analyzer.Config{
		Backend:       cfg.AnalyzerBackend,
		ModelPath:     cfg.ModelPath,
		TokenizerPath: cfg.TokenizerPath,
		Workers:       cfg.AnalyzerWorkers,
		Endpoint:      cfg.AnalyzerEndpoint,
		APIKey:        cfg.AnalyzerAPIKey,
		Model:         cfg.AnalyzerModel,
		Timeout:       cfg.AnalyzerTimeout,
	})
	if err != nil {
		log.Fatalf("analyzer: %v", err)
	}

	ledgerClient := mustLedger(cfg, zlog)
	anchor := ledger.NewAnchor(ledgerClient, ledger.DefaultAnchorConfig, zlog)

	orch := verification.NewOrchestrator(analyze, anchor,
		verification.Thresholds{Verify: cfg.VerifyThreshold, Reject: cfg.RejectThreshold},
		cfg.ConfirmBudget, zlog)

	newsH := webserver.NewNews(orch, store, cache, events, zlog)
	router := webserver.New(cfg, newsH, zlog)

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()
	zlog.Info("newsverify api listening", zap.String("port", cfg.Port))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}

func mustLedger(cfg config.Config, zlog *zap.Logger) ledger.Client {
	switch cfg.LedgerBackend {
	case "eth":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		client, err := ledger.NewEthClient(ctx, ledger.EthConfig{
			RPCURL:          cfg.LedgerRPCURL,
			ContractAddress: cfg.ContractAddress,
			PrivateKeyHex:   cfg.LedgerKeyHex,
		})
		if err != nil {
			log.Fatalf("ledger: %v", err)
		}
		return client
	case "memory":
		zlog.Warn("using in-memory ledger backend; attestations are not durable")
		return ledger.NewMemoryClient(2 * time.Second)
	default:
		log.Fatalf("ledger: unknown backend %q", cfg.LedgerBackend)
		return nil
	}
}
