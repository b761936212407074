// The explorer is a read-only HTTP service over the chain and mempool files.
// It never produces blocks and never writes state; the simulator CLI remains
// the single writer.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/chainlabs/minersim/app/services/explorer/handlers"
	"github.com/chainlabs/minersim/foundation/blockchain/database/storage"
	"github.com/chainlabs/minersim/foundation/blockchain/genesis"
	"github.com/chainlabs/minersim/foundation/blockchain/state"
	"github.com/chainlabs/minersim/foundation/events"
	"github.com/chainlabs/minersim/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in
// the makefile.
var build = "develop"

func main() {
	log, err := logger.New("EXPLORER")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			APIHost         string        `conf:"default:0.0.0.0:8080"`
		}
		State struct {
			ChainPath   string `conf:"default:zblock/blockchain.json"`
			MempoolPath string `conf:"default:zblock/mempool.json"`
			GenesisPath string `conf:"default:"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "blockchain simulator explorer",
		},
	}

	const prefix = "EXPLORER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Blockchain Support

	gen := genesis.Default()
	if cfg.State.GenesisPath != "" {
		if gen, err = genesis.Load(cfg.State.GenesisPath); err != nil {
			return fmt.Errorf("loading genesis: %w", err)
		}
	}

	// Raw operation events are sent to any websocket client connected
	// through the events package.
	evts := events.New()
	defer evts.Shutdown()

	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	st, err := state.New(state.Config{
		Genesis:   gen,
		Storage:   storage.NewDisk(cfg.State.ChainPath),
		EvHandler: ev,
	})
	if err != nil {
		return fmt.Errorf("loading blockchain state: %w", err)
	}

	// The mempool file is optional for the explorer. A missing file just
	// means there is nothing pending to show.
	txs, err := storage.ReadTransactions(cfg.State.MempoolPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading mempool: %w", err)
	}
	for _, tx := range txs {
		if err := st.SubmitTransaction(tx); err != nil {
			return fmt.Errorf("invalid mempool transaction %s: %w", tx, err)
		}
	}

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	mux := handlers.New(handlers.Config{
		Log:   log,
		State: st,
		Evts:  evts,
	})

	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      mux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop api service gracefully: %w", err)
		}
	}

	return nil
}
