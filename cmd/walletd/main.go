// walletd is the wallet-core HTTP service: account provisioning, the guarded
// transfer flow, and the local transfer ledger.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veltapay/wallet-core/internal/account"
	"github.com/veltapay/wallet-core/internal/api"
	"github.com/veltapay/wallet-core/internal/chain"
	"github.com/veltapay/wallet-core/internal/config"
	"github.com/veltapay/wallet-core/internal/directory"
	"github.com/veltapay/wallet-core/internal/handler"
	"github.com/veltapay/wallet-core/internal/keys"
	"github.com/veltapay/wallet-core/internal/logger"
	"github.com/veltapay/wallet-core/internal/resolver"
	"github.com/veltapay/wallet-core/internal/store"
	"github.com/veltapay/wallet-core/internal/transfer"
)

func main() {
	log := logger.New("walletd")

	if err := config.Init(); err != nil {
		log.Fatal().Err(err).Msg("config init failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, config.GetDBPath(), log.With("store"))
	if err != nil {
		log.Fatal().Err(err).Msg("open database failed")
	}
	defer db.Close()

	solanaClient, err := chain.NewSolanaClient(config.GetSolanaRPCURL(), log.With("chain.solana"))
	if err != nil {
		log.Fatal().Err(err).Msg("solana client init failed")
	}
	evmClient, err := chain.NewEVMClient(config.GetEVMRPCURL(), log.With("chain.evm"))
	if err != nil {
		log.Fatal().Err(err).Msg("evm client init failed")
	}

	dir := directory.New(config.GetDirectoryURL(), log.With("directory"))

	engine := transfer.NewEngine(
		resolver.New(dir),
		db,
		db,
		dir,
		map[keys.ChainFamily]chain.Client{
			keys.ChainSolana: solanaClient,
			keys.ChainEVM:    evmClient,
		},
		log.With("transfer"),
	)

	accounts := account.New(db, log.With("account"))

	router := api.SetupRouter(
		handler.NewAccountHandler(accounts, log.With("handler.account")),
		handler.NewTransferHandler(engine, db,
			time.Duration(config.GetConfirmTimeoutSeconds())*time.Second,
			log.With("handler.transfer")),
	)

	srv := &http.Server{
		Addr:         ":" + config.GetPort(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(config.GetConfirmTimeoutSeconds()+30) * time.Second,
	}

	go func() {
		log.Info().Str("port", config.GetPort()).Msg("walletd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
		os.Exit(1)
	}
}
