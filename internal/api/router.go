// Package api assembles the HTTP routing for the wallet service.
package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/veltapay/wallet-core/internal/handler"
)

// SetupRouter wires the handlers onto a mux.
func SetupRouter(accounts *handler.AccountHandler, transfers *handler.TransferHandler) http.Handler {
	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Account endpoints
	mux.HandleFunc("/accounts", accounts.Create)
	mux.HandleFunc("/accounts/restore", accounts.Restore)

	// Transfer flow endpoints
	mux.HandleFunc("/transfers", transfers.Begin)
	mux.HandleFunc("/transfers/confirm", transfers.Confirm)
	mux.HandleFunc("/transfers/submit", transfers.Submit)
	mux.HandleFunc("/transfers/retry", transfers.Retry)
	mux.HandleFunc("/transfers/back", transfers.Back)
	mux.HandleFunc("/transfers/reset", transfers.Reset)
	mux.HandleFunc("/transfers/state", transfers.State)

	// Ledger
	mux.HandleFunc("/ledger", transfers.Ledger)

	return mux
}
