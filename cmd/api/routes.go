package main

import (
	"log/slog"
	"net/http"

	"github.com/nestfund/backend/internal/auth"
	"github.com/nestfund/backend/internal/handlers"
	"github.com/nestfund/backend/internal/invite"
	"github.com/nestfund/backend/internal/middleware"
	"github.com/nestfund/backend/internal/pool"
	"github.com/nestfund/backend/internal/trust"
	"github.com/nestfund/backend/internal/wallet"
)

// RegisterV1Routes adds the /v1/ ledger API endpoints to the given mux.
// Middleware chain: BearerAuth -> handler.
func RegisterV1Routes(
	mux *http.ServeMux,
	engine *pool.Engine,
	walletSvc *wallet.Service,
	trustSvc *trust.Service,
	invites *invite.Directory,
	authSvc auth.Service,
	currency string,
	logger *slog.Logger,
) {
	ph := handlers.NewPoolHandler(engine, invites, currency, logger)
	wh := handlers.NewWalletHandler(walletSvc, currency, logger)
	th := handlers.NewTrustHandler(trustSvc, logger)

	bearer := middleware.BearerAuth(authSvc)

	mux.Handle("POST /v1/pools", bearer(http.HandlerFunc(ph.Create)))
	mux.Handle("GET /v1/pools/{id}", bearer(http.HandlerFunc(ph.Get)))
	mux.Handle("POST /v1/pools/{id}/join", bearer(http.HandlerFunc(ph.Join)))
	mux.Handle("POST /v1/pools/{id}/start", bearer(http.HandlerFunc(ph.Start)))
	mux.Handle("POST /v1/pools/{id}/payments", bearer(http.HandlerFunc(ph.Payment)))
	mux.Handle("POST /v1/pools/{id}/cancel", bearer(http.HandlerFunc(ph.Cancel)))

	mux.Handle("GET /v1/wallet/balance", bearer(http.HandlerFunc(wh.Balance)))
	mux.Handle("POST /v1/wallet/deposits", bearer(http.HandlerFunc(wh.Deposit)))
	mux.Handle("POST /v1/wallet/withdraw", bearer(http.HandlerFunc(wh.Withdraw)))

	mux.Handle("GET /v1/trust-score", bearer(http.HandlerFunc(th.Score)))
	mux.Handle("POST /v1/ratings", bearer(http.HandlerFunc(th.SubmitRating)))
	mux.Handle("POST /v1/disputes", bearer(http.HandlerFunc(th.ReportDispute)))
}
