package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/veltapay/wallet-core/internal/keys"
	"github.com/veltapay/wallet-core/internal/logger"
	"github.com/veltapay/wallet-core/internal/model"
	"github.com/veltapay/wallet-core/internal/transfer"
)

// LedgerReader lists recorded transfers for an address.
type LedgerReader interface {
	ListByAddress(ctx context.Context, address string) ([]model.LedgerEntry, error)
}

// TransferHandler drives the send flow through the transfer engine. All
// endpoints return the resulting engine state; errors are reported inside
// that state, not as bare HTTP failures, so the client renders one shape.
type TransferHandler struct {
	engine         *transfer.Engine
	ledger         LedgerReader
	confirmTimeout time.Duration
	log            *logger.Logger
}

// NewTransferHandler creates a TransferHandler. confirmTimeout bounds how
// long a submission waits for on-chain confirmation before the outcome is
// classified as unknown.
func NewTransferHandler(engine *transfer.Engine, ledger LedgerReader, confirmTimeout time.Duration, log *logger.Logger) *TransferHandler {
	return &TransferHandler{engine: engine, ledger: ledger, confirmTimeout: confirmTimeout, log: log}
}

func stateResponse(st transfer.State) model.TransferStateResponse {
	resp := model.TransferStateResponse{
		Step:      string(st.Step),
		Signature: st.Signature,
		ErrorCode: string(st.ErrCode),
		Error:     st.ErrMsg,
	}
	if st.Request != nil {
		resp.Recipient = st.Request.Recipient.ResolvedAddress
		resp.DisplayName = st.Request.Recipient.DisplayName
		resp.Amount = st.Request.Amount
	}
	return resp
}

// Begin handles POST /transfers
// @Summary      Begin a transfer
// @Description  Validates the amount and resolves the recipient (address, username, or email). On success the flow is ready for confirmation.
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        request  body      model.BeginTransferRequest  true  "Transfer data"
// @Success      200      {object}  model.TransferStateResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /transfers [post]
func (h *TransferHandler) Begin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.BeginTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "", err.Error())
		return
	}

	chain := keys.ChainFamily(req.Chain)
	if chain != keys.ChainEVM && chain != keys.ChainSolana {
		writeError(w, http.StatusBadRequest, "", "chain must be evm or solana")
		return
	}

	st, err := h.engine.Begin(r.Context(), req.Sender, chain, req.Recipient, req.Amount)
	if err != nil {
		h.log.Debug().Err(err).Str("recipient", req.Recipient).Msg("begin transfer rejected")
	}
	writeJSON(w, http.StatusOK, stateResponse(st))
}

// Confirm handles POST /transfers/confirm
// @Summary      Confirm the transfer summary
// @Tags         transfers
// @Produce      json
// @Success      200  {object}  model.TransferStateResponse
// @Router       /transfers/confirm [post]
func (h *TransferHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(h.engine.Confirm()))
}

// Submit handles POST /transfers/submit
// @Summary      Submit the confirmed transfer
// @Description  Decrypts the envelope with the password, submits on chain, waits for acceptance, and records the ledger entry. Failures land the flow in the error state with a classification code.
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        request  body      model.SubmitTransferRequest  true  "Wallet password"
// @Success      200      {object}  model.TransferStateResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /transfers/submit [post]
func (h *TransferHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.SubmitTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.confirmTimeout)
	defer cancel()

	st, err := h.engine.Submit(ctx, req.Password)
	if err != nil {
		h.log.Warn().Err(err).Str("step", string(st.Step)).Msg("transfer submission failed")
	}
	writeJSON(w, http.StatusOK, stateResponse(st))
}

// Retry handles POST /transfers/retry
// @Summary      Retry after a failed submission
// @Tags         transfers
// @Produce      json
// @Success      200  {object}  model.TransferStateResponse
// @Router       /transfers/retry [post]
func (h *TransferHandler) Retry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(h.engine.Retry()))
}

// Back handles POST /transfers/back
// @Summary      Step back in the flow
// @Tags         transfers
// @Produce      json
// @Success      200  {object}  model.TransferStateResponse
// @Router       /transfers/back [post]
func (h *TransferHandler) Back(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(h.engine.GoBack()))
}

// Reset handles POST /transfers/reset
// @Summary      Reset the flow to idle
// @Tags         transfers
// @Produce      json
// @Success      200  {object}  model.TransferStateResponse
// @Router       /transfers/reset [post]
func (h *TransferHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(h.engine.Reset()))
}

// State handles GET /transfers/state
// @Summary      Current transfer flow state
// @Tags         transfers
// @Produce      json
// @Success      200  {object}  model.TransferStateResponse
// @Router       /transfers/state [get]
func (h *TransferHandler) State(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(h.engine.Snapshot()))
}

// Ledger handles GET /ledger
// @Summary      Transfer history for an address
// @Tags         ledger
// @Produce      json
// @Param        address  query     string  true  "Account address (sender or recipient)"
// @Success      200      {array}   model.LedgerEntry
// @Failure      400      {object}  model.ErrorResponse
// @Router       /ledger [get]
func (h *TransferHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	address := r.URL.Query().Get("address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "", "address query parameter is required")
		return
	}

	entries, err := h.ledger.ListByAddress(r.Context(), address)
	if err != nil {
		h.log.Error().Err(err).Msg("ledger query failed")
		writeError(w, http.StatusInternalServerError, "", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
