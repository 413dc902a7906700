package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/veltapay/wallet-core/internal/account"
	"github.com/veltapay/wallet-core/internal/logger"
	"github.com/veltapay/wallet-core/internal/mnemonic"
	"github.com/veltapay/wallet-core/internal/model"
)

// AccountHandler serves account creation and recovery.
type AccountHandler struct {
	accounts *account.Service
	log      *logger.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(accounts *account.Service, log *logger.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, log: log}
}

// Create handles POST /accounts
// @Summary      Create account
// @Description  Generates a mnemonic, derives EVM and Solana keys, and stores a password-sealed envelope. The mnemonic appears in this response only.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request  body      model.CreateAccountRequest  true  "Account data"
// @Success      200      {object}  model.CreateAccountResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /accounts [post]
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "", err.Error())
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "", "password is required")
		return
	}

	profile := model.Profile{
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
	}
	resp, err := h.accounts.Create(r.Context(), req.Password, profile)
	if err != nil {
		h.log.Error().Err(err).Msg("account creation failed")
		writeError(w, http.StatusInternalServerError, "", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Restore handles POST /accounts/restore
// @Summary      Restore account
// @Description  Rebuilds the account from a saved mnemonic and seals the envelope under the supplied password. Addresses match the original account.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request  body      model.RestoreAccountRequest  true  "Recovery data"
// @Success      200      {object}  model.CreateAccountResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /accounts/restore [post]
func (h *AccountHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.RestoreAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "", err.Error())
		return
	}
	if req.Password == "" || req.Mnemonic == "" {
		writeError(w, http.StatusBadRequest, "", "mnemonic and password are required")
		return
	}

	profile := model.Profile{
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
	}
	resp, err := h.accounts.Restore(r.Context(), req.Mnemonic, req.Password, profile)
	if err != nil {
		if errors.Is(err, mnemonic.ErrInvalidMnemonic) {
			writeError(w, http.StatusBadRequest, "", err.Error())
			return
		}
		h.log.Error().Err(err).Msg("account restore failed")
		writeError(w, http.StatusInternalServerError, "", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
