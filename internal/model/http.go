package model

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// CreateAccountRequest represents request for POST /accounts
type CreateAccountRequest struct {
	Password    string `json:"password" binding:"required"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// RestoreAccountRequest represents request for POST /accounts/restore
type RestoreAccountRequest struct {
	Mnemonic    string `json:"mnemonic" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// CreateAccountResponse represents response for POST /accounts.
// Mnemonic is returned exactly once, at creation time.
type CreateAccountResponse struct {
	Mnemonic      string `json:"mnemonic,omitempty"`
	EVMAddress    string `json:"evmAddress"`
	SolanaAddress string `json:"solanaAddress"`
	QR            string `json:"QR"`
}

// BeginTransferRequest represents request for POST /transfers
type BeginTransferRequest struct {
	Sender    string `json:"sender" binding:"required"`
	Recipient string `json:"recipient" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Chain     string `json:"chain" binding:"required"`
}

// SubmitTransferRequest represents request for POST /transfers/submit
type SubmitTransferRequest struct {
	Password string `json:"password" binding:"required"`
}

// TransferStateResponse represents the engine snapshot returned by the
// transfer endpoints.
type TransferStateResponse struct {
	Step        string `json:"step"`
	Recipient   string `json:"recipient,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Signature   string `json:"signature,omitempty"`
	ErrorCode   string `json:"errorCode,omitempty"`
	Error       string `json:"error,omitempty"`
}
