package momo

// Payment statuses reported by the collection API.
const (
	StatusPending    = "PENDING"
	StatusSuccessful = "SUCCESSFUL"
	StatusFailed     = "FAILED"
)

// Party identifies the payer account.
type Party struct {
	PartyIDType string `json:"partyIdType"`
	PartyID     string `json:"partyId"`
}

// RequestToPayRequest is the body of POST /collection/v1_0/requesttopay.
// Amount is a decimal string per the API contract.
type RequestToPayRequest struct {
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	ExternalID   string `json:"externalId"`
	Payer        Party  `json:"payer"`
	PayerMessage string `json:"payerMessage,omitempty"`
	PayeeNote    string `json:"payeeNote,omitempty"`
}

// RequestToPayStatus is the body of GET /collection/v1_0/requesttopay/{referenceId}.
type RequestToPayStatus struct {
	Amount                 string `json:"amount"`
	Currency               string `json:"currency"`
	ExternalID             string `json:"externalId"`
	Payer                  Party  `json:"payer"`
	Status                 string `json:"status"`
	Reason                 string `json:"reason,omitempty"`
	FinancialTransactionID string `json:"financialTransactionId,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ErrorResponse is the upstream error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
