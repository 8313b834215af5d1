package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"
)

// PaymentsHandler serves the ledger-facing endpoints.
type PaymentsHandler struct {
	Payments PaymentService
}

// NewPaymentsHandler creates a new PaymentsHandler.
func NewPaymentsHandler(payments PaymentService) *PaymentsHandler {
	return &PaymentsHandler{Payments: payments}
}

type sendMoneyRequest struct {
	Recipient   string          `json:"recipient" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description"`
}

type withdrawRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Full   bool            `json:"full"`
}

type enquiryRequest struct {
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message"`
}

type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// GetBalance returns the active ledger's current balance.
func (h *PaymentsHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.Payments.Balance()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}

// ListTransactions returns the transaction history, most recent first.
func (h *PaymentsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	history, err := h.Payments.TransactionHistory()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// SendMoney debits the active ledger in favor of an external recipient.
func (h *PaymentsHandler) SendMoney(w http.ResponseWriter, r *http.Request) {
	var req sendMoneyRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	tx, err := h.Payments.SendMoney(req.Recipient, req.Amount, req.Description)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, tx)
}

// Withdraw debits the requested amount, or the whole balance when full is set.
func (h *PaymentsHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.Payments.Withdraw(req.Amount, req.Full)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// SubmitEnquiry records a support enquiry for the active identity.
func (h *PaymentsHandler) SubmitEnquiry(w http.ResponseWriter, r *http.Request) {
	var req enquiryRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	enquiry, err := h.Payments.SubmitEnquiry(r.Context(), req.Subject, req.Message)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, enquiry)
}

// ListEnquiries returns the active identity's enquiries.
func (h *PaymentsHandler) ListEnquiries(w http.ResponseWriter, r *http.Request) {
	enquiries, err := h.Payments.Enquiries(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, enquiries)
}
