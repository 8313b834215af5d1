package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/instapay/payment-core/pkg/auth"
	"github.com/instapay/payment-core/pkg/ledger"
	"github.com/instapay/payment-core/pkg/models"
	"github.com/instapay/payment-core/pkg/storage"
	"github.com/shopspring/decimal"
)

// validate is the shared request-DTO validator.
var validate = validator.New()

// AuthService defines the authentication operations the handlers depend on.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Register(ctx context.Context, input models.RegistrationInput) (*models.Identity, error)
	Logout(ctx context.Context)
	Authorize(token string) error
	Touch()
	CurrentIdentity(ctx context.Context) (*models.Identity, error)
	UpdateProfile(ctx context.Context, changes models.ProfileUpdate) (*models.Identity, error)
	ChangePassword(ctx context.Context, current, next string) error
}

// PaymentService defines the ledger-facing operations the handlers depend on.
type PaymentService interface {
	Balance() (decimal.Decimal, error)
	TransactionHistory() ([]models.Transaction, error)
	SendMoney(recipient string, amount decimal.Decimal, description string) (*models.Transaction, error)
	Withdraw(amount decimal.Decimal, full bool) (*auth.WithdrawResult, error)
	SubmitEnquiry(ctx context.Context, subject, message string) (*models.Enquiry, error)
	Enquiries(ctx context.Context) ([]models.Enquiry, error)
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// respondError maps a service error onto an HTTP status and a safe message.
func respondError(w http.ResponseWriter, err error) {
	var vErr *auth.ValidationError
	var locked *auth.AccountLockedError

	switch {
	case errors.As(err, &vErr):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: vErr.Error()})
	case errors.As(err, &locked):
		respondJSON(w, http.StatusLocked, errorResponse{Error: locked.Error()})
	case errors.Is(err, auth.ErrAuthenticationFailed):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid email or password"})
	case errors.Is(err, auth.ErrNotAuthenticated):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "Not authenticated"})
	case errors.Is(err, ledger.ErrInsufficientFunds):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "Insufficient funds"})
	case errors.Is(err, storage.ErrDuplicateIdentity):
		respondJSON(w, http.StatusConflict, errorResponse{Error: "User with this email already exists"})
	default:
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}

// decodeAndValidate decodes a JSON request body and runs struct validation.
func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &auth.ValidationError{Field: "body", Reason: "malformed JSON"}
	}
	if err := validate.Struct(dst); err != nil {
		return &auth.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}
