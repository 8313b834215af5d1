package handlers

import (
	"net/http"

	"github.com/instapay/payment-core/pkg/models"
)

// AuthHandler serves the authentication and profile endpoints.
type AuthHandler struct {
	Auth AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email           string `json:"email" validate:"required"`
	Password        string `json:"password" validate:"required"`
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	CellNumber      string `json:"cell_number" validate:"required"`
	IdentityNumber  string `json:"identity_number" validate:"required"`
	PhysicalAddress string `json:"physical_address"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// Login authenticates a user and returns the session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	identity, err := h.Auth.Register(r.Context(), models.RegistrationInput{
		Email:           req.Email,
		Password:        req.Password,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		CellNumber:      req.CellNumber,
		IdentityNumber:  req.IdentityNumber,
		PhysicalAddress: req.PhysicalAddress,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, identity)
}

// Logout ends the active session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Auth.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the logged-in identity with its live balance.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := h.Auth.CurrentIdentity(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, identity)
}

// UpdateProfile applies partial profile changes.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileUpdate
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	identity, err := h.Auth.UpdateProfile(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, identity)
}

// ChangePassword replaces the active identity's password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.Auth.ChangePassword(r.Context(), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
