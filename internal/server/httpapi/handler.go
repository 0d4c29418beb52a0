package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/coinledger/internal/common"
	"github.com/dmitrijs2005/coinledger/internal/server/models"
	"github.com/shopspring/decimal"
)

// Request/response DTOs. Amounts cross the wire as decimal strings
// ("100.50"), never binary floats; timestamps as RFC 3339 UTC.

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type createTransactionRequest struct {
	Amount          string `json:"amount"`
	TransactionType string `json:"transaction_type"`
	Description     string `json:"description"`
}

type transactionResponse struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id"`
	Amount          string `json:"amount"`
	TransactionType string `json:"transaction_type"`
	Description     string `json:"description"`
	CreatedAt       string `json:"created_at"`
}

type balanceResponse struct {
	UserID      string  `json:"user_id"`
	Balance     string  `json:"balance"`
	LastUpdated *string `json:"last_updated"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.users.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Token: res.Token, User: toUserResponse(res.User)})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: res.Token, User: toUserResponse(res.User)})
}

func (s *HTTPServer) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	principalID, ok := principalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	targetID := r.PathValue("user_id")

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a decimal string")
		return
	}

	tx, err := s.transactions.Append(r.Context(), principalID, targetID, amount, models.TransactionType(req.TransactionType), req.Description)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func (s *HTTPServer) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	principalID, ok := principalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	targetID := r.PathValue("user_id")

	list, err := s.transactions.List(r.Context(), principalID, targetID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	result := make([]transactionResponse, 0, len(list))
	for _, tx := range list {
		result = append(result, toTransactionResponse(tx))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	principalID, ok := principalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	targetID := r.PathValue("user_id")

	b, err := s.transactions.Balance(r.Context(), principalID, targetID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := balanceResponse{UserID: b.UserID, Balance: b.Balance.StringFixed(2)}
	if b.LastUpdated != nil {
		ts := formatTime(*b.LastUpdated)
		resp.LastUpdated = &ts
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeServiceError maps the error taxonomy onto HTTP status codes. Internal
// detail never reaches the caller; it is logged server-side only.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, common.ErrorForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	default:
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toUserResponse(u *models.User) userResponse {
	// the bcrypt digest never leaves the server
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: formatTime(u.CreatedAt),
		UpdatedAt: formatTime(u.UpdatedAt),
	}
}

func toTransactionResponse(t *models.Transaction) transactionResponse {
	return transactionResponse{
		ID:              t.ID,
		UserID:          t.UserID,
		Amount:          t.Amount.StringFixed(2),
		TransactionType: string(t.Type),
		Description:     t.Description,
		CreatedAt:       formatTime(t.CreatedAt),
	}
}
