package vault

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/codevault/codevault/internal/http/middleware"
	"github.com/codevault/codevault/internal/httputil"
	"github.com/codevault/codevault/pkg/domain"
	"github.com/codevault/codevault/pkg/vault"
)

// Handler handles vault HTTP requests.
type Handler struct {
	logger *slog.Logger
	vault  *vault.VaultService
}

// NewHandler creates a new vault handler.
func NewHandler(logger *slog.Logger, vaultService *vault.VaultService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger: logger,
		vault:  vaultService,
	}
}

// CreateRequest represents the request body for creating a domain.
type CreateRequest struct {
	Name  string   `json:"name"`
	Codes []string `json:"codes"`
}

// CodeResponse is the read-side view of one stored code.
type CodeResponse struct {
	ID         string     `json:"id"`
	Slot       int        `json:"slot"`
	Value      string     `json:"value"`
	Status     string     `json:"status"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	Decoded    bool       `json:"decoded"`
	FailReason string     `json:"fail_reason,omitempty"`
}

// DomainResponse represents one domain with its codes.
type DomainResponse struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	TotalCodes     int            `json:"total_codes"`
	RemainingCodes int            `json:"remaining_codes"`
	CreatedAt      time.Time      `json:"created_at"`
	Codes          []CodeResponse `json:"codes"`
}

// Create handles POST /v1/vault
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.vault.CreateDomain(ctx, userID, req.Name, req.Codes)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDomainExists):
			httputil.Error(w, http.StatusConflict, "domain already exists")
		case errors.Is(err, domain.ErrEmptyName),
			errors.Is(err, domain.ErrNoCodes),
			errors.Is(err, domain.ErrEmptyCode):
			httputil.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrUserNotFound):
			httputil.Error(w, http.StatusNotFound, "user not found")
		default:
			h.logger.Error("failed to create domain", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "failed to create domain")
		}
		return
	}

	httputil.JSON(w, http.StatusCreated, map[string]interface{}{
		"domain": createdDomainResponse(d),
	})
}

// List handles GET /v1/vault
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	domains, err := h.vault.ListDomains(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			httputil.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("failed to list domains", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to list domains")
		return
	}

	out := make([]DomainResponse, len(domains))
	for i := range domains {
		out[i] = decodedDomainResponse(&domains[i])
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{"domains": out})
}

// Get handles GET /v1/vault/{domainID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	domainID, err := uuid.Parse(chi.URLParam(r, "domainID"))
	if err != nil {
		httputil.Error(w, http.StatusNotFound, "domain not found")
		return
	}

	d, err := h.vault.GetDomain(ctx, userID, domainID)
	if err != nil {
		if errors.Is(err, domain.ErrDomainNotFound) || errors.Is(err, domain.ErrUserNotFound) {
			httputil.Error(w, http.StatusNotFound, "domain not found")
			return
		}
		h.logger.Error("failed to get domain", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to get domain")
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"domain": decodedDomainResponse(d),
	})
}

// UpdateCodeStatusRequest represents the request body for a status update.
type UpdateCodeStatusRequest struct {
	Status string `json:"status"`
}

// UpdateCodeStatus handles PUT /v1/vault/{domainID}/codes/{codeID}
func (h *Handler) UpdateCodeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	domainID, err := uuid.Parse(chi.URLParam(r, "domainID"))
	if err != nil {
		httputil.Error(w, http.StatusNotFound, "code not found or not authorized")
		return
	}
	codeID, err := uuid.Parse(chi.URLParam(r, "codeID"))
	if err != nil {
		httputil.Error(w, http.StatusNotFound, "code not found or not authorized")
		return
	}

	var req UpdateCodeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.vault.UpdateCodeStatus(ctx, userID, domainID, codeID, domain.CodeStatus(req.Status))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidStatus) {
			httputil.Error(w, http.StatusBadRequest, "status must be one of: active, used, expired")
			return
		}
		h.logger.Error("failed to update code status", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to update code")
		return
	}

	// Zero rows means not found or not authorized; which one is deliberately
	// not disclosed.
	if updated == 0 {
		httputil.Error(w, http.StatusNotFound, "code not found or not authorized")
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

// Delete handles DELETE /v1/vault/{domainID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	domainID, err := uuid.Parse(chi.URLParam(r, "domainID"))
	if err != nil {
		httputil.Error(w, http.StatusNotFound, "domain not found")
		return
	}

	if err := h.vault.DeleteDomain(ctx, userID, domainID); err != nil {
		if errors.Is(err, domain.ErrDomainNotFound) {
			httputil.Error(w, http.StatusNotFound, "domain not found")
			return
		}
		h.logger.Error("failed to delete domain", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to delete domain")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// createdDomainResponse renders a freshly created domain. The stored codes
// are still the encoded tokens; the caller already knows the raw values it
// just submitted, so tokens are not echoed back.
func createdDomainResponse(d *domain.Domain) DomainResponse {
	resp := DomainResponse{
		ID:             d.ID.String(),
		Name:           d.Name,
		TotalCodes:     d.TotalCodes,
		RemainingCodes: d.RemainingCodes,
		CreatedAt:      d.CreatedAt,
		Codes:          make([]CodeResponse, len(d.Codes)),
	}
	for i, c := range d.Codes {
		resp.Codes[i] = CodeResponse{
			ID:     c.ID.String(),
			Slot:   c.Slot,
			Status: string(c.Status),
			UsedAt: c.UsedAt,
		}
	}
	return resp
}

func decodedDomainResponse(d *domain.DecodedDomain) DomainResponse {
	resp := DomainResponse{
		ID:             d.ID.String(),
		Name:           d.Name,
		TotalCodes:     d.TotalCodes,
		RemainingCodes: d.RemainingCodes,
		CreatedAt:      d.CreatedAt,
		Codes:          make([]CodeResponse, len(d.DecodedCodes)),
	}
	for i, c := range d.DecodedCodes {
		resp.Codes[i] = CodeResponse{
			ID:         c.ID.String(),
			Slot:       c.Slot,
			Value:      c.Value,
			Status:     string(c.Status),
			UsedAt:     c.UsedAt,
			Decoded:    c.Decoded,
			FailReason: string(c.FailReason),
		}
	}
	return resp
}
