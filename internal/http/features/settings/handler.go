package settings

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/codevault/codevault/internal/http/middleware"
	"github.com/codevault/codevault/internal/httputil"
	"github.com/codevault/codevault/pkg/domain"
	"github.com/codevault/codevault/pkg/vault"
)

// Handler handles user settings requests.
type Handler struct {
	logger *slog.Logger
	keys   *vault.KeyService
}

// NewHandler creates a new settings handler.
func NewHandler(logger *slog.Logger, keys *vault.KeyService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger: logger,
		keys:   keys,
	}
}

// RotateKeyResponse represents the response body for a key rotation.
// The new secret itself is never returned.
type RotateKeyResponse struct {
	KeyVersion int    `json:"key_version"`
	Message    string `json:"message"`
}

// RotateKey handles POST /v1/me/key/rotate. Rotation is irreversible:
// every code token issued under the previous key stops decoding.
func (h *Handler) RotateKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	key, err := h.keys.Rotate(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			httputil.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("failed to rotate key", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to rotate key")
		return
	}

	h.logger.Info("code key rotated", "user_id", userID, "key_version", key.Version)

	httputil.JSON(w, http.StatusOK, RotateKeyResponse{
		KeyVersion: key.Version,
		Message:    "key rotated. previously stored codes are no longer decodable.",
	})
}
