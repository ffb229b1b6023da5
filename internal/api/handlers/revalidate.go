package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/umnpray/umnpray/internal/logger"
)

// WebhookSecretHeader authenticates content-change webhooks
const WebhookSecretHeader = "sanity-webhook-secret"

// RevalidateHandler drops cached content when the CMS publishes a change
type RevalidateHandler struct {
	cache  CacheInvalidator
	secret string
}

func NewRevalidateHandler(cache CacheInvalidator, secret string) *RevalidateHandler {
	return &RevalidateHandler{cache: cache, secret: secret}
}

func (h *RevalidateHandler) Revalidate(w http.ResponseWriter, r *http.Request) {
	got := r.Header.Get(WebhookSecretHeader)
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid secret"})
		return
	}

	if h.cache != nil {
		h.cache.Invalidate()
	}
	logger.L().Info("content_revalidated")

	writeJSON(w, http.StatusOK, map[string]any{
		"revalidated": true,
		"message":     "Cache cleared successfully",
	})
}
