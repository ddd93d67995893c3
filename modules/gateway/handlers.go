package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/pushkit/pkg/logger"
	"github.com/dmitrymomot/pushkit/pkg/webpush"
	"github.com/dmitrymomot/pushkit/svc/app"
	"github.com/dmitrymomot/pushkit/svc/device"
	"github.com/dmitrymomot/pushkit/svc/push"
)

type handlers struct {
	gate     Authenticator
	apps     AppResolver
	engine   Engine
	devices  DeviceRegistry
	vapidKey string
	log      *slog.Logger
}

type sendRequest struct {
	// Credentials may ride in the body for clients that cannot set headers;
	// headers take precedence when both are present.
	AppID     string `json:"app_id,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`

	Notification          push.Payload `json:"notification"`
	TargetExternalUserIDs []string     `json:"target_external_user_ids,omitempty"`
}

func (h *handlers) send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	publicID, secretKey := credentials(r)
	if publicID == "" {
		publicID, secretKey = req.AppID, req.SecretKey
	}

	a, err := h.gate.Authenticate(r.Context(), publicID, secretKey)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid app credentials")
		return
	}

	res, err := h.engine.Send(r.Context(), a.ID, req.Notification, req.TargetExternalUserIDs)
	if err != nil {
		h.respondEngineError(w, r, a.ID, err)
		return
	}

	respondJSON(w, http.StatusOK, res)
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	a, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	notifs, err := h.engine.History(r.Context(), a.ID, limit)
	if err != nil {
		h.respondEngineError(w, r, a.ID, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"notifications": notifs})
}

func (h *handlers) logs(w http.ResponseWriter, r *http.Request) {
	a, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "notification id must be an integer")
		return
	}

	logs, err := h.engine.Logs(r.Context(), a.ID, id)
	if err != nil {
		if errors.Is(err, push.ErrNotificationNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "notification not found")
			return
		}
		h.respondEngineError(w, r, a.ID, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (h *handlers) vapidPublicKey(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"public_key": h.vapidKey})
}

type registerRequest struct {
	AppID          string               `json:"app_id"`
	ExternalUserID string               `json:"external_user_id"`
	Subscription   webpush.Subscription `json:"subscription"`
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	a, ok := h.resolveApp(w, r, req.AppID)
	if !ok {
		return
	}

	reg, err := h.devices.Register(r.Context(), a.ID, req.ExternalUserID, req.Subscription)
	if err != nil {
		switch {
		case errors.Is(err, device.ErrEmptyExternalUserID):
			respondError(w, http.StatusUnprocessableEntity, "validation_error", "external_user_id is required")
		case errors.Is(err, webpush.ErrInvalidSubscription):
			respondError(w, http.StatusUnprocessableEntity, "validation_error", "subscription endpoint and keys are required")
		default:
			h.log.LogAttrs(r.Context(), slog.LevelError, "Device registration failed",
				logger.Component("gateway"),
				logger.AppID(a.ID),
				logger.Error(err),
			)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to register device")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"device_id": reg.ID})
}

type unregisterRequest struct {
	AppID          string `json:"app_id"`
	ExternalUserID string `json:"external_user_id"`
}

func (h *handlers) unregister(w http.ResponseWriter, r *http.Request) {
	var req unregisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	a, ok := h.resolveApp(w, r, req.AppID)
	if !ok {
		return
	}

	if err := h.devices.Unregister(r.Context(), a.ID, req.ExternalUserID); err != nil {
		if errors.Is(err, device.ErrEmptyExternalUserID) {
			respondError(w, http.StatusUnprocessableEntity, "validation_error", "external_user_id is required")
			return
		}
		h.log.LogAttrs(r.Context(), slog.LevelError, "Device unregistration failed",
			logger.Component("gateway"),
			logger.AppID(a.ID),
			logger.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to unregister device")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "unregistered"})
}

// credentials extracts the server-to-server auth headers.
func credentials(r *http.Request) (publicID, secretKey string) {
	return r.Header.Get("X-App-ID"), r.Header.Get("X-App-Secret")
}

// authenticate runs the credential gate for header-authenticated routes and
// writes the 401 itself when the gate refuses.
func (h *handlers) authenticate(w http.ResponseWriter, r *http.Request) (*app.App, bool) {
	publicID, secretKey := credentials(r)
	a, err := h.gate.Authenticate(r.Context(), publicID, secretKey)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid app credentials")
		return nil, false
	}
	return a, true
}

// resolveApp looks up the tenant for SDK routes. Browsers only hold the
// public id; a missing or deactivated app is reported as not found so the
// response leaks nothing beyond what the SDK needs.
func (h *handlers) resolveApp(w http.ResponseWriter, r *http.Request, publicID string) (*app.App, bool) {
	if publicID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "app_id is required")
		return nil, false
	}

	a, err := h.apps.GetByPublicID(r.Context(), publicID)
	if err != nil || !a.Active {
		respondError(w, http.StatusNotFound, "app_not_found", "app not found or inactive")
		return nil, false
	}
	return a, true
}

func (h *handlers) respondEngineError(w http.ResponseWriter, r *http.Request, appID int64, err error) {
	if errors.Is(err, push.ErrInvalidPayload) {
		respondError(w, http.StatusUnprocessableEntity, "validation_error", "notification title is required")
		return
	}

	h.log.LogAttrs(r.Context(), slog.LevelError, "Push dispatch request failed",
		logger.Component("gateway"),
		logger.AppID(appID),
		logger.Error(err),
	)
	respondError(w, http.StatusInternalServerError, "internal_error", "failed to process request")
}
