// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package api

import (
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/adeval/adeval/internal/eventstream"
	"github.com/adeval/adeval/internal/join"
	"github.com/adeval/adeval/internal/logging"
	"github.com/adeval/adeval/internal/models"
)

// maxPublishBodyBytes caps manual publish payloads. Matches the event bus
// payload ceiling with headroom for the request envelope.
const maxPublishBodyBytes = 1 << 20

// StateReader exposes join state introspection. Satisfied by *join.Engine.
type StateReader interface {
	State(userID, productID string) (join.KeyState, string, error)
	AdTableLen() int
	PurchaseTableLen() int
}

// StatsProvider exposes pipeline handler statistics.
type StatsProvider interface {
	Stats() eventstream.ComponentsStats
}

// Handler contains dependencies for the API handlers.
type Handler struct {
	engine    StateReader
	publisher eventstream.MessagePublisher
	stats     StatsProvider
	validate  *validator.Validate
	readiness func() bool
	startTime time.Time
}

// NewHandler creates an API handler. Engine and publisher may be nil in
// degraded deployments; the affected endpoints then return 503.
func NewHandler(engine StateReader, publisher eventstream.MessagePublisher, stats StatsProvider) *Handler {
	return &Handler{
		engine:    engine,
		publisher: publisher,
		stats:     stats,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		startTime: time.Now(),
	}
}

// SetReadinessCheck installs the readiness probe callback. Typically wired
// to the event router's running state. Call once during startup.
func (h *Handler) SetReadinessCheck(fn func() bool) {
	h.readiness = fn
}

// HealthLive handles liveness probe requests. Returns 200 whenever the
// process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady handles readiness probe requests. Returns 503 until the
// event router is consuming.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ready := h.engine != nil && h.publisher != nil
	if ready && h.readiness != nil {
		ready = h.readiness()
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"ready": ready,
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// Health handles full health status requests.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ready := h.engine != nil && h.publisher != nil
	if ready && h.readiness != nil {
		ready = h.readiness()
	}
	status := "healthy"
	if !ready {
		status = "degraded"
	}

	data := map[string]interface{}{
		"status": status,
		"uptime": time.Since(h.startTime).Seconds(),
	}
	if h.engine != nil {
		data["adTableEntries"] = h.engine.AdTableLen()
		data["purchaseTableEntries"] = h.engine.PurchaseTableLen()
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// KeyState reports the join state for one user and product pairing.
func (h *Handler) KeyState(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Join engine not available", nil)
		return
	}

	userID := chi.URLParam(r, "userId")
	productID := chi.URLParam(r, "productId")

	state, key, err := h.engine.State(userID, productID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Both userId and productId are required", nil)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: models.KeyStateResponse{
			Key:             key,
			UserID:          userID,
			ProductID:       productID,
			State:           state.String(),
			AdPresent:       state == join.StateAdOnly || state == join.StateJoined,
			PurchasePresent: state == join.StatePurchaseOnly || state == join.StateJoined,
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// Stats reports pipeline handler statistics and table sizes.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{}
	if h.stats != nil {
		s := h.stats.Stats()
		data["views"] = s.Views
		data["fanout"] = s.Fanout
		data["items"] = s.Items
	}
	if h.engine != nil {
		data["adTableEntries"] = h.engine.AdTableLen()
		data["purchaseTableEntries"] = h.engine.PurchaseTableLen()
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// PublishRequest is the manual publish request body. Payload is forwarded
// verbatim as the event body; Topic defaults to the manual publish topic.
type PublishRequest struct {
	Topic   string          `json:"topic" validate:"omitempty,max=128"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

// publishableTopics are the topics the manual publish endpoint may write
// to. Effect and item topics are pipeline-internal and excluded.
var publishableTopics = map[string]bool{
	eventstream.TopicDefault:        true,
	eventstream.TopicViewEvents:     true,
	eventstream.TopicPurchaseEvents: true,
}

// PublishMessage handles manual event publishing for test data injection
// and operational backfills.
func (h *Handler) PublishMessage(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Publisher not available", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPublishBodyBytes)

	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "payload is required", nil)
		return
	}

	topic := req.Topic
	if topic == "" {
		topic = eventstream.TopicDefault
	}
	if !publishableTopics[topic] {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Topic not publishable", nil)
		return
	}

	msg := message.NewMessage(uuid.New().String(), []byte(req.Payload))
	if err := h.publisher.Publish(r.Context(), topic, msg); err != nil {
		respondError(w, http.StatusBadGateway, "PUBLISH_ERROR", "Failed to publish message", err)
		return
	}

	logging.Info().
		Str("topic", topic).
		Str("message_uuid", msg.UUID).
		Msg("Manual message published")

	respondJSON(w, http.StatusAccepted, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"topic":       topic,
			"messageUuid": msg.UUID,
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
