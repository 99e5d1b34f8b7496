// Package zoom verifies and accepts Zoom Phone webhook deliveries. The
// handler answers the endpoint-ownership challenge synchronously, and for
// recording events acknowledges first and hands the real work to the archival
// queue so Zoom never observes processing latency.
package zoom

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/telassist/callarchive/internal/queue"
)

const (
	// SignatureHeader carries the v0 HMAC signature computed by Zoom.
	SignatureHeader = "X-Zm-Signature"
	// TimestampHeader is the request timestamp folded into the signature.
	TimestampHeader = "X-Zm-Request-Timestamp"
	// TrackingIDHeader correlates the delivery with a call-log entry.
	TrackingIDHeader = "X-Zm-Trackingid"

	maxPayloadBytes = 1 << 20
)

// ProcessFunc runs the enrichment/archival pipeline for one verified event.
type ProcessFunc func(ctx context.Context, event Event, callID string) error

// Handler verifies webhook deliveries and enqueues archival jobs.
type Handler struct {
	secret  string
	log     *slog.Logger
	enqueue func(queue.Job)
	process ProcessFunc
}

// NewHandler wires the shared webhook secret, the queue's enqueue function
// and the pipeline entry point.
func NewHandler(secret string, log *slog.Logger, enqueue func(queue.Job), process ProcessFunc) *Handler {
	return &Handler{
		secret:  secret,
		log:     log,
		enqueue: enqueue,
		process: process,
	}
}

// Signature computes the v0 webhook signature over the raw body:
// "v0=" + hex(HMAC-SHA256(secret, "v0:{timestamp}:{body}")).
func Signature(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:%s", timestamp, body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

// ValidationToken computes the challenge response token: the HMAC of the
// plain token itself, not of the envelope string.
func ValidationToken(secret, plainToken string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(plainToken))
	return hex.EncodeToString(mac.Sum(nil))
}

// Handle verifies the delivery and either answers the validation challenge or
// acknowledges and enqueues an archival job.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return nil
	}

	want := Signature(h.secret, r.Header.Get(TimestampHeader), body)
	if !hmac.Equal([]byte(want), []byte(r.Header.Get(SignatureHeader))) {
		h.log.Warn("webhook signature mismatch, dropping request")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return nil
	}

	if event.Event == EventURLValidation {
		h.log.Info("answering endpoint validation challenge")
		return writeJSON(w, http.StatusOK, map[string]string{
			"plainToken":     event.Payload.PlainToken,
			"encryptedToken": ValidationToken(h.secret, event.Payload.PlainToken),
		})
	}

	// Acknowledge before any processing happens; the job runs on the queue
	// worker well after this response has gone out.
	if err := writeJSON(w, http.StatusOK, map[string]any{
		"message": "OK",
		"status":  http.StatusOK,
	}); err != nil {
		return err
	}

	h.log.Info("webhook received, processing", "event", event.Event)

	if len(event.Payload.Object.Recordings) == 0 {
		h.log.Warn("event carries no recordings, nothing to archive", "event", event.Event)
		return nil
	}

	callID, err := ParseTrackingID(r.Header.Get(TrackingIDHeader))
	if err != nil {
		h.log.Error("cannot derive call id, skipping event", "error", err)
		return nil
	}

	h.enqueue(func(ctx context.Context) error {
		return h.process(ctx, event, callID)
	})
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}
