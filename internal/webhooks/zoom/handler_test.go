package zoom

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/telassist/callarchive/internal/queue"
)

const testSecret = "test-webhook-secret"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func recordingBody(t *testing.T) []byte {
	t.Helper()
	event := Event{
		Event: EventRecordingCompleted,
		Payload: Payload{
			Object: Object{
				Recordings: []Recording{{
					Owner:        Owner{ExtensionNumber: "101", Name: "Alice Brown"},
					CallerNumber: "0400000000",
					CalleeNumber: "101",
					Direction:    "inbound",
					Duration:     65,
				}},
			},
		},
	}
	body, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return body
}

func signedRequest(t *testing.T, body []byte, timestamp string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set(TimestampHeader, timestamp)
	req.Header.Set(SignatureHeader, Signature(testSecret, timestamp, body))
	req.Header.Set(TrackingIDHeader, "v1call123+leg456")
	return req
}

func TestHandleAcknowledgesAndEnqueuesRecordingEvent(t *testing.T) {
	t.Parallel()

	var jobs []queue.Job
	var gotCallID string
	h := NewHandler(testSecret, testLogger(),
		func(job queue.Job) { jobs = append(jobs, job) },
		func(ctx context.Context, event Event, callID string) error {
			gotCallID = callID
			return nil
		})

	rec := httptest.NewRecorder()
	if err := h.Handle(rec, signedRequest(t, recordingBody(t), "1700000000")); err != nil {
		t.Fatalf("handle request: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}
	var ack struct {
		Message string `json:"message"`
		Status  int    `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Message != "OK" || ack.Status != http.StatusOK {
		t.Fatalf("unexpected ack: %+v", ack)
	}

	if len(jobs) != 1 {
		t.Fatalf("unexpected job count: got=%d want=1", len(jobs))
	}
	if err := jobs[0](context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if gotCallID != "v1call123" {
		t.Fatalf("tracking id not truncated at '+': got=%q want=%q", gotCallID, "v1call123")
	}
}

func TestHandleRejectsMutatedBody(t *testing.T) {
	t.Parallel()

	h := NewHandler(testSecret, testLogger(),
		func(queue.Job) { t.Fatal("unexpected enqueue") },
		nil)

	body := recordingBody(t)
	req := signedRequest(t, body, "1700000000")

	// Flip one byte after signing.
	mutated := bytes.Replace(body, []byte("Alice"), []byte("Alicf"), 1)
	req.Body = io.NopCloser(bytes.NewReader(mutated))

	rec := httptest.NewRecorder()
	if err := h.Handle(rec, req); err != nil {
		t.Fatalf("handle request: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
	}
}

func TestHandleRejectsMutatedTimestamp(t *testing.T) {
	t.Parallel()

	h := NewHandler(testSecret, testLogger(),
		func(queue.Job) { t.Fatal("unexpected enqueue") },
		nil)

	req := signedRequest(t, recordingBody(t), "1700000000")
	req.Header.Set(TimestampHeader, "1700000001")

	rec := httptest.NewRecorder()
	if err := h.Handle(rec, req); err != nil {
		t.Fatalf("handle request: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
	}
}

func TestHandleAnswersValidationChallengeWithoutEnqueueing(t *testing.T) {
	t.Parallel()

	h := NewHandler(testSecret, testLogger(),
		func(queue.Job) { t.Fatal("validation challenge must not enqueue") },
		nil)

	body, err := json.Marshal(Event{
		Event:   EventURLValidation,
		Payload: Payload{PlainToken: "abc123"},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	rec := httptest.NewRecorder()
	if err := h.Handle(rec, signedRequest(t, body, "1700000000")); err != nil {
		t.Fatalf("handle request: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}

	var reply struct {
		PlainToken     string `json:"plainToken"`
		EncryptedToken string `json:"encryptedToken"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.PlainToken != "abc123" {
		t.Fatalf("unexpected plain token %q", reply.PlainToken)
	}
	if reply.EncryptedToken != ValidationToken(testSecret, "abc123") {
		t.Fatalf("unexpected encrypted token %q", reply.EncryptedToken)
	}
}

func TestHandleSkipsEnqueueOnMalformedTrackingID(t *testing.T) {
	t.Parallel()

	h := NewHandler(testSecret, testLogger(),
		func(queue.Job) { t.Fatal("malformed tracking id must not enqueue") },
		nil)

	req := signedRequest(t, recordingBody(t), "1700000000")
	req.Header.Set(TrackingIDHeader, "no-delimiter-here")

	rec := httptest.NewRecorder()
	if err := h.Handle(rec, req); err != nil {
		t.Fatalf("handle request: %v", err)
	}
	// Still acknowledged; the failure is contained in the processing path.
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}
}

func TestParseTrackingID(t *testing.T) {
	t.Parallel()

	id, err := ParseTrackingID("abc+def+ghi")
	if err != nil {
		t.Fatalf("parse tracking id: %v", err)
	}
	if id != "abc" {
		t.Fatalf("expected truncation at first '+': got=%q", id)
	}
	if _, err := ParseTrackingID("abcdef"); err == nil {
		t.Fatal("expected error for header without '+'")
	}
}
