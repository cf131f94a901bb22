package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/usecase"
	"github.com/aide-lab/kairos/pkg/utils/async"
	"github.com/aide-lab/kairos/pkg/utils/errutil"
	"github.com/aide-lab/kairos/pkg/utils/logging"
	"github.com/aide-lab/kairos/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack/slackevents"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const slackBodyKey contextKey = "slack_body"

// verifySlackSignature verifies the Slack request signature
// This is a pure function that can be used independently for testing
func verifySlackSignature(signingSecret, timestamp, signature string, body []byte) error {
	if timestamp == "" {
		return goerr.New("missing timestamp")
	}

	if signature == "" {
		return goerr.New("missing signature")
	}

	// Check timestamp to prevent replay attacks (within 5 minutes)
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return goerr.Wrap(err, "invalid timestamp")
	}

	now := time.Now().Unix()
	if now-ts > 60*5 {
		return goerr.New("timestamp too old", goerr.V("timestamp", timestamp), goerr.V("now", now))
	}

	// Compute expected signature
	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(signingSecret))
	if _, err := mac.Write([]byte(baseString)); err != nil {
		return goerr.Wrap(err, "failed to compute HMAC")
	}
	expectedSignature := "v0=" + hex.EncodeToString(mac.Sum(nil))

	// Compare signatures
	if !hmac.Equal([]byte(expectedSignature), []byte(signature)) {
		return goerr.New("signature mismatch")
	}

	return nil
}

// SlackSignatureMiddleware creates a middleware that verifies Slack request signatures
func SlackSignatureMiddleware(signingSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
				return
			}
			defer safe.Close(ctx, r.Body)

			timestamp := r.Header.Get("X-Slack-Request-Timestamp")
			signature := r.Header.Get("X-Slack-Signature")

			if err := verifySlackSignature(signingSecret, timestamp, signature, body); err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "slack signature verification failed"), http.StatusUnauthorized)
				return
			}

			// Store body in context for later use and restore it to the request
			ctx = context.WithValue(ctx, slackBodyKey, body)
			r.Body = io.NopCloser(bytes.NewBuffer(body))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SlackWebhookHandler handles Slack Events API webhook requests. The request
// is acknowledged immediately; message processing happens on the task queue
// after winning an event-ID claim, so Slack's retries never double-process.
type SlackWebhookHandler struct {
	uc    *usecase.UseCases
	queue *async.Queue
}

// NewSlackWebhookHandler creates a new Slack webhook handler
func NewSlackWebhookHandler(uc *usecase.UseCases, queue *async.Queue) *SlackWebhookHandler {
	return &SlackWebhookHandler{
		uc:    uc,
		queue: queue,
	}
}

// ServeHTTP handles Slack webhook requests
func (h *SlackWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Read body (already verified by middleware)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}

	eventsAPIEvent, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse slack event"), http.StatusBadRequest)
		return
	}

	switch eventsAPIEvent.Type {
	case slackevents.URLVerification:
		var resp *slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to unmarshal challenge"), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		safe.Write(ctx, w, []byte(resp.Challenge))
		return

	case slackevents.CallbackEvent:
		// Return 200 immediately to satisfy Slack's 3-second timeout requirement
		w.WriteHeader(http.StatusOK)
		h.handleCallback(ctx, body, &eventsAPIEvent)

	default:
		logging.From(ctx).Warn("unknown slack event type", "type", eventsAPIEvent.Type)
		w.WriteHeader(http.StatusOK)
	}
}

// handleCallback claims and enqueues a callback event after the response has
// been committed
func (h *SlackWebhookHandler) handleCallback(ctx context.Context, body []byte, event *slackevents.EventsAPIEvent) {
	logger := logging.From(ctx)

	msg, ok := event.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		logger.Info("ignoring slack event", "inner_type", event.InnerEvent.Type)
		return
	}

	// Only plain user DMs; edits, joins and bot echoes (including our own
	// replies) are dropped here.
	if msg.ChannelType != "im" || msg.BotID != "" || msg.SubType != "" || msg.User == "" {
		return
	}

	// The envelope event_id is the platform's unique delivery identifier
	var envelope struct {
		EventID string `json:"event_id"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.EventID == "" {
		logger.Error("callback event without event_id, dropped")
		return
	}

	userID := model.UserID(msg.User)
	claimed, err := h.uc.ClaimInboundEvent(ctx, userID, envelope.EventID)
	if err != nil {
		logger.Error("failed to claim inbound event",
			"event_id", envelope.EventID, "error", err.Error())
		return
	}
	if !claimed {
		logger.Info("duplicate event delivery, skipped", "event_id", envelope.EventID)
		return
	}

	teamID := event.TeamID
	text := msg.Text
	task := async.Task{
		Key: envelope.EventID,
		Fn: func(ctx context.Context) error {
			return h.uc.HandleDirectMessage(ctx, teamID, userID, text)
		},
	}
	if !h.queue.Enqueue(task) {
		// The event ID is already claimed, so a dropped task would never be
		// retried by the platform. Run it detached instead.
		async.Dispatch(ctx, task.Fn)
	}
}
