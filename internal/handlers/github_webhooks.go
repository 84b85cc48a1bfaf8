package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jagadeesh/activity-router/internal/bus"
	"github.com/jagadeesh/activity-router/internal/config"
	"github.com/jagadeesh/activity-router/internal/events"
)

type Ingester interface {
	Ingest(ctx context.Context, e events.GitHubWebhookReceived) error
}

type GitHubWebhooksHandler struct {
	secret string
	bus    bus.Bus
	ing    Ingester
}

// NewGitHubWebhooksHandler publishes verified webhooks to b. Without a bus
// the webhook is ingested inline by ing.
func NewGitHubWebhooksHandler(cfg config.Config, b bus.Bus, ing Ingester) *GitHubWebhooksHandler {
	return &GitHubWebhooksHandler{secret: cfg.GitHubWebhookSecret, bus: b, ing: ing}
}

func (h *GitHubWebhooksHandler) Receive() fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := c.Body()
		delivery := strings.TrimSpace(c.Get("X-GitHub-Delivery"))
		event := strings.TrimSpace(c.Get("X-GitHub-Event"))
		sig := strings.TrimSpace(c.Get("X-Hub-Signature-256"))

		if h.secret == "" {
			slog.Error("github webhook secret not configured, rejecting request",
				"delivery_id", delivery,
				"event", event,
			)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "webhook_secret_not_configured"})
		}

		if !verifyGitHubSignature(h.secret, body, sig) {
			slog.Warn("github webhook signature verification failed",
				"delivery_id", delivery,
				"event", event,
				"has_signature_256", sig != "",
				"body_size", len(body),
				"remote_ip", c.IP(),
			)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
		}

		if event == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_event"})
		}

		// Hooks configured with the form content type wrap the JSON in a
		// "payload" field. The signature covers the raw body either way.
		payload := body
		if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationForm) {
			payload = []byte(c.FormValue("payload"))
		}

		ev := events.NewGitHubWebhookReceived(delivery, event, payload)
		slog.Info("github webhook received",
			"delivery_id", ev.DeliveryID,
			"event", ev.Event,
			"action", ev.Action,
			"repo_full_name", ev.RepoFullName,
		)

		// Preferred path: publish to NATS and return immediately.
		if h.bus != nil {
			b, err := json.Marshal(ev)
			if err != nil {
				slog.Warn("webhook payload is not valid json", "delivery_id", delivery, "error", err)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_json"})
			}
			if err := h.bus.Publish(c.Context(), events.SubjectGitHubWebhookReceived, b); err != nil {
				slog.Error("failed to publish webhook event",
					"delivery_id", delivery,
					"subject", events.SubjectGitHubWebhookReceived,
					"error", err,
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "publish_failed"})
			}
			return c.SendStatus(fiber.StatusOK)
		}

		if h.ing == nil {
			slog.Warn("no webhook ingestor configured, webhook dropped",
				"delivery_id", delivery,
				"event", event,
			)
			return c.SendStatus(fiber.StatusOK)
		}

		if err := h.ing.Ingest(c.Context(), ev); err != nil {
			slog.Error("failed to ingest github webhook",
				"delivery_id", delivery,
				"event", event,
				"error", err,
			)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "ingest_failed"})
		}
		return c.SendStatus(fiber.StatusOK)
	}
}

func verifyGitHubSignature(secret string, body []byte, header string) bool {
	// GitHub uses: X-Hub-Signature-256: sha256=<hex>
	if !strings.HasPrefix(header, "sha256=") {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(header, "sha256="))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
