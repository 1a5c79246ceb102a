package notification

import (
	"context"
	"log"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/safe-eats/api/internal/model"
	"github.com/safe-eats/api/pkg/timeconv"
)

// FCM rejects multicast batches above this size.
const chunkSize = 500

// Push destinations are opaque, but anything empty, oversized or containing
// whitespace is certainly not deliverable.
const maxTokenLen = 4096

// Sender submits one batch of push messages. Satisfied by the FCM messaging
// client; tests substitute a stub.
type Sender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Dispatcher sends best-effort push notifications for cook-cycle
// transitions. Delivery is fire-and-forget: callers never learn about (and
// are never failed by) provider errors, which are logged per chunk.
type Dispatcher struct {
	sender Sender
}

// New initializes the FCM-backed dispatcher. A missing credentials file or a
// failed Firebase bootstrap disables push (nil-safe dispatcher) instead of
// blocking server startup.
func New(credentialsFile string) *Dispatcher {
	if credentialsFile == "" {
		log.Println("⚠️  Firebase credentials not provided, push notifications disabled")
		return &Dispatcher{}
	}

	app, err := firebase.NewApp(context.Background(), nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		log.Printf("⚠️  Failed to initialize Firebase app: %v (push notifications disabled)", err)
		return &Dispatcher{}
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("⚠️  Failed to get messaging client: %v (push notifications disabled)", err)
		return &Dispatcher{}
	}

	log.Println("✅ Firebase FCM initialized")
	return &Dispatcher{sender: client}
}

// NewWithSender wires an explicit sender. Used by tests.
func NewWithSender(sender Sender) *Dispatcher {
	return &Dispatcher{sender: sender}
}

// CookingStart notifies every watcher that a cook cycle began.
func (d *Dispatcher) CookingStart(ctx context.Context, tokens []string, appliance *model.Appliance, recipe *model.Recipe) {
	d.Send(ctx, tokens,
		appliance.Name+" heating "+recipe.Name,
		"Cooking duration "+timeconv.MsToHMS(recipe.CookingTime)+" (HH:MM:SS)")
}

// CookingEnd notifies every watcher that a cook cycle finished.
func (d *Dispatcher) CookingEnd(ctx context.Context, tokens []string, appliance *model.Appliance) {
	d.Send(ctx, tokens, appliance.Name+" done cooking", "")
}

// Send filters invalid destinations, chunks the rest into provider-sized
// batches and submits each batch independently; one failing chunk never
// blocks the others.
func (d *Dispatcher) Send(ctx context.Context, tokens []string, title, body string) {
	if d == nil || d.sender == nil {
		return
	}

	valid := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !isValidPushToken(token) {
			log.Printf("⚠️  Skipping invalid push token %q", truncate(token, 32))
			continue
		}
		valid = append(valid, token)
	}
	if len(valid) == 0 {
		return
	}

	for start := 0; start < len(valid); start += chunkSize {
		end := start + chunkSize
		if end > len(valid) {
			end = len(valid)
		}
		chunk := valid[start:end]

		msg := &messaging.MulticastMessage{
			Tokens: chunk,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Android: &messaging.AndroidConfig{Priority: "high"},
			APNS: &messaging.APNSConfig{
				Payload: &messaging.APNSPayload{
					Aps: &messaging.Aps{Sound: "default"},
				},
			},
		}

		br, err := d.sender.SendEachForMulticast(ctx, msg)
		if err != nil {
			log.Printf("⚠️  Push chunk of %d failed: %v", len(chunk), err)
			continue
		}
		if br.FailureCount > 0 {
			for i, resp := range br.Responses {
				if !resp.Success {
					log.Printf("⚠️  Push failure for token %q: %v", truncate(chunk[i], 32), resp.Error)
				}
			}
		}
	}
}

func isValidPushToken(token string) bool {
	if token == "" || len(token) > maxTokenLen {
		return false
	}
	return !strings.ContainsAny(token, " \t\r\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
