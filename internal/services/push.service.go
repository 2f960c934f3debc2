package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"gymbro/config"

	logger "github.com/Bparsons0904/goLogger"
)

const (
	defaultExpoPushURL = "https://exp.host/--/api/v2/push/send"
	// Expo rejects batches larger than 100 messages
	expoMaxBatchSize = 100
)

// PushMessage is one notification addressed to an Expo push token.
type PushMessage struct {
	To    string         `json:"to"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Sound string         `json:"sound,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

type expoPushTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

type expoPushResponse struct {
	Data []expoPushTicket `json:"data"`
}

// PushService delivers notifications through the Expo push API.
type PushService struct {
	pushURL    string
	httpClient *http.Client
	log        logger.Logger
}

func NewPushService(cfg config.Config) *PushService {
	pushURL := cfg.ExpoPushURL
	if pushURL == "" {
		pushURL = defaultExpoPushURL
	}

	return &PushService{
		pushURL:    pushURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.New("PushService"),
	}
}

// Send delivers the given messages in Expo-sized batches. Individual ticket
// errors are logged and counted but do not fail the whole send.
func (ps *PushService) Send(ctx context.Context, messages []PushMessage) (int, error) {
	log := ps.log.Function("Send")

	if len(messages) == 0 {
		return 0, nil
	}

	sent := 0
	for start := 0; start < len(messages); start += expoMaxBatchSize {
		end := min(start+expoMaxBatchSize, len(messages))

		delivered, err := ps.sendBatch(ctx, messages[start:end])
		if err != nil {
			return sent, log.Err("failed to send push batch", err, "batchStart", start)
		}
		sent += delivered
	}

	log.Info("Push notifications sent", "requested", len(messages), "delivered", sent)
	return sent, nil
}

func (ps *PushService) sendBatch(ctx context.Context, batch []PushMessage) (int, error) {
	log := ps.log.Function("sendBatch")

	payload, err := json.Marshal(batch)
	if err != nil {
		return 0, log.Err("failed to marshal push messages", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", ps.pushURL, bytes.NewReader(payload))
	if err != nil {
		return 0, log.Err("failed to create push request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := ps.httpClient.Do(req)
	if err != nil {
		return 0, log.Err("failed to call push API", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Info("failed to close push response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, log.Error("push API request failed", "statusCode", resp.StatusCode)
	}

	var pushResponse expoPushResponse
	if err := json.NewDecoder(resp.Body).Decode(&pushResponse); err != nil {
		return 0, log.Err("failed to decode push response", err)
	}

	delivered := 0
	for i, ticket := range pushResponse.Data {
		if ticket.Status == "ok" {
			delivered++
			continue
		}
		log.Warn("push ticket rejected",
			"index", i,
			"status", ticket.Status,
			"message", ticket.Message,
		)
	}

	return delivered, nil
}
