package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gymbro/config"

	logger "github.com/Bparsons0904/goLogger"
)

const (
	geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent"

	elevenLabsEndpoint = "https://api.elevenlabs.io/v1/text-to-speech"
	defaultVoiceID     = "pNInz6obpgDQGcFmaJgB"

	fallbackMessage = "Keep pushing forward! Every workout counts towards your fitness goals. You've got this!"
)

// MemberStanding is one member's current streak, used to build the
// generation prompt.
type MemberStanding struct {
	DisplayName   string `json:"displayName"`
	CurrentStreak int    `json:"currentStreak"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// MotivationService generates short motivational messages for groups and
// optionally renders them to speech. Without API keys it degrades to a
// static fallback message and no audio.
type MotivationService struct {
	geminiAPIKey     string
	elevenLabsAPIKey string
	httpClient       *http.Client
	log              logger.Logger
}

func NewMotivationService(cfg config.Config) *MotivationService {
	return &MotivationService{
		geminiAPIKey:     cfg.GeminiAPIKey,
		elevenLabsAPIKey: cfg.ElevenLabsAPIKey,
		httpClient:       &http.Client{Timeout: 60 * time.Second},
		log:              logger.New("MotivationService"),
	}
}

// GenerateMessage produces a short motivational message for the group from
// its current streak standings. Generation failures never propagate; the
// fallback message is returned instead so the daily job always has content.
func (ms *MotivationService) GenerateMessage(
	ctx context.Context,
	groupName string,
	standings []MemberStanding,
) string {
	log := ms.log.Function("GenerateMessage")

	if ms.geminiAPIKey == "" {
		return fallbackMessage
	}

	streakParts := make([]string, 0, len(standings))
	for _, standing := range standings {
		streakParts = append(
			streakParts,
			fmt.Sprintf("%s: %d day streak", standing.DisplayName, standing.CurrentStreak),
		)
	}

	prompt := fmt.Sprintf(
		"Generate a short, motivational message (max 100 characters) for a fitness group called %q. "+
			"Current streaks: %s. "+
			"Make it encouraging, positive, and fitness-focused. Do not use emojis, the text may be read aloud.",
		groupName,
		strings.Join(streakParts, ", "),
	)

	message, err := ms.callGemini(ctx, prompt)
	if err != nil {
		log.Warn("message generation failed, using fallback", "group", groupName, "error", err)
		return fallbackMessage
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return fallbackMessage
	}

	return message
}

func (ms *MotivationService) callGemini(ctx context.Context, prompt string) (string, error) {
	log := ms.log.Function("callGemini")

	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", log.Err("failed to marshal generation request", err)
	}

	url := geminiEndpoint + "?key=" + ms.geminiAPIKey
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return "", log.Err("failed to create generation request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ms.httpClient.Do(req)
	if err != nil {
		return "", log.Err("failed to call generation API", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Info("failed to close generation response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", log.Error("generation API request failed", "statusCode", resp.StatusCode)
	}

	var generated geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&generated); err != nil {
		return "", log.Err("failed to decode generation response", err)
	}

	if len(generated.Candidates) == 0 || len(generated.Candidates[0].Content.Parts) == 0 {
		return "", log.ErrMsg("generation response contained no candidates")
	}

	return generated.Candidates[0].Content.Parts[0].Text, nil
}

// GenerateVoiceClip renders the message to MP3 audio via ElevenLabs and
// returns the raw bytes. Callers decide where the clip is stored.
func (ms *MotivationService) GenerateVoiceClip(ctx context.Context, text string) ([]byte, error) {
	log := ms.log.Function("GenerateVoiceClip")

	if ms.elevenLabsAPIKey == "" {
		return nil, log.ErrMsg("voice generation not configured: missing ELEVENLABS_API_KEY")
	}

	payload, err := json.Marshal(map[string]any{
		"text":     text,
		"model_id": "eleven_monolingual_v1",
		"voice_settings": map[string]any{
			"stability":        0.5,
			"similarity_boost": 0.5,
		},
	})
	if err != nil {
		return nil, log.Err("failed to marshal voice request", err)
	}

	url := elevenLabsEndpoint + "/" + defaultVoiceID
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return nil, log.Err("failed to create voice request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", ms.elevenLabsAPIKey)

	resp, err := ms.httpClient.Do(req)
	if err != nil {
		return nil, log.Err("failed to call voice API", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Info("failed to close voice response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, log.Error("voice API request failed", "statusCode", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, log.Err("failed to read voice response body", err)
	}

	return audio, nil
}

// CanGenerateVoice reports whether voice rendering is configured.
func (ms *MotivationService) CanGenerateVoice() bool {
	return ms.elevenLabsAPIKey != ""
}
