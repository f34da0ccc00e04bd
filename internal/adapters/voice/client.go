// Package voice talks to the outbound-calling provider: it starts calls
// through the provider's conversational agent and polls for the finished
// transcript.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avasquez/festa-agent/internal/domain"
	"github.com/avasquez/festa-agent/internal/observability"
)

const defaultBaseURL = "https://api.elevenlabs.io"

type Provider struct {
	apiKey       string
	agentID      string
	agentPhoneID string
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
}

type Options struct {
	APIKey       string
	AgentID      string
	AgentPhoneID string
	BaseURL      string // override for tests
	PollInterval time.Duration
}

func NewProvider(opts Options) (*Provider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("voice provider API key is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	return &Provider{
		apiKey:       opts.APIKey,
		agentID:      opts.AgentID,
		agentPhoneID: opts.AgentPhoneID,
		baseURL:      opts.BaseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: opts.PollInterval,
	}, nil
}

type initiatePayload struct {
	AgentID            string         `json:"agent_id"`
	AgentPhoneNumberID string         `json:"agent_phone_number_id"`
	ToNumber           string         `json:"to_number"`
	ClientData         initiateExtras `json:"conversation_initiation_client_data"`
}

type initiateExtras struct {
	Type             string            `json:"type"`
	DynamicVariables map[string]string `json:"dynamic_variables"`
}

type initiateResponse struct {
	ConversationID string `json:"conversation_id"`
	CallSID        string `json:"callSid"`
}

// Initiate starts an outbound call and returns the provider's session id.
func (p *Provider) Initiate(ctx context.Context, instructions string, target domain.Place) (domain.CallSessionID, error) {
	log := observability.LoggerFromContext(ctx).With("place", target.Name)

	payload := initiatePayload{
		AgentID:            p.agentID,
		AgentPhoneNumberID: p.agentPhoneID,
		ToNumber:           target.Phone,
		ClientData: initiateExtras{
			Type: "conversation_initiation_client_data",
			DynamicVariables: map[string]string{
				"_notes_for_agent_": instructions,
				"_place_name_":      target.Name,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding call payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/convai/twilio/outbound-call", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building call request: %w", err)
	}
	req.Header.Set("xi-api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("initiating call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("initiating call: provider returned %s", resp.Status)
	}

	var out initiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding call response: %w", err)
	}
	if out.ConversationID == "" {
		return "", fmt.Errorf("provider returned no conversation id")
	}

	log.Info("call initiated", "session_id", out.ConversationID)
	return domain.CallSessionID(out.ConversationID), nil
}

type conversationResponse struct {
	Status     string                  `json:"status"`
	Transcript []domain.TranscriptItem `json:"transcript"`
	Analysis   *struct {
		Transcript []domain.TranscriptItem `json:"transcript"`
	} `json:"analysis"`
}

// AwaitCompletion polls the conversation until it reaches a terminal
// status. Exceeding the timeout is an error the caller treats as a
// per-candidate failure, not a fatal one.
func (p *Provider) AwaitCompletion(ctx context.Context, id domain.CallSessionID, timeout time.Duration) (*domain.CallRecord, error) {
	log := observability.LoggerFromContext(ctx).With("session_id", id)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		record, terminal, err := p.fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		if terminal {
			log.Info("call finished", "status", record.Status)
			return record, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("call did not finish within %s", timeout)
		case <-ticker.C:
		}
	}
}

func (p *Provider) fetch(ctx context.Context, id domain.CallSessionID) (*domain.CallRecord, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/convai/conversations/%s", p.baseURL, id), nil)
	if err != nil {
		return nil, false, fmt.Errorf("building status request: %w", err)
	}
	req.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetching conversation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, fmt.Errorf("conversation %s not found", id)
	}
	if resp.StatusCode != http.StatusOK {
		// Transient provider hiccup; keep polling.
		return nil, false, nil
	}

	var out conversationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("decoding conversation: %w", err)
	}

	switch out.Status {
	case "done", "failed", "error":
		transcript := out.Transcript
		if len(transcript) == 0 && out.Analysis != nil {
			transcript = out.Analysis.Transcript
		}
		return &domain.CallRecord{Status: out.Status, Transcript: transcript}, true, nil
	default:
		return nil, false, nil
	}
}
