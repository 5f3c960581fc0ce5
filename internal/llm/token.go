package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/genai"

	"github.com/curioswitch/modalchat/internal/fault"
)

// LiveToken is a single-use ephemeral credential for a browser client to
// open a realtime audio session directly against the backend.
type LiveToken struct {
	// Token is the ephemeral credential.
	Token string `json:"token"`

	// Model is the realtime model the token was minted for.
	Model string `json:"model"`
}

// MintLiveToken issues a single-use live session token bound to the given
// system instruction.
//
// Until the genai Go SDK supports token creation, the request is issued
// manually.
func (g *Gateway) MintLiveToken(ctx context.Context, systemPrompt string) (*LiveToken, error) {
	if err := g.checkConfigured(); err != nil {
		return nil, err
	}
	cfg := tokenConfig{
		Uses: 1,
		BidiGenerateContentSetup: &bidiGenerateContentSetup{
			Model: "models/" + ModelLive,
			SystemInstruction: &genai.Content{
				Role: "model",
				Parts: []*genai.Part{
					{
						Text: systemPrompt,
					},
				},
			},
			GenerationConfig: genai.LiveConnectConfig{
				ResponseModalities: []genai.Modality{genai.ModalityAudio},
			},
		},
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("llm: marshalling token config: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://generativelanguage.googleapis.com/v1alpha/auth_tokens", bytes.NewReader(cfgJSON))
	if err != nil {
		return nil, fmt.Errorf("llm: creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", g.apiKey)
	res, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fault.Wrap(fault.KindUpstream, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode != http.StatusOK {
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, fmt.Errorf("llm: reading token response body: %w", err)
		}
		return nil, fault.Newf(fault.KindUpstream, "token request failed with status %d: %s", res.StatusCode, body)
	}
	var tokenRes tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&tokenRes); err != nil {
		return nil, fmt.Errorf("llm: decoding token response: %w", err)
	}
	return &LiveToken{
		Token: tokenRes.Name,
		Model: ModelLive,
	}, nil
}

type bidiGenerateContentSetup struct {
	Model             string                  `json:"model"`
	SystemInstruction *genai.Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  genai.LiveConnectConfig `json:"generationConfig"`
}

type tokenConfig struct {
	Uses                     int                       `json:"uses"`
	BidiGenerateContentSetup *bidiGenerateContentSetup `json:"bidiGenerateContentSetup,omitempty"`
}

type tokenResponse struct {
	Name string `json:"name"`
}
