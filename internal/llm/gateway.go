// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package llm

import (
	"context"
	"iter"
	"net/http"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"github.com/curioswitch/modalchat/internal/blob"
	"github.com/curioswitch/modalchat/internal/chatdb"
	"github.com/curioswitch/modalchat/internal/fault"
	"github.com/curioswitch/modalchat/internal/live"
)

// MediaPart is an inline media attachment to a generation call.
type MediaPart struct {
	// MIMEType is the media type of the data.
	MIMEType string

	// Data is the raw media bytes.
	Data []byte
}

// HistoryTurn is one prior turn of a conversation, stripped of media to
// bound payload size.
type HistoryTurn struct {
	Role chatdb.Role
	Text string
}

// ChatStreamRequest describes one streaming chat call.
type ChatStreamRequest struct {
	// History is the prior conversation as role/text pairs.
	History []HistoryTurn

	// Prompt is the new turn's text.
	Prompt string

	// Image is an optional inline image attachment.
	Image *MediaPart

	// Video is an optional inline video attachment.
	Video *MediaPart

	// Model is the requested chat model. Empty selects the fast tier.
	Model string

	// Thinking requests the capable tier with an extended reasoning budget.
	Thinking bool
}

// Chunk is one incremental result of a streaming chat call.
type Chunk struct {
	// Text is incremental response text, concatenated by the caller.
	Text string

	// Grounding are citation fragments that arrived with this chunk.
	Grounding []chatdb.GroundingChunk
}

// GeneratedImage is a single image returned by the backend.
type GeneratedImage struct {
	MIMEType string
	Data     []byte
}

// Audio is a captured audio artifact to transcribe.
type Audio struct {
	Filename string
	MIMEType string
	Data     []byte
}

// NewGateway returns a Gateway over the given clients. The genai client's
// credential is resolved from configuration at construction; video
// generation constructs a fresh client per call so a newly selected
// credential is picked up mid-session.
func NewGateway(genAI *genai.Client, oai openai.Client, blobs *blob.Store) *Gateway {
	return &Gateway{
		genAI:      genAI,
		oai:        oai,
		blobs:      blobs,
		httpClient: http.DefaultClient,
		apiKey:     genAI.ClientConfig().APIKey,
	}
}

// Gateway wraps one external call per generation modality. Every method
// normalizes failures into a fault.Error; a raw transport error never
// escapes.
type Gateway struct {
	genAI      *genai.Client
	oai        openai.Client
	blobs      *blob.Store
	httpClient *http.Client
	apiKey     string
}

func (g *Gateway) checkConfigured() error {
	if g.apiKey == "" {
		return fault.New(fault.KindConfiguration, "no Gemini API key is configured")
	}
	return nil
}

// ConnectLive opens a realtime audio session with the given system
// instruction.
func (g *Gateway) ConnectLive(ctx context.Context, systemPrompt string) (*live.Session, error) {
	if err := g.checkConfigured(); err != nil {
		return nil, err
	}
	return live.Dial(ctx, g.genAI, systemPrompt, ModelLive)
}

// ChatStream streams incremental text and citation chunks for a chat turn.
// The sequence is finite and not restartable; a new call is a new stream.
func (g *Gateway) ChatStream(ctx context.Context, req ChatStreamRequest) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		if err := g.checkConfigured(); err != nil {
			yield(Chunk{}, err)
			return
		}

		contents := make([]*genai.Content, 0, len(req.History)+1)
		for _, turn := range req.History {
			role := genai.Role(genai.RoleUser)
			if turn.Role == chatdb.RoleModel {
				role = genai.RoleModel
			}
			contents = append(contents, genai.NewContentFromText(turn.Text, role))
		}

		var parts []*genai.Part
		if req.Prompt != "" {
			parts = append(parts, genai.NewPartFromText(req.Prompt))
		}
		if req.Image != nil {
			parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType))
		}
		if req.Video != nil {
			parts = append(parts, genai.NewPartFromBytes(req.Video.Data, req.Video.MIMEType))
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))

		cfg := &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{
					GoogleSearch: &genai.GoogleSearch{},
				},
			},
		}
		if req.Thinking {
			cfg.ThinkingConfig = &genai.ThinkingConfig{
				ThinkingBudget: genai.Ptr[int32](thinkingBudgetTokens),
			}
		}

		model := chatModel(req.Model, req.Video != nil, req.Thinking)
		for res, err := range g.genAI.Models.GenerateContentStream(ctx, model, contents, cfg) {
			if err != nil {
				yield(Chunk{}, fault.Wrap(fault.KindUpstream, err))
				return
			}
			if !yield(chunkOf(res), nil) {
				return
			}
		}
	}
}

func chunkOf(res *genai.GenerateContentResponse) Chunk {
	var chunk Chunk
	for _, cand := range res.Candidates {
		if cand.Content != nil {
			for _, p := range cand.Content.Parts {
				chunk.Text += p.Text
			}
		}
		if gm := cand.GroundingMetadata; gm != nil {
			for _, gc := range gm.GroundingChunks {
				if w := gc.Web; w != nil && w.URI != "" {
					chunk.Grounding = append(chunk.Grounding, chatdb.GroundingChunk{Title: w.Title, URI: w.URI})
				}
				if rc := gc.RetrievedContext; rc != nil && rc.URI != "" {
					chunk.Grounding = append(chunk.Grounding, chatdb.GroundingChunk{Title: rc.Title, URI: rc.URI})
				}
			}
		}
	}
	return chunk
}

// GenerateImage generates a single image for the prompt.
func (g *Gateway) GenerateImage(ctx context.Context, prompt string, aspectRatio string) (*GeneratedImage, error) {
	if err := g.checkConfigured(); err != nil {
		return nil, err
	}
	res, err := g.genAI.Models.GenerateImages(ctx, modelImageGen, prompt, &genai.GenerateImagesConfig{
		AspectRatio: aspectRatio,
	})
	if err != nil {
		return nil, fault.Wrap(fault.KindUpstream, err)
	}
	if len(res.GeneratedImages) == 0 || res.GeneratedImages[0].Image == nil {
		return nil, fault.New(fault.KindGeneration, "the backend returned no images")
	}
	img := res.GeneratedImages[0].Image
	return &GeneratedImage{MIMEType: img.MIMEType, Data: img.ImageBytes}, nil
}

// EditImage generates a single image derived from the source image.
func (g *Gateway) EditImage(ctx context.Context, prompt string, source *MediaPart) (*GeneratedImage, error) {
	if err := g.checkConfigured(); err != nil {
		return nil, err
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(source.Data, source.MIMEType),
		}, genai.RoleUser),
	}
	res, err := g.genAI.Models.GenerateContent(ctx, modelImageEdit, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, fault.Wrap(fault.KindUpstream, err)
	}
	for _, cand := range res.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && len(p.InlineData.Data) > 0 {
				return &GeneratedImage{MIMEType: p.InlineData.MIMEType, Data: p.InlineData.Data}, nil
			}
		}
	}
	return nil, fault.New(fault.KindGeneration, "no image part found in the response")
}
