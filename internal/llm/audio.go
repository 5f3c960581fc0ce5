// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package llm

import (
	"bytes"
	"context"
	"encoding/base64"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"github.com/curioswitch/modalchat/internal/fault"
)

// Transcribe returns the text transcript of a captured audio artifact.
func (g *Gateway) Transcribe(ctx context.Context, audio *Audio) (string, error) {
	res, err := g.oai.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModelWhisper1,
		File:  openai.File(bytes.NewReader(audio.Data), audio.Filename, audio.MIMEType),
	})
	if err != nil {
		return "", fault.Wrap(fault.KindUpstream, err)
	}
	return res.Text, nil
}

// Synthesize returns base64-encoded audio speaking the given text at the
// fixed voice profile.
func (g *Gateway) Synthesize(ctx context.Context, text string) (string, error) {
	if err := g.checkConfigured(); err != nil {
		return "", err
	}
	res, err := g.genAI.Models.GenerateContent(ctx, modelTTS, []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}, &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: ttsVoice,
				},
			},
		},
	})
	if err != nil {
		return "", fault.Wrap(fault.KindUpstream, err)
	}
	for _, cand := range res.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && len(p.InlineData.Data) > 0 {
				return base64.StdEncoding.EncodeToString(p.InlineData.Data), nil
			}
		}
	}
	return "", fault.New(fault.KindGeneration, "the backend returned no audio data")
}
