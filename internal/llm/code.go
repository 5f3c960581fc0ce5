// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package llm

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/curioswitch/modalchat/internal/fault"
)

// codeDirective constrains code generation output. It is attached verbatim
// to every call and is not user-overridable.
const codeDirective = `You are an expert web developer. Implement the user's request as a single,
complete, self-contained HTML document. Inline all CSS and JavaScript directly in the document.
Do not reference external files or libraries unless loaded from a public CDN.
Respond with only the raw source code of the document. Do not include explanatory prose,
markdown formatting, or code fences.`

// GenerateCode generates a self-contained source document for the prompt.
func (g *Gateway) GenerateCode(ctx context.Context, prompt string, thinking bool) (string, error) {
	if err := g.checkConfigured(); err != nil {
		return "", err
	}
	model := ModelFlash
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(codeDirective, genai.RoleModel),
	}
	if thinking {
		model = ModelPro
		cfg.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr[int32](thinkingBudgetTokens),
		}
	}
	res, err := g.genAI.Models.GenerateContent(ctx, model, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, cfg)
	if err != nil {
		return "", fault.Wrap(fault.KindUpstream, err)
	}
	var text string
	for _, cand := range res.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			text += p.Text
		}
	}
	if text == "" {
		return "", fault.New(fault.KindGeneration, "the backend returned no code")
	}
	return stripFences(text), nil
}

// stripFences drops a wrapping markdown code fence if the model added one
// despite the directive.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}
	trimmed = strings.TrimSuffix(trimmed, "```")
	if _, rest, ok := strings.Cut(trimmed, "\n"); ok {
		return strings.TrimSpace(rest)
	}
	return text
}
