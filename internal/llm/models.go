// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package llm

const (
	// ModelFlash is the fast chat tier.
	ModelFlash = "gemini-2.5-flash"
	// ModelPro is the capable chat tier.
	ModelPro = "gemini-2.5-pro"
	// ModelLive is the realtime audio model.
	ModelLive = "gemini-live-2.5-flash-preview"

	modelImageGen  = "imagen-4.0-generate-001"
	modelImageEdit = "gemini-2.5-flash-image"
	modelVideoGen  = "veo-2.0-generate-001"
	modelTTS       = "gemini-2.5-flash-preview-tts"

	ttsVoice = "Kore"

	// thinkingBudgetTokens is the extended reasoning budget requested when
	// the thinking flag is set.
	thinkingBudgetTokens = 32768
)

// chatModel resolves the model tier for a chat turn. Video analysis requires
// the capable tier, so a video attachment silently upgrades the fast tier.
// The thinking flag always selects the capable tier.
func chatModel(requested string, hasVideo bool, thinking bool) string {
	if thinking {
		return ModelPro
	}
	if requested == "" {
		requested = ModelFlash
	}
	if hasVideo && requested == ModelFlash {
		return ModelPro
	}
	return requested
}
