package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatModel(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		hasVideo  bool
		thinking  bool
		want      string
	}{
		{name: "default", want: ModelFlash},
		{name: "requested pro", requested: ModelPro, want: ModelPro},
		{name: "video upgrades flash", requested: ModelFlash, hasVideo: true, want: ModelPro},
		{name: "video upgrades default", hasVideo: true, want: ModelPro},
		{name: "video keeps pro", requested: ModelPro, hasVideo: true, want: ModelPro},
		{name: "thinking forces pro", requested: ModelFlash, thinking: true, want: ModelPro},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, chatModel(tc.requested, tc.hasVideo, tc.thinking))
		})
	}
}
