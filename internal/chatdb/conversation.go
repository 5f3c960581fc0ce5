// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package chatdb

import (
	"time"

	"github.com/google/uuid"
)

// Role is the role of a message sender.
type Role string

const (
	// RoleUser represents a user turn.
	RoleUser Role = "user"
	// RoleModel represents a model turn.
	RoleModel Role = "model"
)

// MessageKind discriminates the payload a Message carries. Messages are only
// built through the per-kind constructors so a message never mixes payloads
// from different modalities.
type MessageKind string

const (
	// MessageKindText is a plain text turn, optionally with user media
	// references attached.
	MessageKindText MessageKind = "text"
	// MessageKindImage is a model turn carrying a generated image.
	MessageKindImage MessageKind = "image"
	// MessageKindVideo is a model turn carrying a generated video.
	MessageKindVideo MessageKind = "video"
	// MessageKindCode is a model turn carrying generated source code.
	MessageKindCode MessageKind = "code"
	// MessageKindError is a model turn recording a failed pathway attempt.
	MessageKindError MessageKind = "error"
)

// GroundingChunk is a citation fragment attached to a generated answer.
type GroundingChunk struct {
	// Title is the display title of the source.
	Title string `firestore:"title" json:"title"`

	// URI is the address of the source.
	URI string `firestore:"uri" json:"uri"`
}

// UserMedia holds playable references to media the user attached to a turn.
type UserMedia struct {
	// ImageURL references an attached image.
	ImageURL string

	// VideoURL references an attached video.
	VideoURL string

	// AudioURL references a recorded audio clip.
	AudioURL string
}

// Message represents one entry in a conversation transcript. A message is
// append-only once written; streaming updates replace the message at the same
// ID rather than creating a duplicate.
type Message struct {
	// ID is the unique identifier for the message.
	ID string `firestore:"id" json:"id"`

	// Role is the role of the message sender.
	Role Role `firestore:"role" json:"role"`

	// Kind selects which payload fields below are meaningful.
	Kind MessageKind `firestore:"kind" json:"kind"`

	// Text is the text content of the message. Empty for a message that only
	// records an error.
	Text string `firestore:"text" json:"text"`

	// ImageURL references an image the user attached to this turn.
	ImageURL string `firestore:"imageUrl,omitempty" json:"imageUrl,omitempty"`

	// VideoURL references a video the user attached to this turn.
	VideoURL string `firestore:"videoUrl,omitempty" json:"videoUrl,omitempty"`

	// AudioURL references a recorded audio clip the user attached to this
	// turn.
	AudioURL string `firestore:"audioUrl,omitempty" json:"audioUrl,omitempty"`

	// GeneratedImageURL references a generated image, as a data URL.
	GeneratedImageURL string `firestore:"generatedImageUrl,omitempty" json:"generatedImageUrl,omitempty"`

	// GeneratedVideoURL references a generated video.
	GeneratedVideoURL string `firestore:"generatedVideoUrl,omitempty" json:"generatedVideoUrl,omitempty"`

	// GeneratedCode is generated source code.
	GeneratedCode string `firestore:"generatedCode,omitempty" json:"generatedCode,omitempty"`

	// Grounding are citation fragments for the message, in arrival order.
	Grounding []GroundingChunk `firestore:"grounding,omitempty" json:"grounding,omitempty"`

	// Error is the failure text of a failed pathway attempt.
	Error string `firestore:"error,omitempty" json:"error,omitempty"`

	// CreatedAt is the timestamp when the message was created.
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
}

// NewUserTurn returns a user message with optional media references.
func NewUserTurn(text string, media UserMedia) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Kind:      MessageKindText,
		Text:      text,
		ImageURL:  media.ImageURL,
		VideoURL:  media.VideoURL,
		AudioURL:  media.AudioURL,
		CreatedAt: time.Now(),
	}
}

// NewModelText returns a model text message with optional grounding.
func NewModelText(text string, grounding []GroundingChunk) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleModel,
		Kind:      MessageKindText,
		Text:      text,
		Grounding: grounding,
		CreatedAt: time.Now(),
	}
}

// NewModelImage returns a model message carrying a generated image.
func NewModelImage(caption string, imageURL string) Message {
	return Message{
		ID:                uuid.NewString(),
		Role:              RoleModel,
		Kind:              MessageKindImage,
		Text:              caption,
		GeneratedImageURL: imageURL,
		CreatedAt:         time.Now(),
	}
}

// NewModelVideo returns a model message carrying a generated video.
func NewModelVideo(caption string, videoURL string) Message {
	return Message{
		ID:                uuid.NewString(),
		Role:              RoleModel,
		Kind:              MessageKindVideo,
		Text:              caption,
		GeneratedVideoURL: videoURL,
		CreatedAt:         time.Now(),
	}
}

// NewModelCode returns a model message carrying generated source code.
func NewModelCode(caption string, code string) Message {
	return Message{
		ID:            uuid.NewString(),
		Role:          RoleModel,
		Kind:          MessageKindCode,
		Text:          caption,
		GeneratedCode: code,
		CreatedAt:     time.Now(),
	}
}

// NewModelError returns a model message recording a failed pathway attempt.
// Text is left empty.
func NewModelError(errText string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleModel,
		Kind:      MessageKindError,
		Error:     errText,
		CreatedAt: time.Now(),
	}
}

// Conversation represents a conversation stored in Firestore, one document
// per conversation under the owning user.
type Conversation struct {
	// ID is the unique identifier for the conversation, assigned by the
	// store on creation.
	ID string `firestore:"id" json:"id"`

	// Title is the display title of the conversation.
	Title string `firestore:"title" json:"title"`

	// Model is the chat model selected for the conversation.
	Model string `firestore:"model" json:"model"`

	// Messages is the chronological list of messages in the conversation.
	Messages []Message `firestore:"messages" json:"messages"`

	// CreatedAt is the timestamp when the conversation was created.
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`

	// UpdatedAt is the timestamp when the conversation was last updated.
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
}
