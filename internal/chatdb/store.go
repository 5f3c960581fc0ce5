// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package chatdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/curioswitch/modalchat/internal/fault"
)

// permissionDiagnostic explains a denied Firestore access. Permission
// failures are otherwise silent and give the end user nothing to act on.
const permissionDiagnostic = "the conversation store denied access. " +
	"Confirm you are signed in, that the Firestore security rules allow reads and writes " +
	"under users/{uid}/conversations for the authenticated user, and that the project's " +
	"Firestore API is enabled."

// NewStore returns a Store backed by the given Firestore client.
func NewStore(client *firestore.Client) *Store {
	return &Store{client: client}
}

// Store persists conversations, one document per conversation under a
// per-user collection. Writes are last write wins.
type Store struct {
	client *firestore.Client
}

func (s *Store) conversations(userID string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(userID).Collection("conversations")
}

// Conversations returns the user's conversations ordered by most recently
// updated first.
func (s *Store) Conversations(ctx context.Context, userID string) ([]Conversation, error) {
	iter := s.conversations(userID).Query.OrderBy("updatedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var convs []Conversation
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("chatdb: listing conversations: %w", translateErr(err))
		}
		var conv Conversation
		if err := doc.DataTo(&conv); err != nil {
			return nil, fmt.Errorf("chatdb: decoding conversation document: %w", err)
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

// Conversation returns a single conversation by id.
func (s *Store) Conversation(ctx context.Context, userID string, id string) (Conversation, error) {
	doc, err := s.conversations(userID).Doc(id).Get(ctx)
	if err != nil {
		return Conversation{}, fmt.Errorf("chatdb: getting conversation: %w", translateErr(err))
	}
	var conv Conversation
	if err := doc.DataTo(&conv); err != nil {
		return Conversation{}, fmt.Errorf("chatdb: decoding conversation document: %w", err)
	}
	return conv, nil
}

// Create persists a new conversation, assigning its id and stamping creation
// and update times. The persisted shape is returned.
func (s *Store) Create(ctx context.Context, userID string, conv Conversation) (Conversation, error) {
	doc := s.conversations(userID).NewDoc()
	conv.ID = doc.ID
	now := time.Now()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	if _, err := doc.Create(ctx, conv); err != nil {
		return Conversation{}, fmt.Errorf("chatdb: creating conversation: %w", translateErr(err))
	}
	return conv, nil
}

// Upsert merges the conversation's mutable fields into its document,
// stamping the update time. The full document is not required.
func (s *Store) Upsert(ctx context.Context, userID string, conv Conversation) error {
	fields := map[string]any{
		"id":        conv.ID,
		"title":     conv.Title,
		"model":     conv.Model,
		"messages":  conv.Messages,
		"updatedAt": time.Now(),
	}
	if _, err := s.conversations(userID).Doc(conv.ID).Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("chatdb: upserting conversation: %w", translateErr(err))
	}
	return nil
}

func translateErr(err error) error {
	if status.Code(err) == codes.PermissionDenied {
		return fault.New(fault.KindPermission, permissionDiagnostic)
	}
	return err
}
