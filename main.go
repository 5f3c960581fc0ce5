// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/curioswitch/go-curiostack/server"
	"github.com/curioswitch/go-usegcp/middleware/firebaseauth"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"github.com/curioswitch/modalchat/internal/blob"
	"github.com/curioswitch/modalchat/internal/chatdb"
	"github.com/curioswitch/modalchat/internal/config"
	"github.com/curioswitch/modalchat/internal/handler/getmessages"
	"github.com/curioswitch/modalchat/internal/handler/listconversations"
	"github.com/curioswitch/modalchat/internal/handler/liverelay"
	"github.com/curioswitch/modalchat/internal/handler/sendturn"
	"github.com/curioswitch/modalchat/internal/handler/speak"
	"github.com/curioswitch/modalchat/internal/handler/startlive"
	"github.com/curioswitch/modalchat/internal/handler/transcribe"
	"github.com/curioswitch/modalchat/internal/i18n"
	"github.com/curioswitch/modalchat/internal/llm"
	"github.com/curioswitch/modalchat/internal/turn"
)

//go:embed conf/*.yaml
var confFiles embed.FS

func main() {
	conf, _ := fs.Sub(confFiles, "conf")
	os.Exit(server.Main(&config.Config{}, conf, setupServer))
}

func setupServer(ctx context.Context, conf *config.Config, s *server.Server) error {
	mux := server.Mux(s)

	fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: conf.Google.Project})
	if err != nil {
		return fmt.Errorf("main: create firebase app: %w", err)
	}

	fbAuth, err := fbApp.Auth(ctx)
	if err != nil {
		return fmt.Errorf("main: create firebase auth client: %w", err)
	}

	firestore, err := fbApp.Firestore(ctx)
	if err != nil {
		return fmt.Errorf("main: create firestore client: %w", err)
	}
	defer func() {
		if err := firestore.Close(); err != nil {
			slog.ErrorContext(ctx, "main: close firestore client", "error", err)
		}
	}()

	storage, err := storage.NewGRPCClient(ctx)
	if err != nil {
		return fmt.Errorf("main: create storage client: %w", err)
	}
	defer func() {
		if err := storage.Close(); err != nil {
			slog.ErrorContext(ctx, "main: close storage client", "error", err)
		}
	}()
	publicBucket := conf.Google.Project + "-public"

	genAI, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  os.Getenv("GEMINI_API_KEY"),
	})
	if err != nil {
		return fmt.Errorf("main: creating genai client: %w", err)
	}

	oai := openai.NewClient()

	store := chatdb.NewStore(firestore)
	blobs := blob.NewStore(storage, publicBucket)
	gateway := llm.NewGateway(genAI, oai, blobs)
	orch := turn.New(gateway,
		turn.WithDefaultModel(conf.Chat.Model),
		turn.WithHistoryTurns(conf.Chat.HistoryTurns),
	)

	authorizedEmails := strings.Split(conf.Authorization.EmailsCSV, ",")

	fbMW := firebaseauth.NewMiddleware(fbAuth)
	requireAccess := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := firebaseauth.TokenFromContext(r.Context())
			if id, ok := tok.Firebase.Identities["email"]; ok {
				if idAny, ok := id.([]any); ok && len(idAny) > 0 {
					if email, ok := idAny[0].(string); ok {
						if strings.HasSuffix(email, "@curioswitch.org") || slices.Contains(authorizedEmails, email) {
							next.ServeHTTP(w, r)
							return
						}
					}
				}
			}
			http.Error(w, "permission denied", http.StatusForbidden)
		})
	}

	mux.Use(middleware.Maybe(func(h http.Handler) http.Handler {
		return fbMW(requireAccess(h))
	}, func(r *http.Request) bool {
		switch {
		case strings.HasPrefix(r.URL.Path, "/internal/"):
			return false
		default:
			return true
		}
	}))

	mux.Use(i18n.Middleware())

	mux.Get("/api/conversations", listconversations.NewHandler(store, conf.Chat.Model).ListConversations)
	mux.Get("/api/conversations/{conversationID}/messages", getmessages.NewHandler(store).GetMessages)
	mux.Post("/api/conversations/{conversationID}/turns", sendturn.NewHandler(store, orch).SendTurn)
	mux.Post("/api/conversations/{conversationID}/transcriptions", transcribe.NewHandler(store, orch).Transcribe)
	mux.Post("/api/speech", speak.NewHandler(gateway).Speak)
	mux.Post("/api/live/sessions", startlive.NewHandler(gateway).StartLive)
	mux.Post("/api/live/relay", liverelay.NewHandler(func(ctx context.Context) (liverelay.Session, error) {
		return gateway.ConnectLive(ctx, llm.LivePrompt(ctx))
	}).Relay)

	if err := server.Start(ctx, s); err != nil {
		return fmt.Errorf("main: starting server: %w", err)
	}
	return nil
}
