// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/curioswitch/modalchat/internal/fault"
)

var videoAspectRatios = []string{"16:9", "9:16"}

// VideoOperation is a handle to a long-running video generation job. It is
// polled with PollVideo until Done is true.
type VideoOperation struct {
	// Name identifies the backend operation.
	Name string

	// Done is true once the operation reached a terminal state.
	Done bool

	// Err is the terminal failure message, if any.
	Err string

	// URI addresses the generated video once the operation succeeded.
	URI string

	raw *genai.GenerateVideosOperation
}

func videoOperation(op *genai.GenerateVideosOperation) *VideoOperation {
	res := &VideoOperation{
		Name: op.Name,
		Done: op.Done,
		raw:  op,
	}
	if op.Error != nil {
		if msg, ok := op.Error["message"].(string); ok {
			res.Err = msg
		} else {
			res.Err = fmt.Sprintf("%v", op.Error)
		}
	}
	if op.Response != nil && len(op.Response.GeneratedVideos) > 0 {
		if v := op.Response.GeneratedVideos[0].Video; v != nil {
			res.URI = v.URI
		}
	}
	return res
}

// GenerateVideo starts a video generation job and returns its operation
// handle. A fresh client is constructed for the call so that a credential
// selected mid-session is used.
func (g *Gateway) GenerateVideo(ctx context.Context, prompt string, image *MediaPart, aspectRatio string) (*VideoOperation, error) {
	if err := g.checkConfigured(); err != nil {
		return nil, err
	}
	if !slices.Contains(videoAspectRatios, aspectRatio) {
		return nil, fault.Newf(fault.KindValidation, "unsupported video aspect ratio %q", aspectRatio)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  g.apiKey,
	})
	if err != nil {
		return nil, fault.Wrap(fault.KindConfiguration, err)
	}

	var img *genai.Image
	if image != nil {
		img = &genai.Image{
			ImageBytes: image.Data,
			MIMEType:   image.MIMEType,
		}
	}
	op, err := client.Models.GenerateVideos(ctx, modelVideoGen, prompt, img, &genai.GenerateVideosConfig{
		AspectRatio: aspectRatio,
	})
	if err != nil {
		return nil, fault.Wrap(fault.KindUpstream, err)
	}
	return videoOperation(op), nil
}

// PollVideo refreshes the operation handle once. The wait cadence between
// polls is owned by the caller.
func (g *Gateway) PollVideo(ctx context.Context, op *VideoOperation) (*VideoOperation, error) {
	if op.raw == nil {
		return nil, fault.New(fault.KindUpstream, "operation handle was not produced by this gateway")
	}
	next, err := g.genAI.Operations.GetVideosOperation(ctx, op.raw, nil)
	if err != nil {
		return nil, fault.Wrap(fault.KindUpstream, err)
	}
	return videoOperation(next), nil
}

// FetchVideo downloads the generated video and persists it to the public
// bucket, returning an addressable URL.
func (g *Gateway) FetchVideo(ctx context.Context, uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fault.Wrap(fault.KindFetch, err)
	}
	q := u.Query()
	q.Set("key", g.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fault.Wrap(fault.KindFetch, err)
	}
	res, err := g.httpClient.Do(req)
	if err != nil {
		return "", fault.Wrap(fault.KindFetch, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fault.Newf(fault.KindFetch, "video download failed with status %d", res.StatusCode)
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fault.Wrap(fault.KindFetch, err)
	}

	path := fmt.Sprintf("videos/%s.mp4", uuid.NewString())
	stored, err := g.blobs.Write(ctx, path, "video/mp4", data)
	if err != nil {
		return "", fault.Wrap(fault.KindFetch, err)
	}
	return stored, nil
}
