// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package media

import (
	"context"
	"sync"
)

// Recording is a finished audio capture.
type Recording struct {
	// Filename names the captured artifact.
	Filename string

	// MIMEType is the media type of the capture.
	MIMEType string

	// Data is the raw audio bytes.
	Data []byte

	// PlaybackURL is a user-playable reference to the capture.
	PlaybackURL string
}

// Capture is the media capture collaborator.
type Capture interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (Recording, error)
}

// NewRecorder returns a Recorder over the given capture collaborator.
func NewRecorder(capture Capture) *Recorder {
	return &Recorder{capture: capture}
}

// Recorder is a two-state toggle over a Capture. Starting while recording
// and stopping while idle are no-ops.
type Recorder struct {
	capture Capture

	mu        sync.Mutex
	recording bool
}

// Recording reports whether a capture is in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Start begins a capture. A no-op when already recording.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return nil
	}
	if err := r.capture.Start(ctx); err != nil {
		return err
	}
	r.recording = true
	return nil
}

// Stop ends the capture and returns the finished recording. The second
// return is false when nothing was recording.
func (r *Recorder) Stop(ctx context.Context) (Recording, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return Recording{}, false, nil
	}
	r.recording = false
	rec, err := r.capture.Stop(ctx)
	if err != nil {
		return Recording{}, false, err
	}
	return rec, true, nil
}
