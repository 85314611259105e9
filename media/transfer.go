// Package media moves message attachments from Discord's CDN to Twitter.
package media

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"twitterbot/model"
)

// Fetcher downloads the raw bytes behind an attachment URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Uploader submits bytes to the destination media endpoint and returns its reference.
type Uploader interface {
	UploadMedia(ctx context.Context, data []byte, mimeType string) (string, error)
}

// MediaTransferError reports which attachment broke the transfer.
type MediaTransferError struct {
	Index int
	Cause error
}

func (e *MediaTransferError) Error() string {
	return fmt.Sprintf("attachment %d: %v", e.Index+1, e.Cause)
}

func (e *MediaTransferError) Unwrap() error { return e.Cause }

// Stage transfers a message's attachments.
type Stage struct {
	fetcher  Fetcher
	uploader Uploader
}

// NewStage creates a transfer stage.
func NewStage(fetcher Fetcher, uploader Uploader) *Stage {
	return &Stage{fetcher: fetcher, uploader: uploader}
}

// TransferAll fetches and uploads every attachment concurrently. The returned
// references are in attachment order no matter which upload finishes first.
// The first failure cancels the rest; uploads that already succeeded are left
// as they are.
func (s *Stage) TransferAll(ctx context.Context, attachments []model.Attachment) ([]string, error) {
	if len(attachments) == 0 {
		return nil, nil
	}

	refs := make([]string, len(attachments))
	g, gctx := errgroup.WithContext(ctx)

	for i, att := range attachments {
		i, att := i, att
		g.Go(func() error {
			ref, err := s.transferOne(gctx, att)
			if err != nil {
				return &MediaTransferError{Index: i, Cause: err}
			}
			refs[i] = ref
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}

// transferOne runs on an errgroup goroutine, outside any caller's recover, so
// a panic is turned into an error here.
func (s *Stage) transferOne(ctx context.Context, att model.Attachment) (ref string, err error) {
	defer func() {
		if r := recover(); r != nil {
			ref, err = "", fmt.Errorf("panic: %v", r)
		}
	}()

	data, err := s.fetcher.Fetch(ctx, att.URL)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}

	// Discord omits content_type for some uploads.
	mimeType := att.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	ref, err = s.uploader.UploadMedia(ctx, data, mimeType)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	return ref, nil
}
