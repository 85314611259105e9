package twitter

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultChunkSize = 1 << 20

	// maxStatusChecks bounds how long a FINALIZE can stay in processing.
	maxStatusChecks = 60
)

type processingInfo struct {
	State          string `json:"state"`
	CheckAfterSecs int    `json:"check_after_secs"`
	Error          *struct {
		Code    int    `json:"code"`
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

type uploadResponse struct {
	MediaIDString  string          `json:"media_id_string"`
	ProcessingInfo *processingInfo `json:"processing_info"`
}

// MediaCategory picks the upload category Twitter expects for a mime type.
func MediaCategory(mimeType string) string {
	switch {
	case mimeType == "image/gif":
		return "tweet_gif"
	case strings.HasPrefix(mimeType, "video/"):
		return "tweet_video"
	default:
		return "tweet_image"
	}
}

// UploadMedia uploads data with the chunked INIT/APPEND/FINALIZE sequence and
// returns the media id to attach to a tweet.
func (c *Client) UploadMedia(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("upload media: empty file")
	}
	if mimeType == "" {
		return "", fmt.Errorf("upload media: missing mime type")
	}

	mediaID, err := c.initUpload(ctx, len(data), mimeType)
	if err != nil {
		return "", fmt.Errorf("upload INIT: %w", err)
	}

	for segment, offset := 0, 0; offset < len(data); segment++ {
		end := min(offset+c.chunkSize, len(data))
		if err := c.appendUpload(ctx, mediaID, segment, data[offset:end]); err != nil {
			return "", fmt.Errorf("upload APPEND segment %d: %w", segment, err)
		}
		offset = end
	}

	info, err := c.finalizeUpload(ctx, mediaID)
	if err != nil {
		return "", fmt.Errorf("upload FINALIZE: %w", err)
	}

	if err := c.waitForProcessing(ctx, mediaID, info); err != nil {
		return "", err
	}

	return mediaID, nil
}

func (c *Client) initUpload(ctx context.Context, totalBytes int, mimeType string) (string, error) {
	form := url.Values{
		"command":        {"INIT"},
		"total_bytes":    {strconv.Itoa(totalBytes)},
		"media_type":     {mimeType},
		"media_category": {MediaCategory(mimeType)},
	}

	var resp uploadResponse
	if err := c.postForm(ctx, form, &resp); err != nil {
		return "", err
	}
	if resp.MediaIDString == "" {
		return "", fmt.Errorf("no media id returned")
	}
	return resp.MediaIDString, nil
}

func (c *Client) appendUpload(ctx context.Context, mediaID string, segment int, chunk []byte) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fields := [][2]string{
		{"command", "APPEND"},
		{"media_id", mediaID},
		{"segment_index", strconv.Itoa(segment)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}
	part, err := w.CreateFormFile("media", "blob")
	if err != nil {
		return err
	}
	if _, err := part.Write(chunk); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.do(req, nil)
}

func (c *Client) finalizeUpload(ctx context.Context, mediaID string) (*processingInfo, error) {
	form := url.Values{
		"command":  {"FINALIZE"},
		"media_id": {mediaID},
	}

	var resp uploadResponse
	if err := c.postForm(ctx, form, &resp); err != nil {
		return nil, err
	}
	return resp.ProcessingInfo, nil
}

// waitForProcessing polls STATUS until async processing (gifs, videos) is done.
func (c *Client) waitForProcessing(ctx context.Context, mediaID string, info *processingInfo) error {
	for checks := 0; info != nil; checks++ {
		switch info.State {
		case "succeeded", "":
			return nil
		case "failed":
			msg := "processing failed"
			if info.Error != nil && info.Error.Message != "" {
				msg = info.Error.Message
			}
			return fmt.Errorf("media %s: %s", mediaID, msg)
		}

		if checks >= maxStatusChecks {
			return fmt.Errorf("media %s: still %s after %d status checks", mediaID, info.State, checks)
		}

		wait := time.Duration(max(info.CheckAfterSecs, 1)) * time.Second
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}

		q := url.Values{
			"command":  {"STATUS"},
			"media_id": {mediaID},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.uploadURL+"?"+q.Encode(), nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		var resp uploadResponse
		if err := c.do(req, &resp); err != nil {
			return fmt.Errorf("upload STATUS: %w", err)
		}
		info = resp.ProcessingInfo
	}
	return nil
}

func (c *Client) postForm(ctx context.Context, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}
