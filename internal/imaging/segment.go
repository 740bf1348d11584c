/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package imaging

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	applog "depthclock/internal/log"
)

// ErrSegmenterUnavailable is returned when no segmentation service is configured.
var ErrSegmenterUnavailable = errors.New("subject segmentation unavailable")

// Segmenter extracts the foreground subject of a photo. A nil image with a nil error
// means the photo has no subject. The cutout has the bounds of the input and is
// transparent outside the subject.
type Segmenter interface {
	Segment(ctx context.Context, img image.Image) (image.Image, error)
}

// Unavailable is the Segmenter used when no service is configured.
type Unavailable struct{}

func (Unavailable) Segment(context.Context, image.Image) (image.Image, error) {
	return nil, ErrSegmenterUnavailable
}

// HTTPSegmenter posts the photo as PNG to a segmentation service and expects a PNG
// cutout back. 204 No Content means no subject was found.
type HTTPSegmenter struct {
	URL string
	// Token returns the bearer token; it is called per request so a token stored in the
	// keychain after startup is picked up.
	Token  func() string
	client *http.Client
	log    *slog.Logger
}

// NewHTTPSegmenter returns a client for url.
func NewHTTPSegmenter(url string, timeout time.Duration, tlsInsecure bool, token func() string) *HTTPSegmenter {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if tlsInsecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-hosted services
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HTTPSegmenter{
		URL:    strings.TrimRight(url, "/"),
		Token:  token,
		client: &http.Client{Timeout: timeout, Transport: tr},
		log:    applog.WithComponent("segmenter"),
	}
}

func (s *HTTPSegmenter) Segment(ctx context.Context, img image.Image) (image.Image, error) {
	if s == nil || s.URL == "" {
		return nil, ErrSegmenterUnavailable
	}
	var body bytes.Buffer
	if err := (&png.Encoder{CompressionLevel: png.BestSpeed}).Encode(&body, img); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	reqID := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "image/png")
	req.Header.Set("X-Request-ID", reqID)
	if s.Token != nil {
		if tok := s.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	l := s.log.With(slog.String("request_id", reqID))
	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		l.Warn("segmentation request failed", slog.Any("err", err))
		return nil, fmt.Errorf("segment: %w", err)
	}
	defer resp.Body.Close()
	l.Debug("segmentation response", slog.Int("status", resp.StatusCode), slog.Duration("took", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("segment: server %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	cut, err := png.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("segment: decode cutout: %w", err)
	}
	return fitTo(cut, img.Bounds()), nil
}

// fitTo rescales a cutout returned at a different resolution to bounds.
func fitTo(cut image.Image, bounds image.Rectangle) image.Image {
	if cut.Bounds().Size() == bounds.Size() {
		return cut
	}
	dst := image.NewNRGBA(bounds)
	draw.BiLinear.Scale(dst, bounds, cut, cut.Bounds(), draw.Src, nil)
	return dst
}
