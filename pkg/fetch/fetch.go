// Package fetch downloads a single candidate URL and proves the payload is
// a structurally valid image before anyone stores or counts it.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	// Registered decoders: a candidate counts only if one of these can
	// actually parse the payload.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	errs "github.com/BrunoDobem/dowloadimg/pkg/errors"
	"github.com/BrunoDobem/dowloadimg/pkg/logger"
)

// maxImageBytes caps how much of a response is read. Anything bigger than
// this is not a search-result photo worth keeping.
const maxImageBytes = 32 << 20 // 32 MiB

// Validator fetches candidate URLs with browser-like headers and validates
// the response decodes as an image.
type Validator struct {
	httpClient *http.Client
	headers    map[string]string
	logger     logger.Logger
}

// Options configures a Validator.
type Options struct {
	Timeout        time.Duration
	UserAgent      string
	AcceptLanguage string
	Logger         logger.Logger
}

// NewValidator creates a Validator. A zero timeout defaults to 10s.
func NewValidator(opts Options) *Validator {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}

	headers := map[string]string{
		"User-Agent":      opts.UserAgent,
		"Accept":          "image/avif,image/webp,image/apng,image/*,*/*;q=0.8",
		"Accept-Language": opts.AcceptLanguage,
	}
	if opts.UserAgent == "" {
		headers["User-Agent"] = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	}

	return &Validator{
		httpClient: &http.Client{Timeout: opts.Timeout},
		headers:    headers,
		logger:     opts.Logger,
	}
}

// FetchValidate downloads url and returns the image bytes plus the decoded
// format name. Every failure comes back as a typed error the pipeline treats
// as "skip this candidate"; nothing here is fatal to a run.
func (v *Validator) FetchValidate(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", errs.Wrap(errs.ErrorTypeNetwork, "failed to build request", err)
	}
	for key, value := range v.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := v.httpClient.Do(req)
	if err != nil {
		v.logger.DebugWithFields("candidate fetch failed", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return nil, "", errs.Wrap(errs.ErrorTypeNetwork, "candidate fetch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", errs.New(errs.ErrorTypeNetwork,
			fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", errs.New(errs.ErrorTypeDecode,
			fmt.Sprintf("not an image content type: %q", contentType))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", errs.Wrap(errs.ErrorTypeNetwork, "failed to read payload", err)
	}
	if len(data) > maxImageBytes {
		return nil, "", errs.New(errs.ErrorTypeDecode, "payload exceeds size limit")
	}

	// Decode to confirm the bytes are a real image, not a truncated body
	// or an error page served with an image content type.
	_, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		v.logger.DebugWithFields("candidate payload failed decode", map[string]interface{}{
			"url":          url,
			"content_type": contentType,
			"size":         len(data),
		})
		return nil, "", errs.Wrap(errs.ErrorTypeDecode, "payload is not a valid image", err)
	}

	v.logger.DebugWithFields("candidate validated", map[string]interface{}{
		"url":      url,
		"format":   format,
		"size":     len(data),
		"duration": time.Since(start),
	})

	return data, format, nil
}
