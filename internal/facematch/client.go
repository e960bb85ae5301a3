// Package facematch is the HTTP client for the face-comparison API used as
// the identity gate at provider registration: the photo on the uploaded ID
// is compared against a live capture and the account is only created on a
// match.
package facematch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to the face-comparison REST API.
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// NewClient returns a Client for the given endpoint and API key.
func NewClient(apiURL, apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type compareRequest struct {
	SourceImage         string  `json:"source_image"`
	TargetImage         string  `json:"target_image"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

// CompareResult is the comparison outcome: whether the faces matched at
// the requested threshold and the raw similarity score.
type CompareResult struct {
	Match      bool    `json:"match"`
	Similarity float64 `json:"similarity"`
}

// Compare sends both images and returns the match result. sourceImage is
// the photo on the ID document, targetImage the live capture.
func (c *Client) Compare(ctx context.Context, sourceImage, targetImage []byte, threshold float64) (*CompareResult, error) {
	const op = "facematch.Compare"

	body := compareRequest{
		SourceImage:         base64.StdEncoding.EncodeToString(sourceImage),
		TargetImage:         base64.StdEncoding.EncodeToString(targetImage),
		SimilarityThreshold: threshold,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/compare", &buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var result CompareResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}
