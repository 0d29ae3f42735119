package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPProvider calls an external rendering API that accepts image references
// and returns the composited image bytes.
type HTTPProvider struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *HTTPProvider) Name() string { return "render_api" }

type renderReq struct {
	UserPhoto string   `json:"user_photo"`
	ItemRefs  []string `json:"item_refs"`
}

func (p *HTTPProvider) Generate(ctx context.Context, userPhotoRef string, itemRefs []string) ([]byte, error) {
	body, _ := json.Marshal(renderReq{UserPhoto: userPhotoRef, ItemRefs: itemRefs})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/v1/render", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("render api: %d: %s", resp.StatusCode, string(msg))
	}
	return io.ReadAll(resp.Body)
}
