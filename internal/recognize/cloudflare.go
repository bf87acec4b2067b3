package recognize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/voxnote/apiserver/config"
)

const defaultCloudflareBaseURL = "https://api.cloudflare.com/client/v4"

// CloudflareClient transcribes audio through Cloudflare Workers AI.
// POST {base}/accounts/{account_id}/ai/run/{model} with a bearer token.
type CloudflareClient struct {
	accountID  string
	apiToken   string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewCloudflareClient constructs a Workers AI backend from config.
func NewCloudflareClient(cfg config.RecognizerConfig) (*CloudflareClient, error) {
	if strings.TrimSpace(cfg.CloudflareAccountID) == "" {
		return nil, errors.New("cloudflare account id is required")
	}
	if strings.TrimSpace(cfg.CloudflareAPIToken) == "" {
		return nil, errors.New("cloudflare api token is required")
	}
	if strings.TrimSpace(cfg.CloudflareModel) == "" {
		return nil, errors.New("cloudflare model is required")
	}

	return &CloudflareClient{
		accountID:  cfg.CloudflareAccountID,
		apiToken:   cfg.CloudflareAPIToken,
		model:      cfg.CloudflareModel,
		baseURL:    defaultCloudflareBaseURL,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}, nil
}

type cloudflareResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
}

type cloudflareWhisperResult struct {
	Text string `json:"text"`
}

// Transcribe uploads the audio file and returns its transcript.
func (c *CloudflareClient) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/accounts/%s/ai/run/%s", c.baseURL, c.accountID, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: http %d: %s", ErrServiceUnavailable, resp.StatusCode, string(b))
	}

	var cr cloudflareResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if !cr.Success {
		return "", fmt.Errorf("%w: response not successful", ErrServiceUnavailable)
	}

	var wr cloudflareWhisperResult
	if err := json.Unmarshal(cr.Result, &wr); err != nil {
		return "", fmt.Errorf("%w: unexpected result: %v", ErrServiceUnavailable, err)
	}

	text := strings.TrimSpace(wr.Text)
	if text == "" {
		return "", ErrUnintelligible
	}
	return text, nil
}
