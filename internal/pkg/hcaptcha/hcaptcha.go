package hcaptcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jHLuno/telfera/internal/pkg/env"
)

const VerifyURL = "https://hcaptcha.com/siteverify"

type Response struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Verifier checks hCaptcha tokens posted by the public contact form.
type Verifier struct {
	SiteKey string
	Secret  string
	URL     string
	Client  *http.Client
}

// FromEnv reads HCAPTCHA_SITEKEY and HCAPTCHA_SECRET.
func FromEnv() *Verifier {
	return &Verifier{
		SiteKey: env.GetEnv("HCAPTCHA_SITEKEY", ""),
		Secret:  env.GetEnv("HCAPTCHA_SECRET", ""),
		URL:     VerifyURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether the form has to carry a token. Both keys must be set.
func (v *Verifier) Enabled() bool {
	return v != nil && v.SiteKey != "" && v.Secret != ""
}

func (v *Verifier) Verify(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, fmt.Errorf("hCaptcha token is empty")
	}
	if v.Secret == "" {
		return false, fmt.Errorf("hCaptcha secret is not set")
	}

	formData := url.Values{
		"secret":   {v.Secret},
		"response": {token},
	}

	endpoint := v.URL
	if endpoint == "" {
		endpoint = VerifyURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(formData.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := v.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to send request to hCaptcha API: %w", err)
	}
	defer resp.Body.Close()

	var response Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return false, fmt.Errorf("failed to decode hCaptcha API response: %w", err)
	}

	if !response.Success {
		errorMsg := "hCaptcha validation failed"
		if len(response.ErrorCodes) > 0 {
			errorMsg = errorMsg + ": " + strings.Join(response.ErrorCodes, ", ")
		}
		return false, fmt.Errorf("%s", errorMsg)
	}

	return true, nil
}
