package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

var httpClient = &http.Client{Timeout: 120 * time.Second}

func doGet[T any](ctx context.Context, target string) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	return do[T](req)
}

func doPost[T any](ctx context.Context, target string, body any) (*T, error) {
	rawReq, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(rawReq))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return do[T](req)
}

func do[T any](req *http.Request) (*T, error) {
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	rawResp, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(rawResp, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("http error %d: %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("http error %d: %s", resp.StatusCode, string(rawResp))
	}

	var result T
	if err := json.Unmarshal(rawResp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// fillHref resolves href against base and substitutes {name} placeholders.
func fillHref(base *url.URL, href string, params map[string]string) (string, error) {
	for k, v := range params {
		href = strings.ReplaceAll(href, "{"+k+"}", url.QueryEscape(v))
	}
	if i := strings.Index(href, "{"); i >= 0 {
		end := strings.Index(href[i:], "}")
		if end > 0 {
			return "", fmt.Errorf("missing -param for %s", href[i+1:i+end])
		}
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
