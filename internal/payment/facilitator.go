package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultHTTPTimeout = 10 * time.Second

// FacilitatorClient talks to the external x402 facilitator service that
// actually knows how to verify signatures and settle on-chain transfers.
// This gateway never touches wallet or contract internals directly — see
// spec.md §1 Non-goals.
type FacilitatorClient struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
	signer      *ServiceTokenSigner
}

func NewFacilitatorClient(baseURL, bearerToken string, httpClient *http.Client) *FacilitatorClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &FacilitatorClient{baseURL: baseURL, bearerToken: strings.TrimSpace(bearerToken), httpClient: httpClient}
}

// WithServiceTokenSigner switches the client from a static bearer token to
// freshly minted short-lived JWTs per facilitator call.
func (c *FacilitatorClient) WithServiceTokenSigner(signer *ServiceTokenSigner) *FacilitatorClient {
	c.signer = signer
	return c
}

func (c *FacilitatorClient) Verify(ctx context.Context, paymentData string, p PaymentArgs) (json.RawMessage, error) {
	return c.do(ctx, "verify", paymentData, p)
}

func (c *FacilitatorClient) Settle(ctx context.Context, paymentData string, p PaymentArgs, actualAmountAtomic string) (json.RawMessage, error) {
	settleArgs := p
	settleArgs.MaxAmountAtomic = actualAmountAtomic
	return c.do(ctx, "settle", paymentData, settleArgs)
}

func (c *FacilitatorClient) do(ctx context.Context, operation, paymentData string, p PaymentArgs) (json.RawMessage, error) {
	if c.baseURL == "" {
		return nil, &FacilitatorError{Operation: operation, Code: CodePaymentConfigInvalid, Message: "facilitator URL is required"}
	}
	if err := p.Validate(); err != nil {
		return nil, &FacilitatorError{Operation: operation, Code: CodePaymentConfigInvalid, Message: err.Error(), Cause: err}
	}
	paymentData = strings.TrimSpace(paymentData)
	if paymentData == "" {
		return nil, &FacilitatorError{Operation: operation, Code: CodePaymentRequired, Message: "missing payment signature"}
	}

	endpoint, err := url.JoinPath(c.baseURL, "v1", "x402", operation)
	if err != nil {
		return nil, &FacilitatorError{Operation: operation, Code: CodePaymentConfigInvalid, Message: "invalid facilitator URL", Cause: err}
	}

	body := map[string]interface{}{
		"paymentPayload": paymentData,
		"paymentRequirements": []map[string]interface{}{
			{
				"scheme":            strings.ToLower(strings.TrimSpace(p.Scheme)),
				"network":           strings.TrimSpace(p.Network),
				"maxAmountRequired": strings.TrimSpace(p.MaxAmountAtomic),
				"asset":             strings.TrimSpace(p.Asset),
				"payTo":             strings.TrimSpace(p.PayTo),
				"resource":          strings.TrimSpace(p.ResourceURL),
			},
		},
	}
	rawBody, err := json.Marshal(body)
	if err != nil {
		return nil, &FacilitatorError{Operation: operation, Code: CodePaymentConfigInvalid, Message: "failed to serialize facilitator request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(rawBody))
	if err != nil {
		return nil, &FacilitatorError{Operation: operation, Code: CodePaymentFacilitatorUnavailable, Message: "failed to create facilitator request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.signer != nil && len(c.signer.secret) > 0 {
		token, err := c.signer.Mint()
		if err != nil {
			return nil, &FacilitatorError{Operation: operation, Code: CodePaymentConfigInvalid, Message: "failed to mint facilitator service token", Cause: err}
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	} else if c.bearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		code := CodePaymentFacilitatorUnavailable
		if operation == "settle" {
			code = CodePaymentSettlementUnavailable
		}
		retryable := !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		return nil, &FacilitatorError{Operation: operation, Code: code, Message: "facilitator request failed", Retryable: retryable, Cause: err}
	}
	defer resp.Body.Close()

	const maxRespSize = 1 << 20
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxRespSize+1))
	if err != nil {
		return nil, &FacilitatorError{Operation: operation, Code: CodePaymentFacilitatorUnavailable, Message: "failed to read facilitator response", Retryable: true, Cause: err}
	}
	if len(respBody) > maxRespSize {
		return nil, &FacilitatorError{Operation: operation, Code: CodePaymentFacilitatorUnavailable, Message: "facilitator response exceeds maximum size", Retryable: true}
	}
	normalized := normalizeResponsePayload(respBody)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return normalized, nil
	}

	retryable := isRetryableStatus(resp.StatusCode)
	code := CodePaymentInvalid
	if operation == "settle" {
		code = CodePaymentSettlementFailed
	}
	if retryable {
		if operation == "settle" {
			code = CodePaymentSettlementUnavailable
		} else {
			code = CodePaymentFacilitatorUnavailable
		}
	}

	message := strings.TrimSpace(extractFacilitatorMessage(respBody))
	if message == "" {
		message = fmt.Sprintf("facilitator %s request failed with status %d", operation, resp.StatusCode)
	}
	return nil, &FacilitatorError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Retryable:  retryable,
		Code:       code,
		Message:    message,
		Body:       redactNormalizedPayload(normalized),
	}
}

func isRetryableStatus(status int) bool {
	if status >= 500 {
		return true
	}
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusTooEarly:
		return true
	default:
		return false
	}
}

const maxFacilitatorBody = 1024

func normalizeResponsePayload(payload []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return json.RawMessage(`{}`)
	}
	var check json.RawMessage
	if err := json.Unmarshal(trimmed, &check); err == nil {
		return json.RawMessage(trimmed)
	}
	fallback, _ := json.Marshal(map[string]string{"raw": string(trimmed)})
	return json.RawMessage(fallback)
}

// redactNormalizedPayload strips common secret-shaped keys before a
// facilitator error body is logged or surfaced to a client.
func redactNormalizedPayload(normalized json.RawMessage) string {
	s := string(normalized)
	if s == "" {
		return ""
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(normalized, &obj); err == nil {
		for _, key := range []string{
			"paymentPayload", "token", "secret", "password",
			"authorization", "authorizationHeader", "api_key", "apiKey",
			"access_token", "refresh_token", "credential", "auth", "bearer",
		} {
			if _, ok := obj[key]; ok {
				obj[key] = "[REDACTED]"
			}
		}
		if data, err := json.Marshal(obj); err == nil {
			s = string(data)
		}
	}
	return truncateString(s, maxFacilitatorBody)
}

func extractFacilitatorMessage(payload []byte) string {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return ""
	}
	var asObj map[string]interface{}
	if err := json.Unmarshal(trimmed, &asObj); err != nil {
		return truncateString(string(trimmed), 256)
	}
	for _, key := range []string{"message", "error", "reason"} {
		if raw, ok := asObj[key]; ok {
			switch v := raw.(type) {
			case string:
				return truncateString(v, 256)
			case map[string]interface{}:
				if msg, ok := v["message"].(string); ok {
					return truncateString(msg, 256)
				}
			}
		}
	}
	return ""
}

func truncateString(s string, max int) string {
	if len(s) == 0 || max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "… (truncated)"
}
