package connector

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// OAuth1Credentials are the four values needed to sign a user-context
// request, per spec.md §4.5.
type OAuth1Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	Token          string
	TokenSecret    string
}

// nowFunc and nonceFunc are overridable for deterministic tests.
var nowFunc = time.Now
var nonceFunc = randomNonce

// SignRequest builds the OAuth 1.0a `Authorization` header value for one
// HTTP request, per spec.md §4.5's exact construction: signature base
// string = METHOD & URL-encoded(url) & URL-encoded(sorted(params));
// signing key = URL-encoded(consumerSecret) & URL-encoded(tokenSecret);
// signature = base64(HMAC-SHA1(signingKey, baseString)).
func SignRequest(method, rawURL string, params map[string]string, creds OAuth1Credentials) (string, error) {
	nonce, err := nonceFunc()
	if err != nil {
		return "", err
	}
	timestamp := strconv.FormatInt(nowFunc().Unix(), 10)

	oauthParams := map[string]string{
		"oauth_consumer_key":     creds.ConsumerKey,
		"oauth_nonce":            nonce,
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        timestamp,
		"oauth_token":            creds.Token,
		"oauth_version":          "1.0",
	}

	allParams := make(map[string]string, len(params)+len(oauthParams))
	for k, v := range params {
		allParams[k] = v
	}
	for k, v := range oauthParams {
		allParams[k] = v
	}

	baseString := method + "&" + percentEncode(rawURL) + "&" + percentEncode(encodeSortedParams(allParams))
	signingKey := percentEncode(creds.ConsumerSecret) + "&" + percentEncode(creds.TokenSecret)

	mac := hmac.New(sha1.New, []byte(signingKey))
	mac.Write([]byte(baseString))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	oauthParams["oauth_signature"] = signature
	return buildAuthorizationHeader(oauthParams), nil
}

// encodeSortedParams builds "k1=v1&k2=v2&..." with keys in ascending
// order and every key/value percent-encoded, per the OAuth1 spec.
func encodeSortedParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(params[k]))
	}
	return strings.Join(pairs, "&")
}

// buildAuthorizationHeader renders `OAuth k1="v1", k2="v2", ...` with
// keys sorted and values percent-encoded.
func buildAuthorizationHeader(oauthParams map[string]string) string {
	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, percentEncode(k), percentEncode(oauthParams[k])))
	}
	return "OAuth " + strings.Join(parts, ", ")
}

// percentEncode implements RFC 3986 percent-encoding as OAuth1 requires
// (url.QueryEscape encodes spaces as "+", which is rewritten to "%20").
func percentEncode(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	escaped = strings.ReplaceAll(escaped, "*", "%2A")
	escaped = strings.ReplaceAll(escaped, "%7E", "~")
	return escaped
}

// randomNonce generates 16 random bytes, hex-encoded, per spec.md §4.5.
// Two calls within the same second must still yield distinct headers
// (spec.md §8) since the nonce, not just the timestamp, varies.
func randomNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
