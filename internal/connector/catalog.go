package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// httpDo is the subset of *http.Client the catalog handlers use, kept as
// a var so tests can substitute a fake.
var httpDo = (&http.Client{Timeout: 15 * time.Second}).Do

// BuildCatalog returns the static set of HTTP-backed connectors shipped
// with the gateway: "x" (OAuth1-signed), "github" (bearer token), and
// "gmail" (OAuth bearer) — exercising both auth styles spec.md §4.5 names.
func BuildCatalog() map[string]Descriptor {
	return map[string]Descriptor{
		"x": {
			ID:          "x",
			Label:       "X (Twitter)",
			Description: "Post tweets and read timeline/user data via the X API v2.",
			HTTPBased:   true,
			RequiredEnv: []string{"X_CONSUMER_KEY", "X_CONSUMER_SECRET", "X_ACCESS_TOKEN", "X_ACCESS_TOKEN_SECRET"},
		},
		"github": {
			ID:          "github",
			Label:       "GitHub",
			Description: "Read repository and issue data via the GitHub REST API.",
			HTTPBased:   true,
			RequiredEnv: []string{"GITHUB_TOKEN"},
		},
		"gmail": {
			ID:          "gmail",
			Label:       "Gmail",
			Description: "Read and send mail via the Gmail API.",
			HTTPBased:   true,
			RequiredEnv: []string{"GMAIL_ACCESS_TOKEN"},
		},
	}
}

// BuildToolRegistry returns the per-connector tool descriptors, mirroring
// the teacher's buildToolRegistry map-of-handlers pattern.
func BuildToolRegistry(id string) (map[string]ToolDescriptor, bool) {
	switch id {
	case "x":
		return xTools(), true
	case "github":
		return githubTools(), true
	case "gmail":
		return gmailTools(), true
	default:
		return nil, false
	}
}

func xTools() map[string]ToolDescriptor {
	return map[string]ToolDescriptor{
		"post_tweet": {
			Name:        "post_tweet",
			Description: "Publish a new tweet to the authenticated account.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"text": map[string]interface{}{"type": "string"}},
				"required":   []string{"text"},
			},
			Handler: postTweet,
		},
		"get_user_timeline": {
			Name:        "get_user_timeline",
			Description: "Fetch recent tweets from a user's timeline.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"userId": map[string]interface{}{"type": "string"}},
				"required":   []string{"userId"},
			},
			Handler: getUserTimeline,
		},
		"search_tweets": {
			Name:        "search_tweets",
			Description: "Search recent tweets matching a query.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"query": map[string]interface{}{"type": "string"}},
				"required":   []string{"query"},
			},
			Handler: searchTweets,
		},
		"get_user_info": {
			Name:        "get_user_info",
			Description: "Look up a user's public profile by username.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"username": map[string]interface{}{"type": "string"}},
				"required":   []string{"username"},
			},
			Handler: getUserInfo,
		},
	}
}

func xCredentials() OAuth1Credentials {
	return OAuth1Credentials{
		ConsumerKey:    os.Getenv("X_CONSUMER_KEY"),
		ConsumerSecret: os.Getenv("X_CONSUMER_SECRET"),
		Token:          os.Getenv("X_ACCESS_TOKEN"),
		TokenSecret:    os.Getenv("X_ACCESS_TOKEN_SECRET"),
	}
}

func postTweet(ctx context.Context, args map[string]interface{}) (CallToolResult, error) {
	text, _ := args["text"].(string)
	if text == "" {
		return errorResult("\"text\" is required"), nil
	}
	const endpoint = "https://api.x.com/2/tweets"
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return CallToolResult{}, err
	}
	return doOAuth1JSON(ctx, http.MethodPost, endpoint, nil, body)
}

func getUserTimeline(ctx context.Context, args map[string]interface{}) (CallToolResult, error) {
	userID, _ := args["userId"].(string)
	if userID == "" {
		return errorResult("\"userId\" is required"), nil
	}
	endpoint := fmt.Sprintf("https://api.x.com/2/users/%s/tweets", url.PathEscape(userID))
	return doOAuth1JSON(ctx, http.MethodGet, endpoint, nil, nil)
}

func searchTweets(ctx context.Context, args map[string]interface{}) (CallToolResult, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return errorResult("\"query\" is required"), nil
	}
	return doOAuth1JSON(ctx, http.MethodGet, "https://api.x.com/2/tweets/search/recent", map[string]string{"query": query}, nil)
}

func getUserInfo(ctx context.Context, args map[string]interface{}) (CallToolResult, error) {
	username, _ := args["username"].(string)
	if username == "" {
		return errorResult("\"username\" is required"), nil
	}
	endpoint := fmt.Sprintf("https://api.x.com/2/users/by/username/%s", url.PathEscape(username))
	return doOAuth1JSON(ctx, http.MethodGet, endpoint, nil, nil)
}

// doOAuth1JSON signs and executes one X API call, normalizing the
// response per spec.md §4.5's error-normalization rule.
func doOAuth1JSON(ctx context.Context, method, endpoint string, queryParams map[string]string, body []byte) (CallToolResult, error) {
	reqURL := endpoint
	signParams := map[string]string{}
	for k, v := range queryParams {
		signParams[k] = v
	}
	if len(queryParams) > 0 {
		q := url.Values{}
		for k, v := range queryParams {
			q.Set(k, v)
		}
		reqURL = endpoint + "?" + q.Encode()
	}

	authHeader, err := SignRequest(method, endpoint, signParams, xCredentials())
	if err != nil {
		return CallToolResult{}, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return CallToolResult{}, err
	}
	req.Header.Set("Authorization", authHeader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return executeAndNormalize(req)
}

func githubTools() map[string]ToolDescriptor {
	return map[string]ToolDescriptor{
		"get_repo": {
			Name:        "get_repo",
			Description: "Fetch metadata for a GitHub repository.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"owner": map[string]interface{}{"type": "string"}, "repo": map[string]interface{}{"type": "string"}},
				"required":   []string{"owner", "repo"},
			},
			Handler: githubGetRepo,
		},
		"list_issues": {
			Name:        "list_issues",
			Description: "List open issues for a GitHub repository.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"owner": map[string]interface{}{"type": "string"}, "repo": map[string]interface{}{"type": "string"}},
				"required":   []string{"owner", "repo"},
			},
			Handler: githubListIssues,
		},
	}
}

func githubGetRepo(ctx context.Context, args map[string]interface{}) (CallToolResult, error) {
	owner, _ := args["owner"].(string)
	repo, _ := args["repo"].(string)
	if owner == "" || repo == "" {
		return errorResult("\"owner\" and \"repo\" are required"), nil
	}
	endpoint := fmt.Sprintf("https://api.github.com/repos/%s/%s", url.PathEscape(owner), url.PathEscape(repo))
	return doBearerJSON(ctx, http.MethodGet, endpoint, os.Getenv("GITHUB_TOKEN"))
}

func githubListIssues(ctx context.Context, args map[string]interface{}) (CallToolResult, error) {
	owner, _ := args["owner"].(string)
	repo, _ := args["repo"].(string)
	if owner == "" || repo == "" {
		return errorResult("\"owner\" and \"repo\" are required"), nil
	}
	endpoint := fmt.Sprintf("https://api.github.com/repos/%s/%s/issues", url.PathEscape(owner), url.PathEscape(repo))
	return doBearerJSON(ctx, http.MethodGet, endpoint, os.Getenv("GITHUB_TOKEN"))
}

func gmailTools() map[string]ToolDescriptor {
	return map[string]ToolDescriptor{
		"list_messages": {
			Name:        "list_messages",
			Description: "List recent message ids in the authenticated mailbox.",
			InputSchema: map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
			Handler:     gmailListMessages,
		},
	}
}

func gmailListMessages(ctx context.Context, args map[string]interface{}) (CallToolResult, error) {
	const endpoint = "https://gmail.googleapis.com/gmail/v1/users/me/messages"
	return doBearerJSON(ctx, http.MethodGet, endpoint, os.Getenv("GMAIL_ACCESS_TOKEN"))
}

func doBearerJSON(ctx context.Context, method, endpoint, token string) (CallToolResult, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return CallToolResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return executeAndNormalize(req)
}

// executeAndNormalize implements spec.md §4.5's error-normalization
// rule: a non-2xx response becomes isError:true with a plain-text
// "Error: ..." content entry, never a raw transport error.
func executeAndNormalize(req *http.Request) (CallToolResult, error) {
	resp, err := httpDo(req)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorResult(fmt.Sprintf("upstream returned status %d: %s", resp.StatusCode, string(data))), nil
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		parsed = string(data)
	}
	return CallToolResult{
		Content: []ContentItem{{Type: "text", Text: string(data)}},
		Raw:     parsed,
	}, nil
}
