package connector

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignRequestProducesDistinctNoncesWithinSameSecond(t *testing.T) {
	origNow, origNonce := nowFunc, nonceFunc
	defer func() { nowFunc, nonceFunc = origNow, origNonce }()

	fixed := time.Unix(1700000000, 0)
	nowFunc = func() time.Time { return fixed }

	creds := OAuth1Credentials{ConsumerKey: "ck", ConsumerSecret: "cs", Token: "tok", TokenSecret: "ts"}
	h1, err := SignRequest("POST", "https://api.x.com/2/tweets", nil, creds)
	require.NoError(t, err)
	h2, err := SignRequest("POST", "https://api.x.com/2/tweets", nil, creds)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2, "two signings within the same second must differ because the nonce varies")
}

func TestSignRequestHeaderShape(t *testing.T) {
	creds := OAuth1Credentials{ConsumerKey: "ck", ConsumerSecret: "cs", Token: "tok", TokenSecret: "ts"}
	header, err := SignRequest("GET", "https://api.x.com/2/users/by/username/jack", nil, creds)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(header, "OAuth "))
	for _, key := range []string{"oauth_consumer_key", "oauth_nonce", "oauth_signature", "oauth_signature_method", "oauth_timestamp", "oauth_token", "oauth_version"} {
		assert.Contains(t, header, key+"=")
	}
}

func TestPercentEncodeRFC3986(t *testing.T) {
	assert.Equal(t, "hello%20world", percentEncode("hello world"))
	assert.Equal(t, "a~b", percentEncode("a~b"), "tilde must not be escaped")
}
