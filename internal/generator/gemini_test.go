package generator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func testGenClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("TEST_GEMINI_KEY", "test-key")
	c, err := NewClient(Config{
		BaseURL:   srv.URL,
		APIKeyEnv: "TEST_GEMINI_KEY",
		Model:     "gemini-2.5-flash",
	})
	require.NoError(t, err)
	return c
}

func TestGenerateConcatenatesParts(t *testing.T) {
	var gotPath string
	c := testGenClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		fmt.Fprint(w, `{"candidates": [{"content": {"parts": [{"text": "Rent was "}, {"text": "$1000."}]}}]}`)
	})

	text, err := c.Generate(context.Background(), "How much was rent?")
	require.NoError(t, err)
	require.Equal(t, "Rent was $1000.", text)
	require.Equal(t, "/models/gemini-2.5-flash:generateContent", gotPath)
}

func TestGenerateSafetyBlock(t *testing.T) {
	c := testGenClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"promptFeedback": {"blockReason": "SAFETY"}}`)
	})

	_, err := c.Generate(context.Background(), "question")
	require.ErrorContains(t, err, "SAFETY")
}

func TestGenerateNoCandidates(t *testing.T) {
	c := testGenClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates": []}`)
	})

	_, err := c.Generate(context.Background(), "question")
	require.ErrorContains(t, err, "no candidates")
}

func TestGenerateHTTPError(t *testing.T) {
	c := testGenClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error": {"message": "overloaded"}}`)
	})

	_, err := c.Generate(context.Background(), "question")
	require.ErrorContains(t, err, "overloaded")
}

func TestDescribeSendsInlineImage(t *testing.T) {
	image := []byte{0x89, 0x50, 0x4e, 0x47}
	var gotBody struct {
		Contents []struct {
			Parts []part `json:"parts"`
		} `json:"contents"`
	}
	c := testGenClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"candidates": [{"content": {"parts": [{"text": "A bank statement."}]}}]}`)
	})

	text, err := c.Describe(context.Background(), "Transcribe this.", image, "image/png")
	require.NoError(t, err)
	require.Equal(t, "A bank statement.", text)

	require.Len(t, gotBody.Contents, 1)
	parts := gotBody.Contents[0].Parts
	require.Len(t, parts, 2)
	require.Equal(t, "Transcribe this.", parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	require.Equal(t, "image/png", parts[1].InlineData.MimeType)
	require.Equal(t, base64.StdEncoding.EncodeToString(image), parts[1].InlineData.Data)
}
