package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	model string
	body  map[string]any
	at    time.Time
}

type fakeGemini struct {
	mu      sync.Mutex
	calls   []recordedCall
	handler func(model string, n int) (int, string)
}

func (f *fakeGemini) serve(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key-123456" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		model := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1beta/models/"), ":generateContent")
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		f.calls = append(f.calls, recordedCall{model: model, body: body, at: time.Now()})
		n := len(f.calls)
		f.mu.Unlock()

		status, payload := f.handler(model, n)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeGemini) models() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.model)
	}
	return out
}

func textReply(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, text)
}

func newTestClient(t *testing.T, baseURL string) *GeminiClient {
	t.Helper()
	c, err := NewGeminiClient(GeminiConfig{
		APIKey:  "test-key-123456",
		BaseURL: baseURL,
		Backoff: time.Millisecond,
	}, nil)
	require.NoError(t, err)
	return c
}

func TestGenerate_FirstModelSucceeds(t *testing.T) {
	fake := &fakeGemini{handler: func(string, int) (int, string) {
		return http.StatusOK, textReply("hello")
	}}
	srv := fake.serve(t)

	img := &Image{MimeType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
	text, err := newTestClient(t, srv.URL).Generate(context.Background(), "describe", img)
	require.NoError(t, err)
	require.Equal(t, "hello", text)
	require.Equal(t, []string{"gemini-1.5-pro"}, fake.models())

	body := fake.calls[0].body
	parts := body["contents"].([]any)[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 2)
	inline := parts[0].(map[string]any)["inline_data"].(map[string]any)
	require.Equal(t, "image/png", inline["mime_type"])
	require.Equal(t, "iVBORw==", inline["data"])
	require.Equal(t, "describe", parts[1].(map[string]any)["text"])

	cfg := body["generationConfig"].(map[string]any)
	require.Equal(t, 0.7, cfg["temperature"])
	require.Equal(t, float64(40), cfg["topK"])
	require.Equal(t, 0.95, cfg["topP"])
	require.Equal(t, float64(2048), cfg["maxOutputTokens"])
}

func TestGenerate_CascadesToNextModel(t *testing.T) {
	fake := &fakeGemini{handler: func(model string, _ int) (int, string) {
		if model == "gemini-1.5-pro" {
			return http.StatusServiceUnavailable, `{"error":"overloaded"}`
		}
		return http.StatusOK, textReply("from flash")
	}}
	srv := fake.serve(t)

	text, err := newTestClient(t, srv.URL).Generate(context.Background(), "p", nil)
	require.NoError(t, err)
	require.Equal(t, "from flash", text)
	require.Equal(t, []string{"gemini-1.5-pro", "gemini-1.5-pro", "gemini-1.5-flash"}, fake.models())
}

func TestGenerate_EmptyCandidatesCountAsFailure(t *testing.T) {
	fake := &fakeGemini{handler: func(_ string, n int) (int, string) {
		if n == 1 {
			return http.StatusOK, `{"candidates":[]}`
		}
		return http.StatusOK, textReply("second try")
	}}
	srv := fake.serve(t)

	text, err := newTestClient(t, srv.URL).Generate(context.Background(), "p", nil)
	require.NoError(t, err)
	require.Equal(t, "second try", text)
	require.Len(t, fake.models(), 2)
}

func TestGenerate_AllModelsFail(t *testing.T) {
	fake := &fakeGemini{handler: func(string, int) (int, string) {
		return http.StatusInternalServerError, `{}`
	}}
	srv := fake.serve(t)

	_, err := newTestClient(t, srv.URL).Generate(context.Background(), "p", nil)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrGenerationFailed)

	var cascade *CascadeError
	require.True(t, errors.As(err, &cascade))
	require.Len(t, cascade.Errs, 6)

	var status *StatusError
	require.True(t, errors.As(err, &status))
	require.Equal(t, http.StatusInternalServerError, status.Status)
	require.Len(t, fake.models(), 6)
}

func TestGenerate_StopsWhenContextEnds(t *testing.T) {
	fake := &fakeGemini{handler: func(string, int) (int, string) {
		return http.StatusInternalServerError, `{}`
	}}
	srv := fake.serve(t)

	c, err := NewGeminiClient(GeminiConfig{APIKey: "test-key-123456", BaseURL: srv.URL, Backoff: time.Hour}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = c.Generate(ctx, "p", nil)
	require.ErrorIs(t, err, ErrGenerationFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 5*time.Second)
	require.Len(t, fake.models(), 1)
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(GeminiConfig{}, nil)
	require.Error(t, err)
}

func TestGenerate_BackoffGrowsLinearlyWithinModel(t *testing.T) {
	fake := &fakeGemini{handler: func(string, int) (int, string) {
		return http.StatusServiceUnavailable, `{"error":"overloaded"}`
	}}
	srv := fake.serve(t)

	const backoff = 60 * time.Millisecond
	c, err := NewGeminiClient(GeminiConfig{
		APIKey:           "test-key-123456",
		BaseURL:          srv.URL,
		Models:           []string{"pro", "flash"},
		AttemptsPerModel: 3,
		Backoff:          backoff,
	}, nil)
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "prompt", nil)
	require.ErrorIs(t, err, ErrGenerationFailed)

	fake.mu.Lock()
	calls := append([]recordedCall(nil), fake.calls...)
	fake.mu.Unlock()
	require.Len(t, calls, 6)
	require.Equal(t, []string{"pro", "pro", "pro", "flash", "flash", "flash"}, fake.models())

	gap := func(i int) time.Duration { return calls[i].at.Sub(calls[i-1].at) }

	// Within a model the wait before attempt n+1 is backoff*n.
	require.GreaterOrEqual(t, gap(1), backoff)
	require.GreaterOrEqual(t, gap(2), 2*backoff)
	require.Greater(t, gap(2), gap(1))
	require.GreaterOrEqual(t, gap(4), backoff)
	require.GreaterOrEqual(t, gap(5), 2*backoff)

	// Moving to the next model does not wait.
	require.Less(t, gap(3), backoff)
}
