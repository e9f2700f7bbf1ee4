package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dvieira/kai/internal/config"
	apierrors "github.com/dvieira/kai/internal/errors"
	"github.com/dvieira/kai/internal/models"
)

func testConfig(endpoint string) config.Config {
	cfg := config.DefaultConfig()
	cfg.APIKey = "sk-test"
	cfg.Endpoint = endpoint
	return cfg
}

func completionHandler(t *testing.T, reply string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Model == "" {
			t.Error("request should carry a model identifier")
		}

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func TestSend(t *testing.T) {
	srv := httptest.NewServer(completionHandler(t, "hi there"))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	msg, err := client.Send(context.Background(), models.Transcript{models.UserMessage("hello")})
	if err != nil {
		t.Fatalf("Send() returned error: %v", err)
	}

	if msg.Role != models.RoleAssistant {
		t.Errorf("reply role = %s, want assistant", msg.Role)
	}
	if msg.Content != "hi there" {
		t.Errorf("reply content = %q, want %q", msg.Content, "hi there")
	}
}

func TestSend_FullTranscriptForwarded(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	transcript := models.Transcript{
		models.UserMessage("first"),
		models.AssistantMessage("reply"),
		models.UserMessage("second"),
	}

	client := NewClient(testConfig(srv.URL))
	if _, err := client.Send(context.Background(), transcript); err != nil {
		t.Fatalf("Send() returned error: %v", err)
	}

	if len(got.Messages) != 3 {
		t.Fatalf("forwarded %d messages, want 3", len(got.Messages))
	}
	if got.Messages[2].Content != "second" {
		t.Errorf("last forwarded message = %q", got.Messages[2].Content)
	}
}

func TestSend_EmptyTranscript(t *testing.T) {
	client := NewClient(testConfig("http://unused.invalid"))
	if _, err := client.Send(context.Background(), nil); err == nil {
		t.Error("Send() with empty transcript should fail")
	}
}

func TestSend_AuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Send(context.Background(), models.Transcript{models.UserMessage("hello")})
	if err == nil {
		t.Fatal("Send() should fail on 401")
	}

	var ae *apierrors.AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *AuthError, got %T: %v", err, err)
	}
	if ae.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", ae.StatusCode)
	}
	if ae.Message != "Incorrect API key provided" {
		t.Errorf("Message = %q, provider message should be extracted", ae.Message)
	}
}

func TestSend_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"The server had an error"}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Send(context.Background(), models.Transcript{models.UserMessage("hello")})

	var pe *apierrors.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProviderError, got %T: %v", err, err)
	}
	if pe.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", pe.StatusCode)
	}
	if pe.Message != "The server had an error" {
		t.Errorf("Message = %q", pe.Message)
	}
}

func TestSend_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Send(context.Background(), models.Transcript{models.UserMessage("hello")})

	if !apierrors.IsProviderError(err) {
		t.Errorf("expected ProviderError for empty choices, got %T: %v", err, err)
	}
}

func TestSend_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Send(context.Background(), models.Transcript{models.UserMessage("hello")})

	if !apierrors.IsProviderError(err) {
		t.Errorf("expected ProviderError for malformed body, got %T: %v", err, err)
	}
}

func TestSend_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Closed before use: connection refused

	client := NewClient(testConfig(srv.URL))
	_, err := client.Send(context.Background(), models.Transcript{models.UserMessage("hello")})

	var ne *apierrors.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected *NetworkError, got %T: %v", err, err)
	}
	if !apierrors.IsNetworkError(err) {
		t.Error("IsNetworkError should be true")
	}
}

func TestSend_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		srv.Close()
	}()

	client := NewClient(testConfig(srv.URL), WithTimeout(50*time.Millisecond))
	_, err := client.Send(context.Background(), models.Transcript{models.UserMessage("hello")})

	if !apierrors.IsTimeoutError(err) {
		t.Errorf("expected TimeoutError, got %T: %v", err, err)
	}
	// Timeouts surface to the user as network failures
	if !apierrors.IsNetworkError(err) {
		t.Error("IsNetworkError should be true for a timeout")
	}
}

func TestSend_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		srv.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Send(ctx, models.Transcript{models.UserMessage("hello")})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	// Cancellation is not a user-facing failure category
	if apierrors.IsNetworkError(err) || apierrors.IsProviderError(err) {
		t.Error("a cancelled request should not classify as network or provider failure")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := testConfig("")
	client := NewClient(cfg,
		WithModel("gpt-4o"),
		WithEndpoint("https://proxy.local/v1/chat/completions"),
		WithMaxTokens(150),
		WithTimeout(30*time.Second),
	)

	if client.model != "gpt-4o" {
		t.Errorf("model = %s", client.model)
	}
	if client.endpoint != "https://proxy.local/v1/chat/completions" {
		t.Errorf("endpoint = %s", client.endpoint)
	}
	if client.maxTokens != 150 {
		t.Errorf("maxTokens = %d", client.maxTokens)
	}
	if client.timeout != 30*time.Second {
		t.Errorf("timeout = %v", client.timeout)
	}
}

func TestProviderMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"openai shape", `{"error":{"message":"bad request"}}`, "bad request"},
		{"flat shape", `{"message":"try later"}`, "try later"},
		{"not json", `<html>502</html>`, ""},
		{"unrelated json", `{"status":"down"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := providerMessage([]byte(tt.body)); got != tt.want {
				t.Errorf("providerMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
