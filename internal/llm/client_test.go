package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/cognicore/topiq/pkg/topiq/label"
)

type roundTrip func(*http.Request) (*http.Response, error)

func (f roundTrip) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(rt roundTrip) *Client {
	return &Client{
		BaseURL:    "http://llm.test/v1/chat/completions",
		APIKey:     "test-key",
		Model:      "test-model",
		HTTPClient: &http.Client{Transport: rt},
	}
}

func TestGenerateSendsChatRequest(t *testing.T) {
	var captured []byte
	var auth string
	c := newTestClient(func(req *http.Request) (*http.Response, error) {
		var err error
		captured, err = io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		auth = req.Header.Get("Authorization")
		return jsonResponse(200, `{"choices":[{"message":{"role":"assistant","content":"Neural Networks"}}]}`), nil
	})

	got, err := c.Generate(context.Background(), label.Request{
		Prompt:       "label these terms",
		MaxTokens:    150,
		Temperature:  0.3,
		JSONResponse: true,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Neural Networks" {
		t.Errorf("content = %q", got)
	}
	if auth != "Bearer test-key" {
		t.Errorf("authorization = %q", auth)
	}

	var body map[string]any
	if err := json.Unmarshal(captured, &body); err != nil {
		t.Fatalf("unmarshal request: %v", err)
	}
	if body["model"] != "test-model" {
		t.Errorf("model = %v", body["model"])
	}
	if body["max_tokens"] != float64(150) {
		t.Errorf("max_tokens = %v", body["max_tokens"])
	}
	rf, ok := body["response_format"].(map[string]any)
	if !ok || rf["type"] != "json_object" {
		t.Errorf("response_format = %v", body["response_format"])
	}
	msgs, ok := body["messages"].([]any)
	if !ok || len(msgs) != 1 {
		t.Fatalf("messages = %v", body["messages"])
	}
	if m := msgs[0].(map[string]any); m["content"] != "label these terms" {
		t.Errorf("prompt = %v", m["content"])
	}
}

func TestGenerateOmitsResponseFormatWhenUnset(t *testing.T) {
	var captured []byte
	c := newTestClient(func(req *http.Request) (*http.Response, error) {
		captured, _ = io.ReadAll(req.Body)
		return jsonResponse(200, `{"choices":[{"message":{"content":"ok"}}]}`), nil
	})

	if _, err := c.Generate(context.Background(), label.Request{Prompt: "p"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if bytes.Contains(captured, []byte("response_format")) {
		t.Errorf("response_format should be omitted: %s", captured)
	}
}

func TestGenerateHTTPError(t *testing.T) {
	c := newTestClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(500, `{}`), nil
	})
	if _, err := c.Generate(context.Background(), label.Request{Prompt: "p"}); err == nil {
		t.Error("expected error for http 500")
	}
}

func TestGenerateAPIError(t *testing.T) {
	c := newTestClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"error":{"message":"model overloaded"}}`), nil
	})
	_, err := c.Generate(context.Background(), label.Request{Prompt: "p"})
	if err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Errorf("err = %v", err)
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	c := newTestClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"choices":[]}`), nil
	})
	if _, err := c.Generate(context.Background(), label.Request{Prompt: "p"}); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestGenerateRequiresEndpoint(t *testing.T) {
	c := &Client{}
	if _, err := c.Generate(context.Background(), label.Request{Prompt: "p"}); err == nil {
		t.Error("expected error without base URL and model")
	}
}
