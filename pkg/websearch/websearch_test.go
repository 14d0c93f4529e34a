package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSearch(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(Response{
			Query:  "go generics",
			Answer: "Generics arrived in Go 1.18.",
			Results: []Result{{
				Title:   "Go 1.18 Release Notes",
				URL:     "https://go.dev/doc/go1.18",
				Content: "Go 1.18 adds support for generics.",
				Score:   0.97,
			}},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "tv-key", BaseURL: server.URL}, nil)
	resp, err := client.Search(context.Background(), "go generics", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Answer == "" || len(resp.Results) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if gotBody["api_key"] != "tv-key" || gotBody["query"] != "go generics" {
		t.Fatalf("request body missing fields: %v", gotBody)
	}
	if gotBody["max_results"] != float64(5) {
		t.Fatalf("max_results should default to 5, got %v", gotBody["max_results"])
	}
	if gotBody["include_answer"] != true {
		t.Fatalf("include_answer should be set")
	}
}

func TestSearchNotConfigured(t *testing.T) {
	client := NewClient(Config{}, nil)
	if client.Enabled() {
		t.Fatalf("client without key should be disabled")
	}
	_, err := client.Search(context.Background(), "anything", 5)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSearchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "tv-key", BaseURL: server.URL}, nil)
	if _, err := client.Search(context.Background(), "anything", 5); err == nil {
		t.Fatalf("upstream failure should error")
	}
}

func TestFormatForPrompt(t *testing.T) {
	formatted := FormatForPrompt(&Response{
		Query:  "go generics",
		Answer: "Generics arrived in Go 1.18.",
		Results: []Result{{
			Title:         "Go 1.18 Release Notes",
			URL:           "https://go.dev/doc/go1.18",
			Content:       strings.Repeat("x", 400),
			PublishedDate: "2022-03-15",
		}},
	})

	for _, want := range []string{
		`"go generics"`,
		"**Quick Answer:** Generics arrived in Go 1.18.",
		"1. **Go 1.18 Release Notes**",
		"Source: https://go.dev/doc/go1.18",
		"Published: 2022-03-15",
		"Cite specific sources",
	} {
		if !strings.Contains(formatted, want) {
			t.Fatalf("formatted output missing %q", want)
		}
	}
	if strings.Contains(formatted, strings.Repeat("x", 301)) {
		t.Fatalf("snippets should be clipped to 300 characters")
	}

	// A multi-byte snippet must clip on a rune boundary, not mid-character.
	wide := FormatForPrompt(&Response{
		Query:   "q",
		Results: []Result{{Title: "t", URL: "u", Content: strings.Repeat("界", 400)}},
	})
	if !utf8.ValidString(wide) {
		t.Fatalf("formatted output contains invalid UTF-8")
	}
	if strings.Contains(wide, strings.Repeat("界", 301)) {
		t.Fatalf("multi-byte snippet should be clipped to 300 runes")
	}
}

func TestShouldAutoSearch(t *testing.T) {
	cases := []struct {
		prompt string
		want   bool
	}{
		{"what is the latest Go release?", true},
		{"What's happening in the markets today?", true},
		{"current price of gold", true},
		{"weather in Kolkata", true},
		{"explain goroutines to me", false},
		{"write a haiku about autumn", false},
	}
	for _, tc := range cases {
		if got := ShouldAutoSearch(tc.prompt); got != tc.want {
			t.Fatalf("ShouldAutoSearch(%q) = %v, want %v", tc.prompt, got, tc.want)
		}
	}
}
