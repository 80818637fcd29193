package opentdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mini-quiz/internal/domain"
	"mini-quiz/internal/infra/memory"
)

const fiveQuestions = `{"response_code":0,"results":[
{"category":"Science: Mathematics","type":"multiple","difficulty":"easy","question":"What&#039;s 2+2?","correct_answer":"4","incorrect_answers":["1","2","3"]},
{"category":"Science: Mathematics","type":"multiple","difficulty":"easy","question":"What is 3 x 3?","correct_answer":"9","incorrect_answers":["6","8","12"]},
{"category":"Science: Mathematics","type":"multiple","difficulty":"easy","question":"How many sides has a hexagon?","correct_answer":"6","incorrect_answers":["5","7","8"]},
{"category":"Science: Mathematics","type":"multiple","difficulty":"easy","question":"What is 10 &divide; 2?","correct_answer":"5","incorrect_answers":["2","4","20"]},
{"category":"Science: Mathematics","type":"multiple","difficulty":"easy","question":"Is 1 &lt; 2?","correct_answer":"Yes","incorrect_answers":["No","Maybe","Sometimes"]}
]}`

func defaultParams() Params {
	return Params{Amount: 5, Category: 19, Difficulty: "easy", Type: "multiple"}
}

func TestFetchQuestionsRequestsConfiguredSet(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api.php" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, fiveQuestions)
	}))
	defer server.Close()

	client := NewClient(server.URL, defaultParams())
	questions, err := client.FetchQuestions(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotQuery != "amount=5&category=19&difficulty=easy&type=multiple" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if len(questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(questions))
	}
	if questions[0].Text != "What's 2+2?" {
		t.Fatalf("expected decoded prompt, got %q", questions[0].Text)
	}
	if questions[3].Text != "What is 10 ÷ 2?" {
		t.Fatalf("expected named entity decoded, got %q", questions[3].Text)
	}
	for i, q := range questions {
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			t.Fatalf("question %d: correct index %d out of range", i, q.CorrectIndex)
		}
	}
}

func TestFetchQuestionsErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "oops", wantErr: domain.ErrNetwork},
		{name: "not found", status: http.StatusNotFound, body: "", wantErr: domain.ErrNetwork},
		{name: "malformed body", status: http.StatusOK, body: "{not json", wantErr: domain.ErrNetwork},
		{name: "empty results", status: http.StatusOK, body: `{"response_code":0,"results":[]}`, wantErr: domain.ErrEmptyResult},
		{name: "no results code", status: http.StatusOK, body: `{"response_code":1,"results":[]}`, wantErr: domain.ErrEmptyResult},
		{name: "invalid parameter", status: http.StatusOK, body: `{"response_code":2,"results":[]}`, wantErr: domain.ErrNetwork},
		{name: "rate limited", status: http.StatusOK, body: `{"response_code":5,"results":[]}`, wantErr: domain.ErrNetwork},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			defer server.Close()

			_, err := NewClient(server.URL, defaultParams()).FetchQuestions(context.Background())
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestFetchQuestionsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url, defaultParams()).FetchQuestions(context.Background())
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestFetchQuestionsHonoursContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(server.URL, defaultParams()).FetchQuestions(ctx)
	if !errors.Is(err, domain.ErrNetwork) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wrapped deadline error, got %v", err)
	}
}

func TestFetchQuestionsRequestsTokenOnce(t *testing.T) {
	var tokenRequests atomic.Int32
	var mu sync.Mutex
	var tokensSeen []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api_token.php":
			tokenRequests.Add(1)
			fmt.Fprint(w, `{"response_code":0,"response_message":"Token Generated Successfully!","token":"tok-1"}`)
		case "/api.php":
			mu.Lock()
			tokensSeen = append(tokensSeen, r.URL.Query().Get("token"))
			mu.Unlock()
			fmt.Fprint(w, fiveQuestions)
		}
	}))
	defer server.Close()

	store := memory.NewTokenStore(time.Hour)
	client := NewClient(server.URL, defaultParams(), WithTokenStore(store))

	for i := 0; i < 3; i++ {
		if _, err := client.FetchQuestions(context.Background()); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}

	if got := tokenRequests.Load(); got != 1 {
		t.Fatalf("expected one token request, got %d", got)
	}
	for i, tok := range tokensSeen {
		if tok != "tok-1" {
			t.Fatalf("fetch %d sent token %q", i, tok)
		}
	}
}

func TestFetchQuestionsDropsUnknownToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response_code":3,"results":[]}`)
	}))
	defer server.Close()

	ctx := context.Background()
	store := memory.NewTokenStore(time.Hour)
	_ = store.SaveToken(ctx, "stale")

	_, err := NewClient(server.URL, defaultParams(), WithTokenStore(store)).FetchQuestions(ctx)
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if _, ok, _ := store.Token(ctx); ok {
		t.Fatalf("expected stale token deleted")
	}
}

func TestFetchQuestionsResetsExhaustedToken(t *testing.T) {
	var resetCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api_token.php":
			if r.URL.Query().Get("command") == "reset" && r.URL.Query().Get("token") == "tok-1" {
				resetCalls.Add(1)
			}
			fmt.Fprint(w, `{"response_code":0,"token":"tok-1"}`)
		case "/api.php":
			fmt.Fprint(w, `{"response_code":4,"results":[]}`)
		}
	}))
	defer server.Close()

	ctx := context.Background()
	store := memory.NewTokenStore(time.Hour)
	_ = store.SaveToken(ctx, "tok-1")

	_, err := NewClient(server.URL, defaultParams(), WithTokenStore(store)).FetchQuestions(ctx)
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if resetCalls.Load() != 1 {
		t.Fatalf("expected one reset call, got %d", resetCalls.Load())
	}
	if tok, ok, _ := store.Token(ctx); !ok || tok != "tok-1" {
		t.Fatalf("expected token kept after successful reset, got %q ok=%v", tok, ok)
	}
}

func TestFetchQuestionsWithoutTokenWhenTokenRequestFails(t *testing.T) {
	var sawToken atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api_token.php":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/api.php":
			if r.URL.Query().Has("token") {
				sawToken.Store(true)
			}
			fmt.Fprint(w, fiveQuestions)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, defaultParams(), WithTokenStore(memory.NewTokenStore(time.Hour)))
	questions, err := client.FetchQuestions(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(questions) != 5 || sawToken.Load() {
		t.Fatalf("expected anonymous fetch of 5 questions, got %d token=%v", len(questions), sawToken.Load())
	}
}
