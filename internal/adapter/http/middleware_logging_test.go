package adapthttp

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"foodpoints/internal/domain"
)

func TestLoggingMiddleware(t *testing.T) {
	s := &Server{}
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("OK"))
	})
	handler := s.loggingMiddleware(nextHandler)

	var buf bytes.Buffer
	original := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(original)

	req := httptest.NewRequest("GET", "/test-path", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status %d, got %d", http.StatusTeapot, w.Code)
	}

	logOutput := buf.String()
	for _, want := range []string{`"method":"GET"`, `"path":"/test-path"`, `"status":418`} {
		if !strings.Contains(logOutput, want) {
			t.Errorf("Log output missing %s. Got: %s", want, logOutput)
		}
	}
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()

	unlock := k.Lock("a")
	acquired := make(chan struct{})
	go func() {
		u := k.Lock("a")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock on the same key did not block")
	case <-time.After(20 * time.Millisecond):
	}

	// Other keys are independent.
	k.Lock("b")()

	unlock()
	<-acquired

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k.Lock("c")()
		}()
	}
	wg.Wait()

	if n := k.len(); n != 0 {
		t.Errorf("expected all locks released, %d left", n)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(60)
	for i := 0; i < 60; i++ {
		if !rl.allow("alice") {
			t.Fatalf("request %d rejected within burst", i)
		}
	}
	if rl.allow("alice") {
		t.Error("request beyond burst allowed")
	}
	if !rl.allow("bob") {
		t.Error("limits are per user")
	}
	if got := rl.retryAfter(); got != 1 {
		t.Errorf("retryAfter = %d, want 1", got)
	}
	if rl.size() != 2 {
		t.Errorf("size = %d, want 2", rl.size())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.Authentication("login required"), http.StatusUnauthorized},
		{domain.Forbidden("admin access required"), http.StatusForbidden},
		{domain.Provider("lookup failed", nil), http.StatusBadGateway},
		{domain.Validation("bad index"), http.StatusBadRequest},
		{domain.NotFound("no entry"), http.StatusNotFound},
		{domain.NoSelection(), http.StatusConflict},
		{domain.Persistence("insert", errors.New("disk full")), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", domain.NotFound("no entry")), http.StatusNotFound},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
