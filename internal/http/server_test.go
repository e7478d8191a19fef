package http

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestServerShutdownBeforeRun(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewServer(RouterConfig{})
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := s.Run("127.0.0.1:0"); err != nil {
		t.Fatalf("run after shutdown should return nil, got %v", err)
	}
}

func TestServerRunStopsOnShutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewServer(RouterConfig{})
	done := make(chan error, 1)
	go func() { done <- s.Run("127.0.0.1:0") }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		s.mu.Lock()
		started := s.srv != nil
		s.mu.Unlock()
		if started || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
