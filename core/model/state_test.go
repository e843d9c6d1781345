package model

import (
	"sync"
	"testing"
)

func TestStateManagerLifecycle(t *testing.T) {
	s := NewStateManager()

	if s.IsFitted() {
		t.Error("new StateManager must start unfitted")
	}

	s.SetFitted()
	s.SetDimensions(5, 100)

	if !s.IsFitted() {
		t.Error("expected fitted after SetFitted")
	}
	if got := s.NFeatures(); got != 5 {
		t.Errorf("NFeatures() = %d, want 5", got)
	}
	if got := s.NSamples(); got != 100 {
		t.Errorf("NSamples() = %d, want 100", got)
	}

	s.Reset()
	if s.IsFitted() {
		t.Error("expected unfitted after Reset")
	}
	if s.NFeatures() != 0 || s.NSamples() != 0 {
		t.Error("Reset must clear dimensions")
	}
}

func TestStateManagerConcurrentAccess(t *testing.T) {
	s := NewStateManager()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetFitted()
			s.SetDimensions(3, 10)
		}()
		go func() {
			defer wg.Done()
			_ = s.IsFitted()
			_ = s.NFeatures()
		}()
	}
	wg.Wait()

	if !s.IsFitted() {
		t.Error("expected fitted after concurrent SetFitted calls")
	}
}
