package core

import (
	"errors"
	"testing"
)

func TestCleanString(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		lower bool
		want  string
	}{
		{name: "trims space", in: "  hello  ", want: "hello"},
		{name: "lowers", in: " HeLLo ", lower: true, want: "hello"},
		{name: "empty", in: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			if tt.lower {
				got = CleanString(tt.in, true)
			} else {
				got = CleanString(tt.in)
			}
			if got != tt.want {
				t.Errorf("CleanString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRetry(t *testing.T) {
	t.Run("succeeds after a transient fault", func(t *testing.T) {
		calls := 0
		err := Retry(2, func() error {
			calls++
			if calls < 2 {
				return NewTransientError(errors.New("connection reset"), "writing")
			}
			return nil
		})
		if err != nil {
			t.Errorf("Retry() error = %v", err)
		}
		if calls != 2 {
			t.Errorf("Retry() calls = %d, want 2", calls)
		}
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		calls := 0
		err := Retry(2, func() error {
			calls++
			return NewTransientError(errors.New("connection reset"), "writing")
		})
		if !IsTransient(err) {
			t.Errorf("Retry() error = %v, want transient", err)
		}
		if calls != 2 {
			t.Errorf("Retry() calls = %d, want 2", calls)
		}
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		permanent := errors.New("constraint violation")
		calls := 0
		err := Retry(2, func() error {
			calls++
			return permanent
		})
		if err != permanent {
			t.Errorf("Retry() error = %v, want %v", err, permanent)
		}
		if calls != 1 {
			t.Errorf("Retry() calls = %d, want 1", calls)
		}
	})
}

func TestErrorKinds(t *testing.T) {
	if !IsTransient(NewTransientError(errors.New("x"), "y")) {
		t.Error("IsTransient() = false for a transient error")
	}
	if IsTransient(errors.New("x")) {
		t.Error("IsTransient() = true for a plain error")
	}
	if !IsShutdown(NewShutdownError("x")) {
		t.Error("IsShutdown() = false for a shutdown error")
	}
	if IsShutdown(errors.New("x")) {
		t.Error("IsShutdown() = true for a plain error")
	}
}
