package build

import (
	"context"
	"testing"
)

func TestBuildStatus_IsSuccess(t *testing.T) {
	tests := []struct {
		status   BuildStatus
		expected bool
	}{
		{BuildStatusSuccess, true},
		{BuildStatusEmpty, true},
		{BuildStatusFailed, false},
		{BuildStatusCanceled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsSuccess(); got != tt.expected {
				t.Errorf("IsSuccess() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewBuildService(t *testing.T) {
	svc := NewBuildService()
	if svc == nil {
		t.Fatal("NewBuildService() returned nil")
	}
	if svc.detect == nil {
		t.Error("detect should be set")
	}
	if svc.markdown == nil {
		t.Error("markdown renderer should be set")
	}
}

func TestDefaultBuildService_Run_NilConfig(t *testing.T) {
	svc := NewBuildService()

	result, err := svc.Run(context.Background(), BuildRequest{Config: nil})
	if err == nil {
		t.Error("expected error for nil config")
	}
	if result.Status != BuildStatusFailed {
		t.Errorf("expected status %s, got %s", BuildStatusFailed, result.Status)
	}
	if result.BuildID == "" {
		t.Error("expected a build id even on failure")
	}
}
