package metrics

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/baremetal-ci/kt-harness/types"
)

func TestErrToLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "nil error",
			err:  nil,
		},
		{
			name: "simple error",
			err:  errors.New("test error"),
		},
		{
			name: "error with special chars",
			err:  errors.New("test@error#123"),
		},
		{
			name: "error with multiple spaces",
			err:  errors.New("test   error"),
		},
		{
			name: "error with multiple underscores",
			err:  errors.New("test__error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label := errToLabel(tt.err)
			if tt.err == nil {
				if label != "nil" {
					t.Errorf("expected 'nil' for nil error, got %q", label)
				}
				return
			}
			if matched, _ := regexp.MatchString(`^[a-zA-Z_]*$`, label); !matched {
				t.Errorf("label %q contains invalid characters", label)
			}
		})
	}
}

func TestIsValidOutcome(t *testing.T) {
	if !isValidOutcome(types.OutcomePass) {
		t.Error("pass should be a valid outcome")
	}
	if !isValidOutcome(types.OutcomeFail) {
		t.Error("fail should be a valid outcome")
	}
	if isValidOutcome(types.OutcomePending) {
		t.Error("pending must not be recorded as a terminal outcome")
	}
	if isValidOutcome(types.Outcome("bogus")) {
		t.Error("unknown outcomes must be rejected")
	}
}

func TestRecordTestIgnoresInvalidOutcome(t *testing.T) {
	// Must not panic or record anything; verified by it not blowing up the
	// default registry with an unexpected label combination.
	RecordTest("board", "run", "some_test", types.KindSync, types.OutcomePending)
}

func TestRecordSuite(t *testing.T) {
	RecordSuite("board", "run-1", types.OutcomePass, 8, 8, 0, 100*time.Millisecond)
	RecordSuite("board", "run-2", types.OutcomeFail, 8, 5, 3, 150*time.Millisecond)
}
