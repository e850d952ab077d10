package types

import (
	"fmt"
	"time"
)

// Kind tags how a test's entry point is driven.
type Kind string

const (
	// KindSync tests run to completion in one direct invocation.
	KindSync Kind = "sync"
	// KindAsync tests span multiple invocations, resumed by kernel events.
	KindAsync Kind = "async"
)

// Valid reports whether k is a known kind tag.
func (k Kind) Valid() bool {
	return k == KindSync || k == KindAsync
}

// Outcome represents the possible states of a test execution
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomePass    Outcome = "pass"
	OutcomeFail    Outcome = "fail"
)

// Terminal reports whether o is a final state.
func (o Outcome) Terminal() bool {
	return o == OutcomePass || o == OutcomeFail
}

// TestResult captures the outcome of a single test run
type TestResult struct {
	Name     string
	Kind     Kind
	Outcome  Outcome
	Message  string // diagnostic supplied on failure, empty otherwise
	Duration time.Duration
}

// SuiteResult captures the complete results of one suite run.
// It is built incrementally by the runner and must not be mutated
// once finalized.
type SuiteResult struct {
	RunID    string
	Total    int
	Passed   int
	Failed   int
	Results  []TestResult // per-test outcomes in registry order
	Duration time.Duration
}

// Record appends a terminal test result and updates the counters.
func (s *SuiteResult) Record(r TestResult) {
	s.Results = append(s.Results, r)
	s.Total++
	if r.Outcome == OutcomePass {
		s.Passed++
	} else {
		s.Failed++
	}
}

// Status collapses the suite into a single outcome.
func (s *SuiteResult) Status() Outcome {
	if s.Failed > 0 {
		return OutcomeFail
	}
	return OutcomePass
}

func (s *SuiteResult) String() string {
	return fmt.Sprintf("SuiteResult{RunID: %s, Status: %s, Total: %d, Passed: %d, Failed: %d, Duration: %s}",
		s.RunID, s.Status(), s.Total, s.Passed, s.Failed, s.Duration)
}
