package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baremetal-ci/kt-harness/types"
)

func TestPassRecordsOutcome(t *testing.T) {
	ct := NewT("sample", nil)
	Invoke(ct, func(ct *T) {
		ct.Pass()
	})
	outcome, msg := ct.Outcome()
	assert.Equal(t, types.OutcomePass, outcome)
	assert.Empty(t, msg)
}

func TestFailUnwindsBody(t *testing.T) {
	ct := NewT("sample", nil)
	reached := false
	Invoke(ct, func(ct *T) {
		ct.Fail("broken invariant")
		reached = true
	})
	outcome, msg := ct.Outcome()
	assert.Equal(t, types.OutcomeFail, outcome)
	assert.Equal(t, "broken invariant", msg)
	assert.False(t, reached, "Fail must not return to the body")
}

func TestFailOverridesEarlierPass(t *testing.T) {
	ct := NewT("sample", nil)
	Invoke(ct, func(ct *T) {
		ct.Pass()
		ct.Fail("late failure")
	})
	outcome, msg := ct.Outcome()
	assert.Equal(t, types.OutcomeFail, outcome)
	assert.Equal(t, "late failure", msg)
}

func TestBodyWithoutSignalStaysPending(t *testing.T) {
	ct := NewT("sample", nil)
	Invoke(ct, func(*T) {})
	outcome, _ := ct.Outcome()
	assert.Equal(t, types.OutcomePending, outcome)
}

func TestForeignPanicBecomesFailure(t *testing.T) {
	ct := NewT("sample", nil)
	require.NotPanics(t, func() {
		Invoke(ct, func(*T) {
			panic("bus fault at 0xdeadbeef")
		})
	})
	outcome, msg := ct.Outcome()
	assert.Equal(t, types.OutcomeFail, outcome)
	assert.Contains(t, msg, "fault:")
}

func TestAssertEqual(t *testing.T) {
	ct := NewT("sample", nil)
	Invoke(ct, func(ct *T) {
		ct.AssertEqual(4, 4, "must not fire")
		ct.AssertEqual(7, 4, "register value")
	})
	outcome, msg := ct.Outcome()
	assert.Equal(t, types.OutcomeFail, outcome)
	// Both compared values must appear in the diagnostic.
	assert.Contains(t, msg, "register value")
	assert.Contains(t, msg, "7")
	assert.Contains(t, msg, "4")
}

func TestAssertNotEqual(t *testing.T) {
	ct := NewT("sample", nil)
	Invoke(ct, func(ct *T) {
		ct.AssertNotEqual(1, 2, "must not fire")
		ct.AssertNotEqual(3, 3, "aliased pointers")
	})
	outcome, msg := ct.Outcome()
	assert.Equal(t, types.OutcomeFail, outcome)
	assert.Contains(t, msg, "aliased pointers")
}

func TestAssertTrue(t *testing.T) {
	ct := NewT("sample", nil)
	Invoke(ct, func(ct *T) {
		ct.AssertTrue(true, "must not fire")
		ct.AssertTrue(false, "region is aligned")
		ct.Pass()
	})
	outcome, msg := ct.Outcome()
	assert.Equal(t, types.OutcomeFail, outcome)
	assert.Contains(t, msg, "region is aligned")
}

func TestAsyncStateFirstTerminalWins(t *testing.T) {
	st := NewAsyncState("sample", nil)
	require.True(t, st.Pending())

	st.Fail("first")
	st.Pass()
	st.Fail("second")

	require.False(t, st.Pending())
	outcome, msg := st.Outcome()
	assert.Equal(t, types.OutcomeFail, outcome)
	assert.Equal(t, "first", msg)
}

func TestAsyncStatePassDoesNotUnwind(t *testing.T) {
	st := NewAsyncState("sample", nil)
	st.Pass()
	outcome, msg := st.Outcome()
	assert.Equal(t, types.OutcomePass, outcome)
	assert.Empty(t, msg)

	st.Fail("after pass")
	outcome, _ = st.Outcome()
	assert.Equal(t, types.OutcomePass, outcome, "pass is terminal")
}

func TestAsyncStatePayload(t *testing.T) {
	st := NewAsyncState("sample", nil)
	assert.Nil(t, st.Payload)
	st.Payload = 3
	assert.Equal(t, 3, st.Payload)
}
