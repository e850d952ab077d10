package registry

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baremetal-ci/kt-harness/check"
	"github.com/baremetal-ci/kt-harness/kernel"
	"github.com/baremetal-ci/kt-harness/types"
)

func syncNop(t *check.T) { t.Pass() }

type nopAsync struct{}

func (nopAsync) Setup(st *check.AsyncState, loop *kernel.Loop, client kernel.Client) error {
	return nil
}
func (nopAsync) Resume(st *check.AsyncState, ev kernel.Event) { st.Pass() }
func (nopAsync) Detach()                                      {}

func TestRegisterAndScan(t *testing.T) {
	r := New(Config{})

	names := []string{"alpha", "beta", "gamma"}
	for _, name := range names {
		require.NoError(t, r.Register(Descriptor{Name: name, Kind: types.KindSync, Sync: syncNop}))
	}
	require.NoError(t, r.Register(Descriptor{Name: "delta", Kind: types.KindAsync, Async: nopAsync{}}))

	descs, err := r.Descriptors()
	require.NoError(t, err)
	require.Len(t, descs, 4)

	// Discovery order equals registration order.
	for i, name := range names {
		assert.Equal(t, name, descs[i].Name)
		assert.Equal(t, types.KindSync, descs[i].Kind)
		assert.NotNil(t, descs[i].Sync)
	}
	assert.Equal(t, "delta", descs[3].Name)
	assert.Equal(t, types.KindAsync, descs[3].Kind)
	assert.NotNil(t, descs[3].Async)
}

func TestScanIsRepeatable(t *testing.T) {
	r := New(Config{})
	require.NoError(t, r.Register(Descriptor{Name: "only", Kind: types.KindSync, Sync: syncNop}))

	first, err := r.Descriptors()
	require.NoError(t, err)
	second, err := r.Descriptors()
	require.NoError(t, err)
	require.Len(t, second, len(first))
	assert.Equal(t, first[0].Name, second[0].Name)
}

func TestEmptyRegistryIsValid(t *testing.T) {
	r := New(Config{})
	descs, err := r.Descriptors()
	require.NoError(t, err)
	assert.Empty(t, descs)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		desc Descriptor
	}{
		{
			name: "empty name",
			desc: Descriptor{Kind: types.KindSync, Sync: syncNop},
		},
		{
			name: "unknown kind",
			desc: Descriptor{Name: "x", Kind: types.Kind("weird"), Sync: syncNop},
		},
		{
			name: "sync without entry",
			desc: Descriptor{Name: "x", Kind: types.KindSync},
		},
		{
			name: "async without entry",
			desc: Descriptor{Name: "x", Kind: types.KindAsync},
		},
		{
			name: "sync with both entries",
			desc: Descriptor{Name: "x", Kind: types.KindSync, Sync: syncNop, Async: nopAsync{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(Config{})
			assert.Error(t, r.Register(tt.desc))
		})
	}
}

func TestDuplicateNameRejected(t *testing.T) {
	r := New(Config{})
	require.NoError(t, r.Register(Descriptor{Name: "dup", Kind: types.KindSync, Sync: syncNop}))
	err := r.Register(Descriptor{Name: "dup", Kind: types.KindSync, Sync: syncNop})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestSealedRegistryRejectsRegistration(t *testing.T) {
	r := New(Config{})
	require.NoError(t, r.Register(Descriptor{Name: "one", Kind: types.KindSync, Sync: syncNop}))

	_, err := r.Descriptors()
	require.NoError(t, err)
	require.True(t, r.Sealed())

	err = r.Register(Descriptor{Name: "late", Kind: types.KindSync, Sync: syncNop})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sealed")
}

func TestRegionCorruptionDetected(t *testing.T) {
	t.Run("span not a multiple of record size", func(t *testing.T) {
		r := New(Config{})
		require.NoError(t, r.Register(Descriptor{Name: "a", Kind: types.KindSync, Sync: syncNop}))
		r.region = r.region[:len(r.region)-1] // truncated end marker

		_, err := r.Descriptors()
		require.ErrorIs(t, err, ErrRegionCorrupt)
	})

	t.Run("unresolvable entry reference", func(t *testing.T) {
		r := New(Config{})
		require.NoError(t, r.Register(Descriptor{Name: "a", Kind: types.KindSync, Sync: syncNop}))
		r.entries = nil // link table lost

		_, err := r.Descriptors()
		require.ErrorIs(t, err, ErrRegionCorrupt)
		assert.Contains(t, err.Error(), "not resolvable")
	})

	t.Run("name reference outside string table", func(t *testing.T) {
		r := New(Config{})
		require.NoError(t, r.Register(Descriptor{Name: "abcdef", Kind: types.KindSync, Sync: syncNop}))
		r.names = r.names[:2]

		_, err := r.Descriptors()
		require.ErrorIs(t, err, ErrRegionCorrupt)
	})
}

func TestCountDerivedFromSpan(t *testing.T) {
	// No length field exists anywhere; the count must come out of the
	// region span for any N.
	for _, n := range []int{0, 1, 7, 32} {
		r := New(Config{})
		for i := 0; i < n; i++ {
			require.NoError(t, r.Register(Descriptor{
				Name: fmt.Sprintf("test_%d", i),
				Kind: types.KindSync,
				Sync: syncNop,
			}))
		}
		require.Equal(t, n*recordSize, len(r.region))
		descs, err := r.Descriptors()
		require.NoError(t, err)
		require.Len(t, descs, n)
	}
}
