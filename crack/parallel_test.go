package crack

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/michalmalik/keyfinder/spn"
)

// The merged histogram may not depend on how the codebook range is
// split; worker count 3 exercises the remainder chunk.
func TestMiddlePassWorkerCountInvariance(t *testing.T) {
	f := newTestFinder(t, Options{})
	f.SetSubkey(spn.Nr, 0x4321)

	paths := bestPaths(f.genPath(3, newSboxState(0x2), false))
	require.NotEmpty(t, paths)
	p := paths[0]

	f.threads = 1
	want := f.probableMiddleSubkey(3, p)
	require.NotEmpty(t, want)

	for _, workers := range []int{2, 3, 4, 8} {
		f.threads = workers
		require.Equal(t, want, f.probableMiddleSubkey(3, p), "workers=%d", workers)
	}
}
