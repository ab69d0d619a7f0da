package crack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecoverRoundSubkeyRejectsRoundOne(t *testing.T) {
	f := newTestFinder(t, Options{})

	_, err := f.RecoverRoundSubkey(1)
	require.Equal(t, ErrSecondSubkey, err)
}

func TestRecoverRoundSubkeyRejectsBadRounds(t *testing.T) {
	f := newTestFinder(t, Options{})

	_, err := f.RecoverRoundSubkey(-1)
	require.Error(t, err)

	_, err = f.RecoverRoundSubkey(5)
	require.Error(t, err)
}

func TestKeyString(t *testing.T) {
	f := newTestFinder(t, Options{})

	f.SetSubkey(0, 0x3a94)
	f.SetSubkey(1, 0xd63f)
	f.SetSubkey(2, 0xbca9)
	f.SetSubkey(3, 0x8765)
	f.SetSubkey(4, 0x4321)

	require.Equal(t, testKey, f.KeyString())
}

func TestTestKey(t *testing.T) {
	f := newTestFinder(t, Options{})

	ok, err := f.TestKey(testKey)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = f.TestKey("00000000000000000000")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = f.TestKey("way too short")
	require.Error(t, err)
}

func TestRecoverLastSubkey(t *testing.T) {
	f := newTestFinder(t, Options{})

	subkey, err := f.RecoverLastSubkey()
	require.NoError(t, err)
	require.Equal(t, uint16(0x4321), subkey)
}

func TestRecoverSecondSubkeyFromKnownOuterKeys(t *testing.T) {
	f := newTestFinder(t, Options{})

	f.SetSubkey(0, 0x3a94)
	f.SetSubkey(2, 0xbca9)
	f.SetSubkey(3, 0x8765)
	f.SetSubkey(4, 0x4321)

	subkey, err := f.RecoverSecondSubkey()
	require.NoError(t, err)
	require.Equal(t, uint16(0xd63f), subkey)
}

func TestRecoverSecondSubkeyDiagnosesWrongOuterKey(t *testing.T) {
	f := newTestFinder(t, Options{})

	// A flipped bit in key[4] must make the exhaustive search come up
	// empty instead of returning a bogus key[1].
	f.SetSubkey(0, 0x3a94)
	f.SetSubkey(2, 0xbca9)
	f.SetSubkey(3, 0x8765)
	f.SetSubkey(4, 0x4320)

	_, err := f.RecoverSecondSubkey()
	require.Error(t, err)
}

func TestRecoverAll(t *testing.T) {
	if testing.Short() {
		t.Skip("full key recovery is expensive")
	}

	f := newTestFinder(t, Options{Threads: 4})

	var rounds []int
	key, err := f.RecoverAll(func(round int, subkey uint16) {
		rounds = append(rounds, round)
	})

	require.NoError(t, err)
	require.Equal(t, testKey, key)

	// Last subkey first, middle rounds downward, then the outer pair.
	require.Equal(t, []int{4, 3, 2, 0, 1}, rounds)
}
