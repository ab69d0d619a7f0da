package spn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testSbox = "14 4 13 1 2 15 11 8 3 10 6 12 5 9 0 7"

func mustSPN(t *testing.T) *SPN {
	s, err := New(testSbox)
	require.NoError(t, err)
	return s
}

func TestNewRejectsBadSboxes(t *testing.T) {
	tcs := []struct {
		name string
		spec string
	}{
		{"too-few", "1 2 3"},
		{"too-many", testSbox + " 3"},
		{"out-of-range", "16 4 13 1 2 15 11 8 3 10 6 12 5 9 0 7"},
		{"negative", "-1 4 13 1 2 15 11 8 3 10 6 12 5 9 0 7"},
		{"duplicate", "14 14 13 1 2 15 11 8 3 10 6 12 5 9 0 7"},
		{"not-a-number", "x 4 13 1 2 15 11 8 3 10 6 12 5 9 0 7"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.spec)
			require.Error(t, err)
		})
	}
}

func TestSboxBijection(t *testing.T) {
	s := mustSPN(t)

	for v := uint16(0); v <= 0xf; v++ {
		require.Equal(t, v, s.isb[s.sb[v]])
	}
}

func TestSetKey(t *testing.T) {
	s := mustSPN(t)

	require.NoError(t, s.SetKey("00112233445566778899"))
	require.Equal(
		t,
		[NumSubkeys]uint16{0x0011, 0x2233, 0x4455, 0x6677, 0x8899},
		s.Subkeys(),
	)

	require.Error(t, s.SetKey("too-short"))
	require.Error(t, s.SetKey("zz112233445566778899"))
	require.Error(t, s.SetKey("00112233445566778899ff"))
}

func TestTranspKnownValues(t *testing.T) {
	s := mustSPN(t)

	require.Equal(t, uint16(0x0001), s.Transp(0x0001))
	require.Equal(t, uint16(0x8000), s.Transp(0x8000))
	require.Equal(t, uint16(0x0010), s.Transp(0x0002))
	require.Equal(t, uint16(0x0080), s.Transp(0x2000))
	require.Equal(t, uint16(0xabcd), s.Transp(s.Transp(0xabcd)))
}

func TestTranspInvolution(t *testing.T) {
	s := mustSPN(t)

	for x := 0; x <= 0xffff; x++ {
		if got := s.Transp(s.Transp(uint16(x))); got != uint16(x) {
			t.Fatalf("transp is not an involution for %04x: got %04x", x, got)
		}
	}
}

func TestSubstRoundTrip(t *testing.T) {
	s := mustSPN(t)

	for x := 0; x <= 0xffff; x++ {
		if got := s.ISubst(s.Subst(uint16(x))); got != uint16(x) {
			t.Fatalf("isubst(subst(%04x)) == %04x", x, got)
		}
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	s := mustSPN(t)
	require.NoError(t, s.SetKey("00112233445566778899"))

	ct := s.Encrypt(0x0000)
	require.Equal(t, uint16(0x0000), s.Decrypt(ct))

	for pt := 0; pt <= 0xffff; pt++ {
		if got := s.Decrypt(s.Encrypt(uint16(pt))); got != uint16(pt) {
			t.Fatalf("round trip broke for %04x: got %04x", pt, got)
		}
	}
}

func TestDecryptWithKeys(t *testing.T) {
	s := mustSPN(t)
	require.NoError(t, s.SetKey("3a94d63fbca987654321"))

	keys := s.Subkeys()
	ct := s.Encrypt(0x1234)
	require.Equal(t, uint16(0x1234), s.DecryptWithKeys(ct, keys))

	keys[1] ^= 0x0001
	require.NotEqual(t, uint16(0x1234), s.DecryptWithKeys(ct, keys))
}
