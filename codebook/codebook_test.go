package codebook

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/michalmalik/keyfinder/spn"
)

func testCipher(t *testing.T) *spn.SPN {
	s, err := spn.New("14 4 13 1 2 15 11 8 3 10 6 12 5 9 0 7")
	require.NoError(t, err)
	require.NoError(t, s.SetKey("3a94d63fbca987654321"))
	return s
}

func TestGenerateLoadRoundTrip(t *testing.T) {
	book, err := Generate(testCipher(t))
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	require.NoError(t, book.WriteTo(buf))

	loaded, err := Load(buf)
	require.NoError(t, err)
	require.Equal(t, book.Fwd, loaded.Fwd)
	require.Equal(t, book.Inv, loaded.Inv)
}

func TestGenerateIsBijective(t *testing.T) {
	book, err := Generate(testCipher(t))
	require.NoError(t, err)
	require.Len(t, book.Fwd, Size)

	for ct, pt := range book.Inv {
		if book.Fwd[pt] != uint16(ct) {
			t.Fatalf("inverse broken: Fwd[%04x] == %04x, want %04x", pt, book.Fwd[pt], ct)
		}
	}
}

func TestLoadRejectsShortInput(t *testing.T) {
	_, err := Load(strings.NewReader("0000\n0001\n"))
	require.Error(t, err)
}

func TestLoadRejectsBadLine(t *testing.T) {
	_, err := Load(strings.NewReader("0000\nnope\n"))
	require.Error(t, err)
}

func TestLoadRejectsDuplicateCiphertext(t *testing.T) {
	_, err := Load(strings.NewReader("0000\n0000\n"))
	require.Error(t, err)
}

func TestLoadRejectsTooManyLines(t *testing.T) {
	book, err := Generate(testCipher(t))
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	require.NoError(t, book.WriteTo(buf))
	buf.WriteString("0000\n")

	_, err = Load(buf)
	require.Error(t, err)
}
