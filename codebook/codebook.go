// Package codebook handles the complete chosen-plaintext codebook of
// the cipher: the ciphertext of every possible 16 bit plaintext under
// one unknown key, in both lookup directions.
package codebook

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	e "github.com/pkg/errors"

	"github.com/michalmalik/keyfinder/spn"
)

// Size is the number of entries in a complete codebook.
const Size = 1 << 16

// Book is a complete codebook. Fwd[pt] yields the ciphertext for a
// plaintext, Inv[ct] the plaintext for a ciphertext. Both views are
// total and inverse to each other.
type Book struct {
	Fwd []uint16
	Inv []uint16
}

// Load reads a codebook in the generator's format: one 4 hex digit
// ciphertext per line, line i being the ciphertext of plaintext i,
// exactly Size lines. The inverse view is built on the fly and
// duplicate ciphertexts are rejected.
func Load(r io.Reader) (*Book, error) {
	book := &Book{
		Fwd: make([]uint16, 0, Size),
		Inv: make([]uint16, Size),
	}

	var seen [Size]bool

	scanner := bufio.NewScanner(r)
	pt := 0
	for scanner.Scan() {
		if pt >= Size {
			return nil, fmt.Errorf("codebook has more than %d lines", Size)
		}

		ct, err := strconv.ParseUint(scanner.Text(), 16, 16)
		if err != nil {
			return nil, e.Wrapf(err, "bad codebook line %d", pt)
		}

		if seen[ct] {
			return nil, fmt.Errorf("duplicate ciphertext %04x in line %d", ct, pt)
		}

		seen[ct] = true
		book.Fwd = append(book.Fwd, uint16(ct))
		book.Inv[ct] = uint16(pt)
		pt++
	}

	if err := scanner.Err(); err != nil {
		return nil, e.Wrap(err, "failed to read codebook")
	}

	if pt != Size {
		return nil, fmt.Errorf("codebook has %d lines, need %d", pt, Size)
	}

	return book, nil
}

// LoadFile is Load over a file path.
func LoadFile(path string) (*Book, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, e.Wrapf(err, "could not open codebook %s", path)
	}

	defer fd.Close()
	return Load(fd)
}

// Generate builds the codebook under the cipher's current subkeys.
// Every entry is round-tripped through Decrypt as a self check.
func Generate(s *spn.SPN) (*Book, error) {
	book := &Book{
		Fwd: make([]uint16, Size),
		Inv: make([]uint16, Size),
	}

	for x := 0; x < Size; x++ {
		pt := uint16(x)
		ct := s.Encrypt(pt)

		if s.Decrypt(ct) != pt {
			return nil, fmt.Errorf("cipher round trip failed for %04x", pt)
		}

		book.Fwd[pt] = ct
		book.Inv[ct] = pt
	}

	return book, nil
}

// WriteTo writes the codebook in the line-per-plaintext format that
// Load consumes.
func (b *Book) WriteTo(w io.Writer) error {
	buf := bufio.NewWriter(w)
	for _, ct := range b.Fwd {
		if _, err := fmt.Fprintf(buf, "%04x\n", ct); err != nil {
			return err
		}
	}

	return buf.Flush()
}
