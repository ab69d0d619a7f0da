// Package spn implements the toy 16 bit substitution-permutation
// network that the rest of this repository attacks: four 4x4 S-boxes
// per round, a fixed bit permutation and five 16 bit round subkeys.
package spn

import (
	"fmt"
	"strconv"
	"strings"

	e "github.com/pkg/errors"
)

// Nr is the number of rounds. Nr+1 subkeys are used, indexed 0..Nr.
const Nr = 4

// NumSubkeys is the length of a full subkey vector.
const NumSubkeys = Nr + 1

// KeyStringLen is the length of a full key in hex notation
// (five 16 bit subkeys, four hex digits each).
const KeyStringLen = 4 * NumSubkeys

// SPN holds the S-box, its inverse, the current subkeys and the
// precomputed difference distribution tables.
type SPN struct {
	sb      [16]uint16
	isb     [16]uint16
	subkeys [NumSubkeys]uint16

	diffTable  [16][16]uint16
	tdiffTable [16][16]uint16
}

// New parses an S-box specification ("space separated decimals 0..15",
// position i in the list is SB[i]), builds the inverse S-box and
// precomputes the difference distribution tables.
func New(sboxSpec string) (*SPN, error) {
	fields := strings.Fields(sboxSpec)
	if len(fields) != 16 {
		return nil, fmt.Errorf("sbox needs 16 values, got %d", len(fields))
	}

	s := &SPN{}

	var seen [16]bool
	for i, field := range fields {
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, e.Wrapf(err, "bad sbox value %q", field)
		}

		if v < 0 || v > 15 {
			return nil, fmt.Errorf("sbox value %d out of range", v)
		}

		if seen[v] {
			return nil, fmt.Errorf("sbox value %d appears twice", v)
		}

		seen[v] = true
		s.sb[i] = uint16(v)
		s.isb[v] = uint16(i)
	}

	s.calculateDiffTables()
	return s, nil
}

// SetKey parses a 20 character hex key into the five round subkeys.
func (s *SPN) SetKey(key string) error {
	if len(key) != KeyStringLen {
		return fmt.Errorf("key must be %d hex chars, got %d", KeyStringLen, len(key))
	}

	for i := 0; i < NumSubkeys; i++ {
		sub, err := strconv.ParseUint(key[4*i:4*i+4], 16, 16)
		if err != nil {
			return e.Wrapf(err, "bad subkey %d", i)
		}

		s.subkeys[i] = uint16(sub)
	}

	return nil
}

// Subkeys returns a copy of the current subkey vector.
func (s *SPN) Subkeys() [NumSubkeys]uint16 {
	return s.subkeys
}

// SetSubkey overwrites a single round subkey.
func (s *SPN) SetSubkey(round int, subkey uint16) {
	s.subkeys[round] = subkey
}

// Subst applies the S-box to each of the four nibbles of x.
func (s *SPN) Subst(x uint16) uint16 {
	y := s.sb[x&0xf]
	y ^= s.sb[(x>>4)&0xf] << 4
	y ^= s.sb[(x>>8)&0xf] << 8
	y ^= s.sb[(x>>12)&0xf] << 12
	return y
}

// ISubst applies the inverse S-box to each of the four nibbles of x.
func (s *SPN) ISubst(x uint16) uint16 {
	y := s.isb[x&0xf]
	y ^= s.isb[(x>>4)&0xf] << 4
	y ^= s.isb[(x>>8)&0xf] << 8
	y ^= s.isb[(x>>12)&0xf] << 12
	return y
}

// Transp is the fixed bit permutation. It is an involution:
// Transp(Transp(x)) == x for every x.
func (s *SPN) Transp(x uint16) uint16 {
	var y uint16

	y ^= x & 0x8421
	y ^= (x & 0x0842) << 3
	y ^= (x & 0x0084) << 6
	y ^= (x & 0x0008) << 9
	y ^= (x & 0x1000) >> 9
	y ^= (x & 0x2100) >> 6
	y ^= (x & 0x4210) >> 3

	return y
}

// ITransp is the inverse permutation, which equals Transp itself.
func (s *SPN) ITransp(x uint16) uint16 {
	return s.Transp(x)
}

// Encrypt runs pt through all Nr rounds, mixing in the five current
// subkeys.
// The final round has no permutation.
func (s *SPN) Encrypt(pt uint16) uint16 {
	x := pt ^ s.subkeys[0]

	for i := 1; i < Nr; i++ {
		x = s.Subst(x)
		x = s.Transp(x)
		x ^= s.subkeys[i]
	}

	x = s.Subst(x)
	x ^= s.subkeys[Nr]

	return x
}

// Decrypt inverts Encrypt under the current subkeys.
func (s *SPN) Decrypt(ct uint16) uint16 {
	return s.DecryptWithKeys(ct, s.subkeys)
}

// DecryptWithKeys decrypts ct under an explicit subkey vector. Used by
// the second-subkey search, which probes many key candidates without
// touching the cipher state.
func (s *SPN) DecryptWithKeys(ct uint16, subkeys [NumSubkeys]uint16) uint16 {
	x := ct ^ subkeys[Nr]
	x = s.ISubst(x)

	for i := Nr - 1; i >= 1; i-- {
		x ^= subkeys[i]
		x = s.ITransp(x)
		x = s.ISubst(x)
	}

	x ^= subkeys[0]

	return x
}
