package spn

// calculateDiffTables counts, for every (dx, dy) nibble pair, how many
// inputs x satisfy SB(x) ^ SB(x^dx) == dy. The transposed table holds
// the same counts indexed by (dy, dx); the path search reads it when
// walking forward through the rounds.
func (s *SPN) calculateDiffTables() {
	for x := uint16(0); x <= 0xf; x++ {
		y := s.sb[x]

		for dx := uint16(0); dx <= 0xf; dx++ {
			dy := y ^ s.sb[x^dx]
			s.diffTable[dx][dy]++
			s.tdiffTable[dy][dx]++
		}
	}
}

// DiffTable returns the difference distribution table, indexed as
// [dx][dy]. Row 0 is degenerate (all mass on dy = 0) and is never
// queried by the path search.
func (s *SPN) DiffTable() *[16][16]uint16 {
	return &s.diffTable
}

// TransposedDiffTable returns the same counts indexed as [dy][dx].
func (s *SPN) TransposedDiffTable() *[16][16]uint16 {
	return &s.tdiffTable
}
