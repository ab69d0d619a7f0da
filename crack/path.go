package crack

import (
	log "github.com/sirupsen/logrus"
)

// path is a multi-round differential: feeding pairs with difference
// inputDiff into round 1 yields difference outputDiff at the target
// round with probability prob (under round independence).
type path struct {
	inputDiff  uint16
	outputDiff uint16
	prob       float64
}

// genPath enumerates every difference whose active nibbles match
// wanted exactly, terminating at fromRound, and walks each one back
// through the earlier rounds picking the best differential per active
// S-box. The forward flag switches to the transposed difference table
// for the first-subkey attack, which runs against the inverse
// codebook.
func (f *Finder) genPath(fromRound int, wanted sboxState, forward bool) []path {
	// The subkey enumeration for the mask includes values with an
	// inactive (zero) nibble inside the mask; those would terminate at
	// a different S-box pattern than requested, so the auxiliary masks
	// filter them out.
	var terminals []uint16
	for _, u := range GenSubkeys(wanted.mask) {
		ok := true
		for _, m := range wanted.auxMasks {
			if u&m == 0 {
				ok = false
				break
			}
		}

		if ok {
			terminals = append(terminals, u)
		}
	}

	var paths []path
	for _, u := range terminals {
		log.Debugf("v%d=%04x u%d=%04x", fromRound-1, f.spn.ITransp(u), fromRound, u)

		prevInDiff := u
		prob := 1.0

		// fromRound - 1 since the terminal difference already covers
		// the target round.
		for r := fromRound - 1; r >= 1; r-- {
			prevInDiff, prob = f.findPathForRound(r, prevInDiff, prob, forward)
		}

		log.Debugf("input diff: %04x (%04x), output diff: %04x, probability: %f",
			prevInDiff, Mask(prevInDiff), u, prob)

		paths = append(paths, path{inputDiff: prevInDiff, outputDiff: u, prob: prob})
	}

	return paths
}

// findPathForRound picks, for every active S-box of the round's
// output difference, the input difference with the highest transition
// count. When several dx reach the maximum, the one producing the
// fewest active S-boxes in the following round wins; this keeps the
// path narrow. The comparison usually selects the first candidate,
// but not for every S-box, so it has to stay.
func (f *Finder) findPathForRound(roundNum int, prevInDiff uint16, prob float64, forward bool) (uint16, float64) {
	diffTable := f.spn.DiffTable()
	if forward {
		diffTable = f.spn.TransposedDiffTable()
	}

	roundOutDiff := f.spn.ITransp(prevInDiff)
	var roundInDiff uint16

	log.Debugf("round %d: v%d=%04x", roundNum, roundNum, roundOutDiff)

	for _, sboxIndex := range FindSbox(roundOutDiff) {
		dy := SboxValue(sboxIndex, roundOutDiff)

		var maxDistrib uint16
		for dx := uint16(1); dx <= 0xf; dx++ {
			if d := diffTable[dx][dy]; d > maxDistrib {
				maxDistrib = d
			}
		}

		prob *= float64(maxDistrib) / 16.0

		var newDxs []uint16
		for dx := uint16(1); dx <= 0xf; dx++ {
			if diffTable[dx][dy] == maxDistrib {
				newDxs = append(newDxs, dx)
			}
		}

		base := roundInDiff
		lowestActiveCount := 5
		for _, dx := range newDxs {
			potentialInDiff := base | MakeSbox(sboxIndex, dx)
			nextOutDiff := f.spn.ITransp(potentialInDiff)
			nextActiveCount := SboxCount(nextOutDiff)

			log.Debugf("\tsbox=%d, dx=%d, dy=%d, distrib=%d, round_in_diff=%04x, next_out_diff=%04x, active_count_in_next=%d",
				sboxIndex, dx, dy, maxDistrib, potentialInDiff, nextOutDiff, nextActiveCount)

			if nextActiveCount < lowestActiveCount {
				lowestActiveCount = nextActiveCount
				roundInDiff = potentialInDiff
			}
		}
	}

	log.Debugf("\tu%d=%04x", roundNum, roundInDiff)

	return roundInDiff, prob
}

// bestPaths keeps the paths that reach the maximal probability. All
// probabilities are products of the same table lookups, so strict
// equality is exact here.
func bestPaths(paths []path) []path {
	var bestProb float64
	for _, p := range paths {
		if p.prob > bestProb {
			bestProb = p.prob
		}
	}

	var best []path
	for _, p := range paths {
		if p.prob == bestProb {
			best = append(best, p)
		}
	}

	return best
}

// genPCPair materialises the partner column of the codebook: entry i
// is the ciphertext (or plaintext, in the forward direction) belonging
// to index i xor inputDiff.
func (f *Finder) genPCPair(inputDiff uint16, forward bool) []uint16 {
	main := f.book.Fwd
	if forward {
		main = f.book.Inv
	}

	pc := make([]uint16, len(main))
	for i := range main {
		pc[i] = main[uint16(i)^inputDiff]
	}

	return pc
}
