package crack

import (
	"fmt"
	"time"

	e "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/michalmalik/keyfinder/codebook"
	"github.com/michalmalik/keyfinder/spn"
)

// ErrSecondSubkey is returned when the round engine is asked for
// key[1]. The differential paths degenerate there; key[1] falls out of
// an exhaustive search once the other four subkeys are known.
var ErrSecondSubkey = e.New("key[1] cannot be recovered by the round engine; use RecoverSecondSubkey")

// Options tune the recovery.
type Options struct {
	// Threads is the worker count of the middle-subkey pass.
	Threads int

	// ThreeSboxes additionally runs paths with three active S-boxes
	// per round. More accurate, roughly 10x slower.
	ThreeSboxes bool

	// FourSboxes additionally runs paths with four active S-boxes.
	// Slower again. It does not switch on the three S-box states;
	// set ThreeSboxes as well for those.
	FourSboxes bool
}

// Finder recovers subkeys from a complete codebook. Recovered values
// accumulate in the subkey vector so that later (middle round) passes
// can peel the outer rounds off.
type Finder struct {
	spn     *spn.SPN
	book    *codebook.Book
	subkeys [spn.NumSubkeys]uint16

	threads     int
	threeSboxes bool
	fourSboxes  bool
}

// NewFinder creates a Finder over a cipher (S-box and difference
// tables; its key is unknown) and the codebook captured under that
// key.
func NewFinder(s *spn.SPN, book *codebook.Book, opts Options) *Finder {
	threads := opts.Threads
	if threads < 1 {
		threads = 1
	}

	return &Finder{
		spn:         s,
		book:        book,
		threads:     threads,
		threeSboxes: opts.ThreeSboxes,
		fourSboxes:  opts.FourSboxes,
	}
}

// Subkeys returns the accumulated subkey vector.
func (f *Finder) Subkeys() [spn.NumSubkeys]uint16 {
	return f.subkeys
}

// SetSubkey fixes a single subkey, e.g. one recovered in an earlier
// run or given on the command line.
func (f *Finder) SetSubkey(round int, subkey uint16) {
	f.subkeys[round] = subkey
}

// KeyString formats the accumulated subkeys as 20 hex characters.
func (f *Finder) KeyString() string {
	key := ""
	for _, subkey := range f.subkeys {
		key += fmt.Sprintf("%04x", subkey)
	}

	return key
}

// TestKey checks a candidate key against the whole codebook.
func (f *Finder) TestKey(key string) (bool, error) {
	if err := f.spn.SetKey(key); err != nil {
		return false, err
	}

	for i, ct := range f.book.Fwd {
		if f.spn.Encrypt(uint16(i)) != ct {
			return false, nil
		}
	}

	return true, nil
}

// RecoverLastSubkey recovers key[4]. Paths are restricted to one and
// two active S-boxes here regardless of the heuristic flags; the wide
// states cost far more than they add for the outermost round.
func (f *Finder) RecoverLastSubkey() (uint16, error) {
	return f.recoverOuterSubkey(spn.Nr)
}

// RecoverFirstSubkey recovers key[0] with the forward variant of the
// attack. Same one/two S-box restriction as RecoverLastSubkey.
func (f *Finder) RecoverFirstSubkey() (uint16, error) {
	return f.recoverOuterSubkey(0)
}

func (f *Finder) recoverOuterSubkey(round int) (uint16, error) {
	savedThree, savedFour := f.threeSboxes, f.fourSboxes
	if savedThree || savedFour {
		log.Infof("turning off 3 and 4 sboxes for key[%d] for performance reasons", round)
		f.threeSboxes = false
		f.fourSboxes = false
	}

	subkey, err := f.RecoverRoundSubkey(round)

	f.threeSboxes = savedThree
	f.fourSboxes = savedFour

	return subkey, err
}

// RecoverSecondSubkey finds key[1] by exhaustive search. Each
// candidate is probed against a single codebook entry; a probe hit is
// then confirmed against the whole codebook, since a wrong candidate
// passes its probe with probability 2^-16. A failed search means an
// earlier recovered subkey is wrong.
func (f *Finder) RecoverSecondSubkey() (uint16, error) {
	log.Info("looking for key[1]..")
	start := time.Now()

	subkeys := f.subkeys
	for x := 0; x <= 0xffff; x++ {
		subkeys[1] = uint16(x)
		ct := f.book.Fwd[x]

		if f.spn.DecryptWithKeys(ct, subkeys) != uint16(x) {
			continue
		}

		if !f.decryptsWholeBook(subkeys) {
			log.Debugf("key[1] candidate %04x survived its probe pair only", x)
			continue
		}

		log.Infof("found key[1] = %04x", x)
		log.Infof("took: %v", time.Since(start))
		return uint16(x), nil
	}

	return 0, e.New("exhausted key[1] candidates without a match; at least one earlier subkey must be wrong")
}

func (f *Finder) decryptsWholeBook(subkeys [spn.NumSubkeys]uint16) bool {
	for i, ct := range f.book.Fwd {
		if f.spn.DecryptWithKeys(ct, subkeys) != uint16(i) {
			return false
		}
	}

	return true
}

// RecoverRoundSubkey recovers the subkey of the given round by
// combining per-S-box-state histograms nibble by nibble. Round 1 is
// rejected up front; see ErrSecondSubkey.
func (f *Finder) RecoverRoundSubkey(round int) (uint16, error) {
	if round == 1 {
		return 0, ErrSecondSubkey
	}

	if round < 0 || round > spn.Nr {
		return 0, e.Errorf("round %d out of range", round)
	}

	log.Infof("guessing key[%d]..", round)
	start := time.Now()

	stateHists := make(map[uint16]histogram)
	for state := uint16(1); state <= 0xf; state++ {
		s := newSboxState(state)

		switch s.count() {
		case 1, 2:
			stateHists[state] = f.probableSubkey(round, s)
		case 3:
			if f.threeSboxes {
				log.Infof("doing 3 sboxes for key[%d]", round)
				stateHists[state] = f.probableSubkey(round, s)
			}
		case 4:
			if f.fourSboxes {
				log.Infof("doing 4 sboxes for key[%d]", round)
				stateHists[state] = f.probableSubkey(round, s)
			}
		}
	}

	log.Infof("took: %v", time.Since(start))

	var subkey uint16
	for sboxIndex := 0; sboxIndex < 4; sboxIndex++ {
		lo := (3 - sboxIndex) * 4

		entries := f.probableSboxBits(sboxIndex, stateHists)
		switch {
		case len(entries) == 0:
			return 0, e.Errorf("no key[%d] bits %d-%d could be guessed, this is probably a bug", round, lo, lo+3)
		case len(entries) > 1:
			log.Infof("potential key[%d] bits %d-%d values:", round, lo, lo+3)
			for _, entry := range entries {
				log.Infof("\tkey=%04x, count=%d", entry.key, entry.count)
			}

			log.Info("using the first one")
		default:
			log.Infof("found key[%d] bits %d-%d: %04x", round, lo, lo+3, entries[0].key)
		}

		subkey |= entries[0].key
	}

	log.Infof("guessed key[%d] = %04x", round, subkey)

	return subkey, nil
}

// probableSboxBits sharpens the estimate for one key nibble. The
// histogram of the singleton state (only this S-box active) is the
// base; every wider state that includes the S-box contributes its
// argmax keys, masked down to the nibble. The merged argmax is the
// guess.
func (f *Finder) probableSboxBits(sboxIndex int, stateHists map[uint16]histogram) []histEntry {
	mainState := uint16(1) << uint(3-sboxIndex)

	merged := histogram{}
	mergeInto(merged, stateHists[mainState])

	for state := uint16(1); state <= 0xf; state++ {
		hist, ok := stateHists[state]
		if !ok {
			continue
		}

		s := newSboxState(state)
		if s.count() < 2 || !s.hasSbox(sboxIndex) {
			continue
		}

		for _, entry := range maxEntries(hist) {
			merged[entry.key&SboxMask(sboxIndex)] += entry.count
		}
	}

	return maxEntries(merged)
}

// probableSubkey builds the combined histogram for one S-box state:
// generate the best paths terminating at the round with that state,
// run the matching partial-decryption engine per path and accumulate
// each path's argmax keys.
func (f *Finder) probableSubkey(round int, wanted sboxState) histogram {
	forward := false
	pathRound := round

	// key[0] is attacked from the other end: paths run forward over
	// the inverse codebook, so the path length is the full distance to
	// the last round.
	if round == 0 {
		forward = true
		pathRound = spn.Nr
	}

	paths := bestPaths(f.genPath(pathRound, wanted, forward))

	log.Infof("processing paths to sboxes %04x in round %d: %d", wanted.mask, round, len(paths))

	quantum := len(paths)/10 + 1

	probableKeys := histogram{}
	for i, p := range paths {
		if i%quantum == 0 {
			log.Infof("processed: %d/%d", i, len(paths))
		}

		log.Debugf("path input=%04x, output=%04x, mask=%04x, prob=%f",
			p.inputDiff, p.outputDiff, Mask(p.outputDiff), p.prob)

		var hist histogram
		switch round {
		case spn.Nr:
			hist = f.probableLastSubkey(p)
		case 2, 3:
			hist = f.probableMiddleSubkey(round, p)
		case 0:
			hist = f.probableFirstSubkey(p)
		}

		for _, entry := range maxEntries(hist) {
			probableKeys[entry.key] += entry.count
		}
	}

	log.Infof("processed: %d/%d", len(paths), len(paths))

	return probableKeys
}

// probableLastSubkey counts, for every candidate restricted to the
// path's output mask, how many ciphertext pairs with the path's input
// difference show the predicted difference after undoing the final
// S-box layer under the candidate.
func (f *Finder) probableLastSubkey(p path) histogram {
	pc2 := f.genPCPair(p.inputDiff, false)
	outputMask := Mask(p.outputDiff)
	subkeys := GenSubkeys(outputMask)

	hist := histogram{}
	num := 0
	for i := 0; i < codebook.Size; i++ {
		ct1 := f.book.Fwd[i]
		ct2 := pc2[i]

		// The pair can only match if the ciphertexts agree on every
		// inactive nibble; the final round has no permutation to mix
		// them in.
		if ct1&^outputMask != ct2&^outputMask {
			continue
		}

		num++

		for _, sk := range subkeys {
			u1 := f.spn.ISubst(ct1 ^ sk)
			u2 := f.spn.ISubst(ct2 ^ sk)

			if (u1^u2)&outputMask == p.outputDiff {
				hist[sk]++
			}
		}
	}

	log.Debugf("valid pc pairs: %d", num)

	return hist
}

// probableFirstSubkey is the forward twin of probableLastSubkey: it
// iterates ciphertexts, looks plaintexts up through the inverse
// codebook and applies the forward S-box under the candidate.
func (f *Finder) probableFirstSubkey(p path) histogram {
	pc2 := f.genPCPair(p.inputDiff, true)
	outputMask := Mask(p.outputDiff)
	subkeys := GenSubkeys(outputMask)

	hist := histogram{}
	num := 0
	for i := 0; i < codebook.Size; i++ {
		pt1 := f.book.Inv[i]
		pt2 := pc2[i]

		if pt1&^outputMask != pt2&^outputMask {
			continue
		}

		num++

		for _, sk := range subkeys {
			u1 := f.spn.Subst(pt1 ^ sk)
			u2 := f.spn.Subst(pt2 ^ sk)

			if (u1^u2)&outputMask == p.outputDiff {
				hist[sk]++
			}
		}
	}

	log.Debugf("valid pc pairs: %d", num)

	return hist
}

// RecoverAll runs the full pipeline: key[4] first, then the middle
// subkeys in decreasing round order (each pass peels the rounds
// already recovered), then key[0] forward, then key[1] by exhaustive
// search. The progress callback, if non-nil, fires after every
// recovered subkey.
func (f *Finder) RecoverAll(progress func(round int, subkey uint16)) (string, error) {
	report := func(round int, subkey uint16) {
		log.Infof("key[%d]=%04x", round, subkey)
		if progress != nil {
			progress(round, subkey)
		}
	}

	key4, err := f.RecoverLastSubkey()
	if err != nil {
		return "", err
	}

	f.subkeys[spn.Nr] = key4
	report(spn.Nr, key4)

	for round := spn.Nr - 1; round > 1; round-- {
		subkey, err := f.RecoverRoundSubkey(round)
		if err != nil {
			return "", err
		}

		f.subkeys[round] = subkey
		report(round, subkey)
	}

	key0, err := f.RecoverFirstSubkey()
	if err != nil {
		return "", err
	}

	f.subkeys[0] = key0
	report(0, key0)

	key1, err := f.RecoverSecondSubkey()
	if err != nil {
		return "", err
	}

	f.subkeys[1] = key1
	report(1, key1)

	return f.KeyString(), nil
}
