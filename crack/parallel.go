package crack

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/michalmalik/keyfinder/codebook"
	"github.com/michalmalik/keyfinder/spn"
)

// probableMiddleSubkey is the histogram engine for the middle rounds.
// Before trying candidates it peels every already recovered outer
// round off both ciphertexts: key[4] plus the rounds between Nr-1 and
// the target. This is the hottest pass of the attack, so the codebook
// index range is split into contiguous chunks across workers; each
// worker fills a private histogram and merges it into the shared one
// under a single lock. The merge is commutative, so the worker count
// never changes the result.
func (f *Finder) probableMiddleSubkey(round int, p path) histogram {
	pc2 := f.genPCPair(p.inputDiff, false)
	outputMask := Mask(p.outputDiff)
	subkeys := GenSubkeys(outputMask)

	shared := histogram{}

	var mu sync.Mutex
	var wg sync.WaitGroup

	workers := f.threads
	if workers > codebook.Size {
		workers = codebook.Size
	}

	chunk := codebook.Size / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if w == workers-1 {
			// Last chunk absorbs the remainder, every index runs.
			end = codebook.Size
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()

			mine := histogram{}
			for i := start; i < end; i++ {
				ct1 := f.spn.ISubst(f.book.Fwd[i] ^ f.subkeys[spn.Nr])
				ct2 := f.spn.ISubst(pc2[i] ^ f.subkeys[spn.Nr])

				for j := spn.Nr - 1; j > round; j-- {
					ct1 ^= f.subkeys[j]
					ct1 = f.spn.ISubst(f.spn.ITransp(ct1))

					ct2 ^= f.subkeys[j]
					ct2 = f.spn.ISubst(f.spn.ITransp(ct2))
				}

				if ct1&^outputMask != ct2&^outputMask {
					continue
				}

				for _, sk := range subkeys {
					u1 := f.spn.ISubst(f.spn.ITransp(ct1 ^ sk))
					u2 := f.spn.ISubst(f.spn.ITransp(ct2 ^ sk))

					if (u1^u2)&outputMask == p.outputDiff {
						mine[sk]++
					}
				}
			}

			mu.Lock()
			mergeInto(shared, mine)
			mu.Unlock()
		}(start, end)
	}

	wg.Wait()

	log.Debugf("middle pass round %d done over %d workers", round, workers)

	return shared
}
