// Package surrogate produces the long, opaque identifiers handed out in place
// of original URLs.
//
// A surrogate is a dash-joined sequence of decorative phrases mixed with
// uniqueness tokens: a fingerprint of the original and creation time, a
// nanosecond timestamp, a full random UUID and two base-36 suffixes. The UUID
// alone carries 122 random bits, so callers never retry on collision.
// Surrogates are not meant to be parsed back.
package surrogate

import (
	"encoding/hex"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// DefaultSwapProbability is the chance that a position is swapped during the
// partial shuffle.
const DefaultSwapProbability = 0.3

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// Generator builds surrogates. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand

	// Entropy feeds the UUID token. Nil means crypto/rand.
	Entropy io.Reader
	// Vocab supplies the decorative word lists.
	Vocab Vocabulary
	// SwapProbability controls the partial shuffle, 0 keeps component order.
	SwapProbability float64
}

// Option customizes a Generator.
type Option func(*Generator)

// WithRand injects the random source used for word picks, suffixes and the
// shuffle.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rng = r }
}

// WithEntropy injects the reader backing the UUID token.
func WithEntropy(r io.Reader) Option {
	return func(g *Generator) { g.Entropy = r }
}

// WithVocabulary replaces the built-in word lists.
func WithVocabulary(v Vocabulary) Option {
	return func(g *Generator) { g.Vocab = v.withDefaults(DefaultVocabulary()) }
}

// WithSwapProbability overrides DefaultSwapProbability.
func WithSwapProbability(p float64) Option {
	return func(g *Generator) { g.SwapProbability = p }
}

// New returns a Generator seeded from the clock with the default vocabulary.
func New(opts ...Option) *Generator {
	g := &Generator{
		Vocab:           DefaultVocabulary(),
		SwapProbability: DefaultSwapProbability,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return g
}

// Generate builds a surrogate for original at now. Any input is accepted,
// including the empty string.
func (g *Generator) Generate(original string, now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.newUUID()

	v := g.Vocab
	parts := []string{
		g.pick(v.Superlatives),
		g.pick(v.TechnicalAdjectives),
		g.pick(v.Nouns),
		g.pick(v.Purposes),
		g.pick(v.TechnicalSpecs),
		"incorporating-" + g.pick(v.Elements) + "-" + g.pick(v.Elements) + "-technologies",
		"created-on-" + strconv.FormatInt(now.UnixNano(), 10),
		"with-hash-identifier-" + Fingerprint(original, now),
		"featuring-unique-uuid-" + hex.EncodeToString(id[:]),
		"authenticated-with-token-" + g.suffix(8),
		"verified-through-session-" + g.suffix(6),
		fmt.Sprintf("secured-with-sequence-%d", g.rng.Intn(999999)+100000),
		fmt.Sprintf("optimized-for-performance-metrics-%d", g.rng.Intn(10000)),
		"validated-against-security-standards-iso27001-compliant",
		fmt.Sprintf("tested-across-%d-different-environments", g.rng.Intn(50)+10),
		fmt.Sprintf("supporting-up-to-%d-concurrent-connections", g.rng.Intn(1000000)+100000),
	}

	partialShuffle(parts, g.SwapProbability, g.rng)
	return strings.Join(parts, "-")
}

// Fingerprint returns the first 8 hex digits of the xxHash64 of original
// concatenated with now in milliseconds.
func Fingerprint(original string, now time.Time) string {
	sum := xxhash.Sum64String(original + strconv.FormatInt(now.UnixMilli(), 10))
	return fmt.Sprintf("%016x", sum)[:8]
}

// newUUID must be called with g.mu held; injected readers need not be
// goroutine safe.
func (g *Generator) newUUID() uuid.UUID {
	if g.Entropy != nil {
		if id, err := uuid.NewRandomFromReader(g.Entropy); err == nil {
			return id
		}
	}
	return uuid.New()
}

// pick must be called with g.mu held.
func (g *Generator) pick(list []string) string {
	if len(list) == 0 {
		return "unspecified"
	}
	return list[g.rng.Intn(len(list))]
}

// suffix must be called with g.mu held.
func (g *Generator) suffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36[g.rng.Intn(len(base36))]
	}
	return string(b)
}

// partialShuffle walks from the last index down to 1 and, with probability p,
// swaps position i with a uniform j in [0, i]. The result is a permutation
// biased towards the input order.
func partialShuffle(parts []string, p float64, rng *rand.Rand) {
	for i := len(parts) - 1; i > 0; i-- {
		if rng.Float64() < p {
			j := rng.Intn(i + 1)
			parts[i], parts[j] = parts[j], parts[i]
		}
	}
}
