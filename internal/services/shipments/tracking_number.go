package shipments

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	trackingPrefix = "FLL"
	base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	randomSuffix   = 4
)

// NumberGenerator issues FLL-<millis base36><4 random base36>. Within one
// process the millisecond part is strictly increasing, so two numbers from
// the same generator never collide.
type NumberGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewNumberGenerator() *NumberGenerator {
	return &NumberGenerator{now: time.Now}
}

func (g *NumberGenerator) Next() string {
	g.mu.Lock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()

	return trackingPrefix + "-" + strings.ToUpper(strconv.FormatInt(ms, 36)) + randomBase36(randomSuffix)
}

func randomBase36(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := range b {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand не падает на поддерживаемых платформах
			panic(err)
		}
		b[i] = base36Alphabet[v.Int64()]
	}
	return string(b)
}
