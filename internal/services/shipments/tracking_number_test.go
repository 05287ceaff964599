package shipments

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var trackingNumberRe = regexp.MustCompile(`^FLL-[0-9A-Z]+$`)

func TestNumberGenerator_UniqueAndWellFormed(t *testing.T) {
	g := NewNumberGenerator()
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		n := g.Next()
		require.Regexp(t, trackingNumberRe, n)
		require.Equal(t, strings.ToUpper(n), n)
		_, dup := seen[n]
		require.False(t, dup, n)
		seen[n] = struct{}{}
	}
	require.Len(t, seen, 1000)
}

// при замороженных часах миллисекунды всё равно растут
func TestNumberGenerator_FrozenClock(t *testing.T) {
	frozen := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	g := NewNumberGenerator()
	g.now = func() time.Time { return frozen }

	prefixes := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		n := g.Next()
		prefixes[n[:len(n)-randomSuffix]] = struct{}{}
	}
	require.Len(t, prefixes, 1000)
}

func TestNumberGenerator_Format(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	g := NewNumberGenerator()
	g.now = func() time.Time { return at }

	n := g.Next()
	require.True(t, strings.HasPrefix(n, "FLL-LOYW3V28"), n)
	require.Len(t, n, len("FLL-LOYW3V28")+4)
}
