package checkout

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	orderNumberPrefix    = "ORD"
	orderNumberSuffixLen = 9
	base36Alphabet       = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// GenerateOrderNumber mints a human-referenceable order number of the form
// ORD-<unix-ms>-<9 random base36 chars>. The timestamp makes numbers roughly
// sortable; the random suffix makes collisions unlikely but not impossible,
// so creation still retries on the unique index.
func GenerateOrderNumber(now time.Time) (string, error) {
	suffix, err := randomBase36(orderNumberSuffixLen)
	if err != nil {
		return "", fmt.Errorf("generating order number suffix: %w", err)
	}
	return fmt.Sprintf("%s-%d-%s", orderNumberPrefix, now.UnixMilli(), suffix), nil
}

func randomBase36(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(base36Alphabet[n.Int64()])
	}
	return sb.String(), nil
}
