// this file generates the per-request uniqueness fields the gateway
// requires: the request_no nonce and the gateway-local timestamp
//
// The gateway clock runs at a fixed UTC+1 offset and rejects requests whose
// timestamp drifts more than about ten minutes from its own clock. The
// generator's only obligation is the correct offset and civil format -
// keeping the host clock in sync is an operational concern.

package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"time"
)

// TimestampLayout is the civil format the gateway expects (no zone suffix -
// the offset is implied by the protocol).
const TimestampLayout = "2006-01-02 15:04:05"

// requestIDBytes gives 128 bits of entropy; hex encoding yields 32
// characters, inside the protocol's 6-32 character bound.
const requestIDBytes = 16

// gatewayZone is the gateway's fixed UTC+1 offset, independent of the host
// timezone.
var gatewayZone = time.FixedZone("UTC+1", 60*60)

// Generator produces request ids and timestamps for outbound envelopes.
//
// The zero-dependency constructor uses crypto/rand and the system clock;
// tests substitute a deterministic source and a fixed clock through
// NewGeneratorWithSource. The generator keeps no record of issued ids -
// uniqueness is collision-resistance of the random source, not global
// coordination.
type Generator struct {
	random io.Reader
	now    func() time.Time
}

// NewGenerator returns a production generator backed by crypto/rand and the
// system clock.
func NewGenerator() *Generator {
	return &Generator{random: rand.Reader, now: time.Now}
}

// NewGeneratorWithSource returns a generator with an explicit random source
// and clock. Intended for tests; production callers should use NewGenerator
// so request ids keep their cryptographic uniqueness guarantee.
func NewGeneratorWithSource(random io.Reader, now func() time.Time) *Generator {
	return &Generator{random: random, now: now}
}

// RequestID returns a fresh request_no value: 16 random bytes hex encoded
// to 32 characters. Each call draws new randomness; a failing random source
// is an internal error.
func (g *Generator) RequestID() (string, error) {
	buf := make([]byte, requestIDBytes)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return "", WrapInternalError(err, "random source failed")
	}
	return hex.EncodeToString(buf), nil
}

// Timestamp returns the current instant in the gateway's fixed UTC+1 zone
// formatted as YYYY-MM-DD HH:mm:ss.
func (g *Generator) Timestamp() string {
	return FormatTimestamp(g.now())
}

// FormatTimestamp renders any instant in the gateway's fixed UTC+1 zone and
// civil format. Exposed so other packages (and tests) format consistently.
func FormatTimestamp(t time.Time) string {
	return t.In(gatewayZone).Format(TimestampLayout)
}
