package classify

import (
	"encoding/base64"
	"regexp"

	"github.com/mr-tron/base58"
)

// ray_log payload: base64 data after "ray_log: " in Raydium program logs.
var rayLogPattern = regexp.MustCompile(`ray_log: ([A-Za-z0-9+/=]+)`)

// Raydium swap discriminators.
const (
	raySwapBaseIn  = 0x09
	raySwapBaseOut = 0x0b
)

// swapDetail is the best-effort decoding of one Raydium swap log.
type swapDetail struct {
	inputMint  string
	outputMint string
	amountIn   uint64
	amountOut  uint64
}

// parseRayLog extracts the first swap entry from transaction logs.
// Layout: discriminator(1) + ammId(32) + inputMint(32) + outputMint(32) +
// amountIn(8) + amountOut(8).
func parseRayLog(logs []string) (swapDetail, bool) {
	for _, entry := range logs {
		m := rayLogPattern.FindStringSubmatch(entry)
		if m == nil {
			continue
		}

		data, err := base64.StdEncoding.DecodeString(m[1])
		if err != nil {
			continue
		}
		if len(data) < 113 {
			continue
		}
		if data[0] != raySwapBaseIn && data[0] != raySwapBaseOut {
			continue
		}

		return swapDetail{
			inputMint:  base58.Encode(data[33:65]),
			outputMint: base58.Encode(data[65:97]),
			amountIn:   readUint64LE(data, 97),
			amountOut:  readUint64LE(data, 105),
		}, true
	}
	return swapDetail{}, false
}
