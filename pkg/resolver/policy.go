package resolver

import (
	"fmt"
	"strings"
)

// ZeroOffsetPolicy decides what an answer_start of 0 means.
// Some dataset exports write 0 when the position is unknown, which collides
// with answers that genuinely open the passage.
type ZeroOffsetPolicy int

const (
	// ZeroIsOffset treats 0 as a real position (first sentence)
	ZeroIsOffset ZeroOffsetPolicy = iota
	// ZeroIsUnknown falls back to a containment search when the offset is 0
	ZeroIsUnknown
)

func (p ZeroOffsetPolicy) String() string {
	switch p {
	case ZeroIsOffset:
		return "offset"
	case ZeroIsUnknown:
		return "contains"
	default:
		return fmt.Sprintf("ZeroOffsetPolicy(%d)", int(p))
	}
}

// ParseZeroOffsetPolicy parses "offset" or "contains". Empty means ZeroIsOffset.
func ParseZeroOffsetPolicy(s string) (ZeroOffsetPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "offset":
		return ZeroIsOffset, nil
	case "contains", "unknown":
		return ZeroIsUnknown, nil
	default:
		return ZeroIsOffset, fmt.Errorf("unknown zero offset policy %q (want offset or contains)", s)
	}
}

// ModeFor returns the resolution mode used for the given offset under the policy.
func (p ZeroOffsetPolicy) ModeFor(offset int) Mode {
	if offset == 0 && p == ZeroIsUnknown {
		return ByContainment
	}
	return ByOffset
}

// ResolveAnswer resolves an answer span, picking the mode from the policy.
func ResolveAnswer(sentences []string, offset int, answer string, policy ZeroOffsetPolicy) (int, bool) {
	return Resolve(sentences, offset, answer, policy.ModeFor(offset))
}
