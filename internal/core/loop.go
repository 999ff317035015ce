package core

import (
	"fmt"
	"strings"
)

// RepeatMode is the repeat half of the firmware loop register.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatOne RepeatMode = "one"
	RepeatAll RepeatMode = "all"
)

// ParseRepeatMode parses a user-supplied repeat mode.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none", "":
		return RepeatOff, nil
	case "one", "track", "single":
		return RepeatOne, nil
	case "all", "context", "queue":
		return RepeatAll, nil
	}
	return RepeatOff, fmt.Errorf("invalid repeat mode: %s (must be off, one, or all)", s)
}

// LoopMode is the raw loop/shuffle register value.
type LoopMode int

// Register values as the firmware defines them.
const (
	LoopRepeatAll        LoopMode = 0
	LoopRepeatOne        LoopMode = 1
	LoopShuffleRepeatAll LoopMode = 2
	LoopShuffle          LoopMode = 3
	LoopOff              LoopMode = 4
	LoopShuffleRepeatOne LoopMode = 5
)

// Decode splits the register into its shuffle and repeat halves.
// Values outside the known set decode to no shuffle and no repeat.
func (l LoopMode) Decode() (shuffle bool, repeat RepeatMode) {
	switch l {
	case LoopRepeatAll:
		return false, RepeatAll
	case LoopRepeatOne:
		return false, RepeatOne
	case LoopShuffleRepeatAll:
		return true, RepeatAll
	case LoopShuffle:
		return true, RepeatOff
	case LoopShuffleRepeatOne:
		return true, RepeatOne
	default:
		return false, RepeatOff
	}
}

// EncodeLoop combines shuffle and repeat into a register value.
func EncodeLoop(shuffle bool, repeat RepeatMode) LoopMode {
	switch {
	case shuffle && repeat == RepeatAll:
		return LoopShuffleRepeatAll
	case shuffle && repeat == RepeatOne:
		return LoopShuffleRepeatOne
	case shuffle:
		return LoopShuffle
	case repeat == RepeatAll:
		return LoopRepeatAll
	case repeat == RepeatOne:
		return LoopRepeatOne
	default:
		return LoopOff
	}
}
