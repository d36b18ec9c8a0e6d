package utils

import (
	"strconv"

	"github.com/google/uuid"
)

// IDFunc hands out unique opaque ids for players, matches and tournaments.
type IDFunc func() string

func NewID() string {
	return uuid.NewString()
}

// SequentialIDs yields prefix-1, prefix-2, ... for callers that need predictable ids.
func SequentialIDs(prefix string) IDFunc {
	n := 0
	return func() string {
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}
