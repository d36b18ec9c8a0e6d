package service

import "errors"

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrPlayerNotFound     = errors.New("player not found")

	ErrInvalidName   = errors.New("name must be between 1 and 50 characters")
	ErrInvalidConfig = errors.New("invalid tournament config")

	ErrInvalidSide      = errors.New("side must be A or B")
	ErrMatchNotReady    = errors.New("match players are not set yet")
	ErrWinnerNotInMatch = errors.New("winner is not part of this match")
	// A forward link points at a match or player that does not exist
	ErrUnresolvedLink = errors.New("knockout link cannot be resolved")

	ErrClassificationIncomplete = errors.New("classification matches are not all finished")
	ErrKnockoutExists           = errors.New("knockout bracket already generated")
	ErrNotEnoughPlayers         = errors.New("not enough players")
)
