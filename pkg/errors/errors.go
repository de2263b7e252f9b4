package errors

import "errors"

var (
	ErrUnknownJoker      = errors.New("unknown joker")
	ErrInvalidCardList   = errors.New("invalid card list")
	ErrInvalidHandSize   = errors.New("invalid hand size")
	ErrPoolTooLarge      = errors.New("card pool too large to optimize")
	ErrUnknownAlgorithm  = errors.New("unknown generation algorithm")
	ErrDatasetNotFound   = errors.New("dataset not found")
	ErrBenchmarkNotFound = errors.New("benchmark run not found")
	ErrPlayCountMismatch = errors.New("play count does not match dataset items")
	ErrLLMUnavailable    = errors.New("llm backend unavailable")

	ErrAdminNotFound        = errors.New("admin not found")
	ErrAdminDisabled        = errors.New("admin disabled")
	ErrInvalidAdminPassword = errors.New("invalid admin password")
	ErrUnauthorized         = errors.New("unauthorized")
)
