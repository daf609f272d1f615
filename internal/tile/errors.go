package tile

import (
	"errors"
	"fmt"

	"github.com/jaennil/guide_helper/backend/world/internal/geo"
)

var (
	ErrNetwork = errors.New("tile network error")
	ErrDecode  = errors.New("tile decode error")
)

type ErrorKind int

const (
	KindNetwork ErrorKind = iota + 1
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindDecode:
		return "decode"
	}
	return "unknown"
}

// FetchError is returned by Fetcher.Fetch. Both kinds are recoverable: the
// tile may simply be requested again later.
type FetchError struct {
	Kind    ErrorKind
	Address geo.TileAddress
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch tile %s: %s: %v", e.Address, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrDecode:
		return e.Kind == KindDecode
	}
	return false
}
