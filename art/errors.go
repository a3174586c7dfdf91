package art

import (
	"errors"
	"fmt"
)

// ErrNoReference is returned by the positional entry points when the
// simulator was constructed without a reference sequence.
var ErrNoReference = errors.New("no reference sequence was supplied at construction")

// SamplingError reports that indel position rejection sampling exhausted
// its retry budget before finding enough distinct positions. The primary
// plan falls back to the balanced plan once; a balanced-plan failure fails
// the read generation call.
type SamplingError struct {
	ReadLen int
	Events  int
}

func (e SamplingError) Error() string {
	return fmt.Sprintf("could not place %d indel events in a read of %d bases", e.Events, e.ReadLen)
}
