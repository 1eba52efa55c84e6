package canopy

import (
	"fmt"

	"github.com/teranos/canopy/errors"
)

// BuildFailure reports a clustering round that produced no canopies. The
// pipeline stops at that round and publishes nothing.
type BuildFailure struct {
	Round    int
	Canopies int
}

func (e *BuildFailure) Error() string {
	return fmt.Sprintf("canopy build failure: round %d produced %d canopies", e.Round, e.Canopies)
}

// Is makes errors.Is(err, errors.ErrCanopyBuildFailure) hold
func (e *BuildFailure) Is(target error) bool {
	return target == errors.ErrCanopyBuildFailure
}
