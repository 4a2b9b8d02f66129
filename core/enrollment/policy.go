package enrollment

import (
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/school"
)

// RetakePolicy decides whether a prior enrollment in a course with the same code,
// in another semester, blocks a new enrollment.
type RetakePolicy func(prior school.Enrollment) bool

// Retake policy names, as used in the configuration.
const (
	PolicyNever        = "never"
	PolicyUnlessFailed = "unless_failed"
)

// BlockAllRetakes forbids taking a course again in any other semester, whatever happened before.
func BlockAllRetakes(school.Enrollment) bool { return true }

// BlockUnlessFailed allows a retake when the prior attempt was failed or withdrawn.
func BlockUnlessFailed(prior school.Enrollment) bool {
	switch prior.Outcome {
	case school.OutcomeFailed, school.OutcomeWithdrawn:
		return false
	}
	return true
}

func RetakePolicyByName(name string) (RetakePolicy, error) {
	switch name {
	case "", PolicyNever:
		return BlockAllRetakes, nil
	case PolicyUnlessFailed:
		return BlockUnlessFailed, nil
	}
	return nil, errors.Errorf("unknown retake policy %q", name)
}
