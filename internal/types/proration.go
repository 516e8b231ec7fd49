package types

import (
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/samber/lo"
)

// ProrationPolicy selects how the unused value of a membership is priced
// against a target package.
type ProrationPolicy string

const (
	// ProrationPolicyProportional prices the remaining days at both daily rates
	ProrationPolicyProportional ProrationPolicy = "proportional"
	// ProrationPolicyFull charges the whole target package less the remaining value
	ProrationPolicyFull ProrationPolicy = "full"
	// ProrationPolicyCustom uses an amount entered by staff
	ProrationPolicyCustom ProrationPolicy = "custom"
)

var prorationPolicies = []ProrationPolicy{
	ProrationPolicyProportional,
	ProrationPolicyFull,
	ProrationPolicyCustom,
}

func (p ProrationPolicy) String() string {
	return string(p)
}

func (p ProrationPolicy) Validate() error {
	if !lo.Contains(prorationPolicies, p) {
		return ierr.NewError("invalid proration policy").
			WithHintf("Proration policy must be one of %v", prorationPolicies).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ProrationDirection tells the calculator which way the package changes
type ProrationDirection string

const (
	ProrationDirectionUpgrade   ProrationDirection = "upgrade"
	ProrationDirectionDowngrade ProrationDirection = "downgrade"
)

func (d ProrationDirection) String() string {
	return string(d)
}

func (d ProrationDirection) Validate() error {
	allowed := []ProrationDirection{
		ProrationDirectionUpgrade,
		ProrationDirectionDowngrade,
	}
	if !lo.Contains(allowed, d) {
		return ierr.NewError("invalid proration direction").
			WithHintf("Proration direction must be one of %v", allowed).
			Mark(ierr.ErrValidation)
	}
	return nil
}
