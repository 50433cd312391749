package repcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProposalTypeString(t *testing.T) {
	assert := assert.New(t)

	tests := []ProposalType{
		AssignPrimary,
		UpgradeToPrimary,
		AddSecondary,
		AddSecondaryForLB,
		UpgradeToSecondary,
		DowngradeToSecondary,
		DowngradeToInactive,
		Remove,
	}
	results := []string{
		"assignPrimary",
		"upgradeToPrimary",
		"addSecondary",
		"addSecondaryForLB",
		"upgradeToSecondary",
		"downgradeToSecondary",
		"downgradeToInactive",
		"remove",
	}

	for k, v := range tests {
		assert.Equal(results[k], v.String())
	}

	assert.Equal("unknown", ProposalType(99).String())
}
