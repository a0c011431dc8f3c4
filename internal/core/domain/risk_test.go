package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRisk_EmptyPermissions(t *testing.T) {
	level, factors := ClassifyRisk(nil, false)

	assert.Equal(t, RiskLow, level)
	assert.Empty(t, factors)
}

func TestClassifyRisk_HighRiskPermission(t *testing.T) {
	level, factors := ClassifyRisk([]string{"repo"}, false)

	assert.Equal(t, RiskHigh, level)
	assert.Equal(t, []string{"Has high-risk permission: repo"}, factors)
}

func TestClassifyRisk_HighFactorsAreAdditive(t *testing.T) {
	level, factors := ClassifyRisk([]string{"repo", "delete_repo", "write:org"}, false)

	assert.Equal(t, RiskHigh, level)
	// Every matching pattern contributes: "repo" and "delete_repo" both
	// match "repo", "delete_repo" also matches "delete".
	assert.Contains(t, factors, "Has high-risk permission: repo")
	assert.Contains(t, factors, "Has high-risk permission: delete")
	assert.Contains(t, factors, "Has high-risk permission: write:org")
	assert.Len(t, factors, 3)
}

func TestClassifyRisk_MediumPermission(t *testing.T) {
	level, factors := ClassifyRisk([]string{"calendar.readwrite"}, false)

	assert.Equal(t, RiskMedium, level)
	assert.Equal(t, []string{"Has sensitive permission: calendar.readwrite"}, factors)
}

func TestClassifyRisk_AtMostOneMediumFactor(t *testing.T) {
	level, factors := ClassifyRisk([]string{"gmail.readonly", "contacts"}, false)

	assert.Equal(t, RiskMedium, level)
	assert.Len(t, factors, 1)
}

func TestClassifyRisk_MediumSkippedWhenHighMatches(t *testing.T) {
	level, factors := ClassifyRisk([]string{"repo", "read:user"}, false)

	assert.Equal(t, RiskHigh, level)
	for _, f := range factors {
		assert.NotContains(t, f, "sensitive")
	}
}

func TestClassifyRisk_FirstPartyDowngrade(t *testing.T) {
	level, factors := ClassifyRisk([]string{"mail.send"}, true)

	// First-party apps with high-risk permissions land at medium, but
	// the factors still name the high-risk permissions.
	assert.Equal(t, RiskMedium, level)
	assert.Equal(t, []string{"Has high-risk permission: mail.send"}, factors)
}

func TestClassifyRisk_FirstPartyWithoutHighRisk(t *testing.T) {
	level, _ := ClassifyRisk([]string{"profile"}, true)

	assert.Equal(t, RiskMedium, level)
}

func TestClassifyRisk_CaseInsensitive(t *testing.T) {
	level, factors := ClassifyRisk([]string{"User.ReadWrite.All"}, false)

	assert.Equal(t, RiskHigh, level)
	assert.Contains(t, factors, "Has high-risk permission: user.readwrite")
}

func TestClassifyRisk_SubstringMatch(t *testing.T) {
	// Graph-style scopes with URL prefixes still match.
	level, _ := ClassifyRisk([]string{"https://www.googleapis.com/auth/gmail.modify"}, false)

	assert.Equal(t, RiskHigh, level)
}

func TestClassifyRisk_UnmatchedPermissions(t *testing.T) {
	level, factors := ClassifyRisk([]string{"openid", "notifications"}, false)

	assert.Equal(t, RiskLow, level)
	assert.Empty(t, factors)
}
