package domain

import (
	"fmt"
	"strings"
)

// highRiskPatterns match permissions that grant write, send, delete, or
// administrative access. Patterns span platforms and are matched as
// case-insensitive substrings.
var highRiskPatterns = []string{
	"mail.send", "mail.readwrite", "gmail.send", "gmail.modify",
	"files.readwrite", "drive.file", "drive",
	"admin", "directory.readwrite", "user.readwrite",
	"repo", "delete", "write:org",
}

// mediumRiskPatterns match sensitive read-style permissions.
var mediumRiskPatterns = []string{
	"mail.read", "gmail.readonly", "calendar.readwrite",
	"contacts", "files.read", "drive.readonly",
	"user.read", "profile", "read:org", "read:user",
}

// ClassifyRisk maps an app's permission strings to a risk level and a
// list of human-readable risk factors.
//
// Every high-risk pattern that matches contributes a factor. Medium
// patterns are only consulted when no high-risk pattern matched, and at
// most one medium factor is recorded. First-party apps with high-risk
// permissions are downgraded to medium rather than high. An empty
// permission list yields low with no factors.
func ClassifyRisk(permissions []string, isFirstParty bool) (RiskLevel, []string) {
	permsLower := make([]string, len(permissions))
	for i, p := range permissions {
		permsLower[i] = strings.ToLower(p)
	}

	var factors []string
	for _, pattern := range highRiskPatterns {
		if anyContains(permsLower, pattern) {
			factors = append(factors, fmt.Sprintf("Has high-risk permission: %s", pattern))
		}
	}

	if len(factors) == 0 {
		for _, pattern := range mediumRiskPatterns {
			if anyContains(permsLower, pattern) {
				factors = append(factors, fmt.Sprintf("Has sensitive permission: %s", pattern))
				break
			}
		}
	}

	level := RiskLow
	switch {
	case hasHighRiskFactor(factors):
		if isFirstParty {
			level = RiskMedium
		} else {
			level = RiskHigh
		}
	case len(factors) > 0:
		level = RiskMedium
	}

	return level, factors
}

func anyContains(perms []string, pattern string) bool {
	for _, p := range perms {
		if strings.Contains(p, pattern) {
			return true
		}
	}
	return false
}

func hasHighRiskFactor(factors []string) bool {
	for _, f := range factors {
		if strings.Contains(f, "high-risk") {
			return true
		}
	}
	return false
}
