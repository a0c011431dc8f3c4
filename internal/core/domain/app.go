package domain

import "time"

// RiskLevel classifies how much access a discovered app holds.
type RiskLevel string

const (
	// RiskInfo marks guidance entries that require manual review rather
	// than a real finding (e.g. a pointer to the platform's own
	// permissions page).
	RiskInfo RiskLevel = "info"
	// RiskLow is an app with no sensitive permissions.
	RiskLow RiskLevel = "low"
	// RiskMedium is an app with sensitive read-style permissions, or a
	// first-party app with high-risk permissions.
	RiskMedium RiskLevel = "medium"
	// RiskHigh is a third-party app with high-risk permissions.
	RiskHigh RiskLevel = "high"
	// RiskCritical is reserved. The classifier never produces it, but
	// consumers must accept it (it counts into the high bucket).
	RiskCritical RiskLevel = "critical"
)

// DiscoveredApp is one third-party application found to hold access
// during a scan. Produced fresh on every scan; de-duplication against
// previously seen apps is the store's responsibility.
type DiscoveredApp struct {
	// AppID is the platform-scoped app identifier. It is not globally
	// unique and must be namespaced by account when persisted.
	AppID string `json:"app_id"`
	// Name is the app's display name.
	Name string `json:"name"`
	// Publisher is the app's publisher, if known.
	Publisher string `json:"publisher,omitempty"`
	// Description is a short description, if known.
	Description string `json:"description,omitempty"`
	// HomepageURL is the app's homepage, if known.
	HomepageURL string `json:"homepage_url,omitempty"`
	// IconURL is the app's icon, if known.
	IconURL string `json:"icon_url,omitempty"`
	// Permissions are the permission/scope strings granted to the app,
	// in platform order.
	Permissions []string `json:"permissions"`
	// ConsentType tags how consent was given (e.g. "oauth", "github_app").
	ConsentType string `json:"consent_type,omitempty"`
	// ConsentedAt is when the grant was created, if the platform reports it.
	ConsentedAt string `json:"consented_at,omitempty"`
	// RiskLevel is the classified risk for this app.
	RiskLevel RiskLevel `json:"risk_level"`
	// RiskFactors are human-readable reasons for the risk level.
	RiskFactors []string `json:"risk_factors"`
	// IsFirstParty is true when the app is operated by the platform itself.
	IsFirstParty bool `json:"is_first_party"`
}

// App is a stored discovered app, namespaced by account.
// The store keys rows by account ID + platform app ID.
type App struct {
	DiscoveredApp

	// ID is the local row identifier (accountID:appID).
	ID string `json:"id"`
	// AccountID is the owning account's local identifier.
	AccountID string `json:"account_id"`
	// DiscoveredAt is when the app was first seen.
	DiscoveredAt time.Time `json:"discovered_at"`
	// LastSeenAt is when the app was last observed by a scan.
	LastSeenAt time.Time `json:"last_seen_at"`
	// Revoked is true once the app's access has been revoked.
	Revoked bool `json:"revoked"`
}

// ScanSummary aggregates one scan's findings by risk bucket.
// Derived from the full discovered set on every scan, never persisted
// or incrementally maintained.
type ScanSummary struct {
	// AccountID is the scanned account's local identifier.
	AccountID string `json:"account_id"`
	// AppsFound is the total number of apps discovered.
	AppsFound int `json:"apps_found"`
	// HighRiskCount counts apps with level high or critical.
	HighRiskCount int `json:"high_risk_count"`
	// MediumRiskCount counts apps with level medium.
	MediumRiskCount int `json:"medium_risk_count"`
	// LowRiskCount counts all remaining apps, including info entries.
	LowRiskCount int `json:"low_risk_count"`
}

// Summarize partitions apps into risk buckets by exact level match.
// High counts both high and critical; everything that is neither
// high/critical nor medium lands in the low bucket, so the three
// buckets always sum to AppsFound.
func Summarize(accountID string, apps []DiscoveredApp) ScanSummary {
	summary := ScanSummary{
		AccountID: accountID,
		AppsFound: len(apps),
	}
	for i := range apps {
		switch apps[i].RiskLevel {
		case RiskHigh, RiskCritical:
			summary.HighRiskCount++
		case RiskMedium:
			summary.MediumRiskCount++
		default:
			summary.LowRiskCount++
		}
	}
	return summary
}
