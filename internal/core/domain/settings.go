package domain

// Setting keys stored by the settings collaborator.
const (
	SettingNotificationsEnabled = "notifications_enabled"
	SettingAutoScanInterval     = "auto_scan_interval"
	SettingTheme                = "theme"
	SettingSyncEnabled          = "sync_enabled"
)

// Settings holds user preferences.
type Settings struct {
	// NotificationsEnabled controls scan-result notifications.
	NotificationsEnabled bool `json:"notifications_enabled"`
	// AutoScanInterval is the automatic rescan interval in hours.
	// Zero disables automatic scans.
	AutoScanInterval int `json:"auto_scan_interval"`
	// Theme is the UI theme preference ("system", "light", "dark").
	Theme string `json:"theme"`
	// SyncEnabled controls settings sync across devices.
	SyncEnabled bool `json:"sync_enabled"`
}

// DefaultSettings returns the initial settings for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		NotificationsEnabled: true,
		AutoScanInterval:     0,
		Theme:                "system",
		SyncEnabled:          false,
	}
}
