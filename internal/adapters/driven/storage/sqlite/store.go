// Package sqlite provides a unified SQLite-based implementation of the
// driven store interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. It implements
// AccountStore, AppStore, and SettingsStore through a single database
// connection.
//
// By default, the database is stored at ~/.appscope/data/appscope.db.
// All operations are thread-safe: the store relies on database-level
// locking provided by SQLite in WAL mode.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/appscope-labs/appscope-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/appscope-labs/appscope-cli/internal/core/domain"
	"github.com/appscope-labs/appscope-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to all
// store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.appscope/data/appscope.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".appscope", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "appscope.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// AccountStore returns an AccountStore interface backed by this store.
func (s *Store) AccountStore() driven.AccountStore {
	return &accountStore{store: s}
}

// AppStore returns an AppStore interface backed by this store.
func (s *Store) AppStore() driven.AppStore {
	return &appStore{store: s}
}

// SettingsStore returns a SettingsStore interface backed by this store.
func (s *Store) SettingsStore() driven.SettingsStore {
	return &settingsStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version,
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Account Store ====================

// accountStore implements driven.AccountStore.
type accountStore struct {
	store *Store
}

var _ driven.AccountStore = (*accountStore)(nil)

// accountColumns is the select list shared by account queries. The two
// aggregates count non-revoked apps; they are computed here rather than
// maintained incrementally.
const accountColumns = `
	a.id, a.platform, a.email, a.display_name, a.access_token,
	a.refresh_token, a.token_expires_at, a.scopes, a.connected_at, a.last_scanned_at,
	COALESCE(SUM(CASE WHEN ap.id IS NOT NULL AND ap.is_revoked = 0 THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN ap.is_revoked = 0 AND ap.risk_level IN ('high', 'critical') THEN 1 ELSE 0 END), 0)`

// SaveAccount stores a newly connected account. Reconnecting the same
// platform+email updates the stored tokens and reactivates the row.
func (s *accountStore) SaveAccount(ctx context.Context, account domain.ConnectedAccount) (string, error) {
	scopesJSON, err := json.Marshal(account.Scopes)
	if err != nil {
		return "", fmt.Errorf("marshalling scopes: %w", err)
	}

	var id string
	err = s.store.db.QueryRowContext(ctx,
		"SELECT id FROM accounts WHERE platform = ? AND email = ?",
		string(account.Platform), account.Email,
	).Scan(&id)

	switch {
	case err == nil:
		_, err = s.store.db.ExecContext(ctx, `
			UPDATE accounts SET
				display_name = ?,
				access_token = ?,
				refresh_token = ?,
				token_expires_at = ?,
				scopes = ?,
				is_active = 1
			WHERE id = ?
		`, nullString(account.DisplayName), account.AccessToken,
			nullString(account.RefreshToken), nullTime(account.TokenExpiresAt),
			string(scopesJSON), id)
		if err != nil {
			return "", fmt.Errorf("updating account: %w", err)
		}
		return id, nil

	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		_, err = s.store.db.ExecContext(ctx, `
			INSERT INTO accounts
				(id, platform, email, display_name, access_token, refresh_token,
				 token_expires_at, scopes, connected_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, string(account.Platform), account.Email, nullString(account.DisplayName),
			account.AccessToken, nullString(account.RefreshToken),
			nullTime(account.TokenExpiresAt), string(scopesJSON), time.Now().UTC())
		if err != nil {
			return "", fmt.Errorf("inserting account: %w", err)
		}
		return id, nil

	default:
		return "", fmt.Errorf("looking up account: %w", err)
	}
}

// GetAccount retrieves an active account by ID.
func (s *accountStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT`+accountColumns+`
		FROM accounts a
		LEFT JOIN apps ap ON ap.account_id = a.id
		WHERE a.id = ? AND a.is_active = 1
		GROUP BY a.id
	`, id)

	account, err := scanAccount(row)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// ListAccounts returns all active accounts.
func (s *accountStore) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT`+accountColumns+`
		FROM accounts a
		LEFT JOIN apps ap ON ap.account_id = a.id
		WHERE a.is_active = 1
		GROUP BY a.id
		ORDER BY a.connected_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account //nolint:prealloc // size unknown from query
	for rows.Next() {
		account, err := scanAccountRows(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}

	return accounts, nil
}

// UpdateTokens replaces an account's tokens after a refresh.
func (s *accountStore) UpdateTokens(ctx context.Context, id string, account domain.ConnectedAccount) error {
	scopesJSON, err := json.Marshal(account.Scopes)
	if err != nil {
		return fmt.Errorf("marshalling scopes: %w", err)
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE accounts SET
			access_token = ?,
			refresh_token = ?,
			token_expires_at = ?,
			scopes = ?
		WHERE id = ? AND is_active = 1
	`, account.AccessToken, nullString(account.RefreshToken),
		nullTime(account.TokenExpiresAt), string(scopesJSON), id)
	if err != nil {
		return fmt.Errorf("updating tokens: %w", err)
	}
	return requireRow(res)
}

// TouchScanned records when an account was last scanned.
func (s *accountStore) TouchScanned(ctx context.Context, id string, at time.Time) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE accounts SET last_scanned_at = ? WHERE id = ? AND is_active = 1",
		at.UTC(), id)
	if err != nil {
		return fmt.Errorf("updating scan time: %w", err)
	}
	return requireRow(res)
}

// RemoveAccount deactivates an account. Apps are kept for history.
func (s *accountStore) RemoveAccount(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE accounts SET is_active = 0 WHERE id = ? AND is_active = 1", id)
	if err != nil {
		return fmt.Errorf("removing account: %w", err)
	}
	return requireRow(res)
}

// ==================== App Store ====================

// appStore implements driven.AppStore.
type appStore struct {
	store *Store
}

var _ driven.AppStore = (*appStore)(nil)

const appColumns = `
	id, account_id, app_id, name, publisher, description, homepage_url, icon_url,
	permissions, consent_type, consented_at, risk_level, risk_factors,
	is_first_party, discovered_at, last_seen_at, is_revoked`

// UpsertApp stores a discovered app, keyed by account + platform app
// ID. A rescan that sees the app again clears any revoked flag, since
// the grant evidently still exists.
func (s *appStore) UpsertApp(ctx context.Context, accountID string, app domain.DiscoveredApp) (string, error) {
	permissionsJSON, err := json.Marshal(app.Permissions)
	if err != nil {
		return "", fmt.Errorf("marshalling permissions: %w", err)
	}
	factorsJSON, err := json.Marshal(app.RiskFactors)
	if err != nil {
		return "", fmt.Errorf("marshalling risk factors: %w", err)
	}

	id := accountID + ":" + app.AppID
	now := time.Now().UTC()

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO apps
			(id, account_id, app_id, name, publisher, description, homepage_url,
			 icon_url, permissions, consent_type, consented_at, risk_level,
			 risk_factors, is_first_party, discovered_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, app_id) DO UPDATE SET
			name = excluded.name,
			publisher = excluded.publisher,
			description = excluded.description,
			homepage_url = excluded.homepage_url,
			icon_url = excluded.icon_url,
			permissions = excluded.permissions,
			consent_type = excluded.consent_type,
			consented_at = excluded.consented_at,
			risk_level = excluded.risk_level,
			risk_factors = excluded.risk_factors,
			is_first_party = excluded.is_first_party,
			last_seen_at = excluded.last_seen_at,
			is_revoked = 0
	`, id, accountID, app.AppID, app.Name, nullString(app.Publisher),
		nullString(app.Description), nullString(app.HomepageURL), nullString(app.IconURL),
		string(permissionsJSON), nullString(app.ConsentType), nullString(app.ConsentedAt),
		string(app.RiskLevel), string(factorsJSON), app.IsFirstParty, now, now)
	if err != nil {
		return "", fmt.Errorf("upserting app: %w", err)
	}

	return id, nil
}

// GetApp retrieves a stored app by row ID.
func (s *appStore) GetApp(ctx context.Context, id string) (*domain.App, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT"+appColumns+" FROM apps WHERE id = ?", id)
	return scanApp(row)
}

// ListApps returns stored apps matching the filter, ordered by
// descending risk then name.
func (s *appStore) ListApps(ctx context.Context, filter driven.AppFilter) ([]domain.App, error) {
	query := "SELECT" + appColumns + " FROM apps WHERE 1=1"
	var args []any

	if filter.AccountID != "" {
		query += " AND account_id = ?"
		args = append(args, filter.AccountID)
	}
	if filter.RiskLevel != "" {
		query += " AND risk_level = ?"
		args = append(args, string(filter.RiskLevel))
	}
	if !filter.IncludeRevoked {
		query += " AND is_revoked = 0"
	}
	query += `
		ORDER BY CASE risk_level
			WHEN 'critical' THEN 0
			WHEN 'high' THEN 1
			WHEN 'medium' THEN 2
			WHEN 'low' THEN 3
			ELSE 4
		END, name`

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying apps: %w", err)
	}
	defer rows.Close()

	var apps []domain.App //nolint:prealloc // size unknown from query
	for rows.Next() {
		app, err := scanAppRows(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating apps: %w", err)
	}

	return apps, nil
}

// MarkRevoked flags a stored app as revoked.
func (s *appStore) MarkRevoked(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE apps SET is_revoked = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking app revoked: %w", err)
	}
	return requireRow(res)
}

// ==================== Settings Store ====================

// settingsStore implements driven.SettingsStore.
type settingsStore struct {
	store *Store
}

var _ driven.SettingsStore = (*settingsStore)(nil)

// ReadSetting returns the value for a key.
func (s *settingsStore) ReadSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading setting: %w", err)
	}
	return value, nil
}

// WriteSetting stores a value for a key.
func (s *settingsStore) WriteSetting(ctx context.Context, key, value string) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("writing setting: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccountFields(sc scanner) (*domain.Account, error) {
	var account domain.Account
	var platform, scopesJSON string
	var displayName, refreshToken sql.NullString
	var expiresAt, lastScannedAt sql.NullTime

	if err := sc.Scan(&account.ID, &platform, &account.Email, &displayName,
		&account.AccessToken, &refreshToken, &expiresAt, &scopesJSON,
		&account.ConnectedAt, &lastScannedAt,
		&account.AppCount, &account.HighRiskCount); err != nil {
		return nil, err
	}

	account.Platform = domain.PlatformType(platform)
	account.DisplayName = displayName.String
	account.RefreshToken = refreshToken.String
	if expiresAt.Valid {
		account.TokenExpiresAt = expiresAt.Time
	}
	if lastScannedAt.Valid {
		account.LastScannedAt = lastScannedAt.Time
	}

	if err := json.Unmarshal([]byte(scopesJSON), &account.Scopes); err != nil {
		return nil, fmt.Errorf("unmarshalling scopes: %w", err)
	}

	return &account, nil
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	account, err := scanAccountFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning account: %w", err)
	}
	return account, nil
}

func scanAccountRows(rows *sql.Rows) (*domain.Account, error) {
	account, err := scanAccountFields(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning account: %w", err)
	}
	return account, nil
}

func scanAppFields(sc scanner) (*domain.App, error) {
	var app domain.App
	var permissionsJSON, factorsJSON, riskLevel string
	var publisher, description, homepageURL, iconURL, consentType, consentedAt sql.NullString

	if err := sc.Scan(&app.ID, &app.AccountID, &app.AppID, &app.Name,
		&publisher, &description, &homepageURL, &iconURL,
		&permissionsJSON, &consentType, &consentedAt, &riskLevel, &factorsJSON,
		&app.IsFirstParty, &app.DiscoveredAt, &app.LastSeenAt, &app.Revoked); err != nil {
		return nil, err
	}

	app.Publisher = publisher.String
	app.Description = description.String
	app.HomepageURL = homepageURL.String
	app.IconURL = iconURL.String
	app.ConsentType = consentType.String
	app.ConsentedAt = consentedAt.String
	app.RiskLevel = domain.RiskLevel(riskLevel)

	if err := json.Unmarshal([]byte(permissionsJSON), &app.Permissions); err != nil {
		return nil, fmt.Errorf("unmarshalling permissions: %w", err)
	}
	if err := json.Unmarshal([]byte(factorsJSON), &app.RiskFactors); err != nil {
		return nil, fmt.Errorf("unmarshalling risk factors: %w", err)
	}

	return &app, nil
}

func scanApp(row *sql.Row) (*domain.App, error) {
	app, err := scanAppFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning app: %w", err)
	}
	return app, nil
}

func scanAppRows(rows *sql.Rows) (*domain.App, error) {
	app, err := scanAppFields(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning app: %w", err)
	}
	return app, nil
}

// requireRow maps zero affected rows to domain.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// nullString converts "" to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullTime converts the zero time to SQL NULL.
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}
