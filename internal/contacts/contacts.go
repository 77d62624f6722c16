// Package contacts resolves phone numbers and email addresses to names
// using the local macOS AddressBook databases.
package contacts

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const abcddbName = "AddressBook-v22.abcddb"

// Resolver maps an identifier to a display name. Identifiers without a
// match are returned unchanged.
type Resolver interface {
	Resolve(identifier string) string
}

// Nop is a Resolver that never resolves anything.
type Nop struct{}

// Resolve returns identifier unchanged.
func (Nop) Resolve(identifier string) string { return identifier }

// DefaultDir returns ~/Library/Application Support/AddressBook.
func DefaultDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "Application Support", "AddressBook")
}

// AddressBook is a Resolver backed by every AddressBook database under dir.
// Databases are read once, on first use.
type AddressBook struct {
	dir    string
	logger *zap.Logger

	once   sync.Once
	mu     sync.RWMutex
	phones map[string]string
	emails map[string]string
}

// NewAddressBook creates a resolver over dir. Nothing is read until the
// first Resolve or Load call.
func NewAddressBook(dir string, logger *zap.Logger) *AddressBook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AddressBook{
		dir:    dir,
		logger: logger,
		phones: make(map[string]string),
		emails: make(map[string]string),
	}
}

// Sources lists the AddressBook database files under dir.
func Sources(dir string) []string {
	var paths []string
	if root := filepath.Join(dir, abcddbName); fileExists(root) {
		paths = append(paths, root)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "Sources", "*", abcddbName))
	return append(paths, matches...)
}

// Load reads all sources. Unreadable sources are logged and skipped; an
// error is returned only when sources exist and none of them could be read.
func (ab *AddressBook) Load() error {
	var err error
	ab.once.Do(func() { err = ab.load() })
	return err
}

func (ab *AddressBook) load() error {
	sources := Sources(ab.dir)
	if len(sources) == 0 {
		ab.logger.Info("no address book sources found", zap.String("dir", ab.dir))
		return nil
	}

	var errs []error
	for _, path := range sources {
		if err := ab.loadSource(path); err != nil {
			ab.logger.Warn("skipping address book source", zap.String("path", path), zap.Error(err))
			errs = append(errs, err)
		}
	}
	ab.logger.Info("contacts loaded",
		zap.Int("sources", len(sources)),
		zap.Int("phones", ab.phoneCount()),
		zap.Int("emails", ab.emailCount()),
	)
	if len(errs) == len(sources) {
		return fmt.Errorf("load contacts: %w", errors.Join(errs...))
	}
	return nil
}

func (ab *AddressBook) loadSource(path string) error {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	phones, err := readPairs(db, `
		SELECT r.ZFIRSTNAME, r.ZLASTNAME, r.ZORGANIZATION, p.ZFULLNUMBER
		FROM ZABCDRECORD r
		JOIN ZABCDPHONENUMBER p ON r.Z_PK = p.ZOWNER
		WHERE p.ZFULLNUMBER IS NOT NULL`)
	if err != nil {
		return fmt.Errorf("read phones: %w", err)
	}
	emails, err := readPairs(db, `
		SELECT r.ZFIRSTNAME, r.ZLASTNAME, r.ZORGANIZATION, e.ZADDRESS
		FROM ZABCDRECORD r
		JOIN ZABCDEMAILADDRESS e ON r.Z_PK = e.ZOWNER
		WHERE e.ZADDRESS IS NOT NULL`)
	if err != nil {
		return fmt.Errorf("read emails: %w", err)
	}

	ab.mu.Lock()
	defer ab.mu.Unlock()
	for _, p := range phones {
		normalized := NormalizePhone(p.key)
		if normalized == "" {
			continue
		}
		ab.phones[normalized] = p.name
		for _, v := range PhoneVariants(normalized) {
			if _, ok := ab.phones[v]; !ok {
				ab.phones[v] = p.name
			}
		}
	}
	for _, e := range emails {
		ab.emails[strings.ToLower(strings.TrimSpace(e.key))] = e.name
	}
	return nil
}

type namedKey struct {
	name string
	key  string
}

func readPairs(db *sql.DB, query string) ([]namedKey, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []namedKey
	for rows.Next() {
		var first, last, org, key sql.NullString
		if err := rows.Scan(&first, &last, &org, &key); err != nil {
			return nil, err
		}
		name := DisplayName(first.String, last.String, org.String)
		if name == "" || key.String == "" {
			continue
		}
		out = append(out, namedKey{name: name, key: key.String})
	}
	return out, rows.Err()
}

// Resolve returns the contact name for a phone number or email address,
// or identifier unchanged when there is no match.
func (ab *AddressBook) Resolve(identifier string) string {
	if identifier == "" {
		return identifier
	}
	_ = ab.Load()

	ab.mu.RLock()
	defer ab.mu.RUnlock()

	if strings.Contains(identifier, "@") {
		if name, ok := ab.emails[strings.ToLower(strings.TrimSpace(identifier))]; ok {
			return name
		}
		return identifier
	}

	normalized := NormalizePhone(identifier)
	if name, ok := ab.phones[normalized]; ok {
		return name
	}
	for _, v := range PhoneVariants(normalized) {
		if name, ok := ab.phones[v]; ok {
			return name
		}
	}
	return identifier
}

// Len returns the number of indexed phone numbers and email addresses.
func (ab *AddressBook) Len() int {
	_ = ab.Load()
	return ab.phoneCount() + ab.emailCount()
}

func (ab *AddressBook) phoneCount() int {
	ab.mu.RLock()
	defer ab.mu.RUnlock()
	return len(ab.phones)
}

func (ab *AddressBook) emailCount() int {
	ab.mu.RLock()
	defer ab.mu.RUnlock()
	return len(ab.emails)
}

// DisplayName builds "First Last", falling back to the organization.
func DisplayName(first, last, org string) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name != "" {
		return name
	}
	return strings.TrimSpace(org)
}

// NormalizePhone reduces a phone number to its digits, keeping a leading '+'.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	digits := onlyDigits(phone)
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(phone, "+") {
		return "+" + digits
	}
	return digits
}

// PhoneVariants returns the forms a number may be stored under, including
// the US forms with and without country code.
func PhoneVariants(phone string) []string {
	if phone == "" {
		return nil
	}
	variants := []string{phone}
	digits := onlyDigits(phone)
	if digits == "" {
		return variants
	}
	if !strings.HasPrefix(phone, "+") {
		variants = append(variants, "+"+digits)
	}
	switch {
	case len(digits) == 10:
		variants = append(variants, "+1"+digits, "1"+digits)
	case len(digits) == 11 && digits[0] == '1':
		variants = append(variants, digits[1:], "+"+digits)
	}
	return variants
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
