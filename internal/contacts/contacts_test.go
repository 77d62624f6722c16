package contacts

import (
	"database/sql"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"go.uber.org/zap/zaptest"
)

const abcddbSchema = `
CREATE TABLE ZABCDRECORD (Z_PK INTEGER PRIMARY KEY, ZFIRSTNAME TEXT, ZLASTNAME TEXT, ZORGANIZATION TEXT);
CREATE TABLE ZABCDPHONENUMBER (Z_PK INTEGER PRIMARY KEY, ZOWNER INTEGER, ZFULLNUMBER TEXT);
CREATE TABLE ZABCDEMAILADDRESS (Z_PK INTEGER PRIMARY KEY, ZOWNER INTEGER, ZADDRESS TEXT);
`

func writeSource(t *testing.T, path string, stmts ...string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()
	for _, s := range append([]string{abcddbSchema}, stmts...) {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
}

func testBook(t *testing.T) *AddressBook {
	t.Helper()
	dir := t.TempDir()
	writeSource(t, filepath.Join(dir, "Sources", "A1", abcddbName),
		`INSERT INTO ZABCDRECORD VALUES (1, 'Alice', 'Smith', NULL)`,
		`INSERT INTO ZABCDPHONENUMBER VALUES (1, 1, '(555) 123-4567')`,
		`INSERT INTO ZABCDRECORD VALUES (2, NULL, NULL, 'Acme Corp')`,
		`INSERT INTO ZABCDPHONENUMBER VALUES (2, 2, '+44 20 7946 0958')`,
		`INSERT INTO ZABCDEMAILADDRESS VALUES (1, 1, 'Alice@Example.com')`,
	)
	writeSource(t, filepath.Join(dir, abcddbName),
		`INSERT INTO ZABCDRECORD VALUES (7, 'Bob', NULL, NULL)`,
		`INSERT INTO ZABCDPHONENUMBER VALUES (1, 7, '1-555-765-4321')`,
		`INSERT INTO ZABCDRECORD VALUES (8, NULL, NULL, NULL)`,
		`INSERT INTO ZABCDPHONENUMBER VALUES (2, 8, '5550000000')`,
	)
	return NewAddressBook(dir, zaptest.NewLogger(t))
}

func TestResolve(t *testing.T) {
	ab := testBook(t)

	tests := []struct {
		in   string
		want string
	}{
		{"+15551234567", "Alice Smith"},
		{"5551234567", "Alice Smith"},
		{"15551234567", "Alice Smith"},
		{"+442079460958", "Acme Corp"},
		{"alice@example.com", "Alice Smith"},
		{" ALICE@example.com ", "Alice Smith"},
		{"+15557654321", "Bob"},
		{"5557654321", "Bob"},
		{"5550000000", "5550000000"},
		{"stranger@example.com", "stranger@example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ab.Resolve(tt.in); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	ab := NewAddressBook(filepath.Join(t.TempDir(), "missing"), nil)
	if err := ab.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := ab.Resolve("+15551234567"); got != "+15551234567" {
		t.Errorf("Resolve() = %q, want identifier unchanged", got)
	}
	if ab.Len() != 0 {
		t.Errorf("Len() = %d, want 0", ab.Len())
	}
}

func TestLoadCorruptSourceFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Sources", "X", abcddbName)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not a database"), 0600); err != nil {
		t.Fatal(err)
	}

	ab := NewAddressBook(dir, zaptest.NewLogger(t))
	if err := ab.Load(); err == nil {
		t.Error("Load() should fail when every source is unreadable")
	}
	if got := ab.Resolve("bob@example.com"); got != "bob@example.com" {
		t.Errorf("Resolve() = %q, want identifier unchanged", got)
	}
}

func TestSourcesFindsRootAndNested(t *testing.T) {
	ab := testBook(t)
	if got := len(Sources(ab.dir)); got != 2 {
		t.Errorf("Sources() found %d files, want 2", got)
	}
}

func TestPhoneVariants(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"5551234567", []string{"5551234567", "+5551234567", "+15551234567", "15551234567"}},
		{"15551234567", []string{"15551234567", "+15551234567", "5551234567", "+15551234567"}},
		{"+15551234567", []string{"+15551234567", "5551234567", "+15551234567"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := PhoneVariants(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("PhoneVariants(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"+1 (555) 123-4567": "+15551234567",
		"555.123.4567":      "5551234567",
		"  ":                "",
		"no digits":         "",
	}
	for in, want := range tests {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNopResolver(t *testing.T) {
	var r Resolver = Nop{}
	if got := r.Resolve("x"); got != "x" {
		t.Errorf("Nop.Resolve() = %q", got)
	}
}
