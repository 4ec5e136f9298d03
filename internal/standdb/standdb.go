// Package standdb loads the persisted serial-to-configuration mapping used
// on fixed lab stands, where the same adapter always drives the same board.
package standdb

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Entry is one stand database line: an adapter serial bound to an interface
// configuration path.
type Entry struct {
	Serial string
	Config string
}

// Database is the parsed stand database. Entries keep file order; serials
// are unique.
type Database struct {
	entries  []Entry
	bySerial map[string]string
}

// Load reads a stand database file. Each line is `<serial> <config-path>`;
// blank lines and lines starting with # are skipped. A duplicate serial is a
// load error. A missing file yields an empty database, since a stand
// database is optional equipment.
func Load(path string) (*Database, error) {
	db := &Database{bySerial: make(map[string]string)}
	if path == "" || path == os.DevNull {
		return db, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return db, nil
		}
		return nil, fmt.Errorf("failed to open stand database %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s:%d: expected `<serial> <config-path>`, got %q", path, lineNo, line)
		}
		serial, cfg := fields[0], fields[1]
		if _, dup := db.bySerial[serial]; dup {
			return nil, fmt.Errorf("%s:%d: duplicate serial %s", path, lineNo, serial)
		}
		db.bySerial[serial] = cfg
		db.entries = append(db.entries, Entry{Serial: serial, Config: cfg})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stand database %s: %w", path, err)
	}
	return db, nil
}

// Lookup returns the configuration path mapped to serial, if any.
func (db *Database) Lookup(serial string) (string, bool) {
	cfg, ok := db.bySerial[serial]
	return cfg, ok
}

// Has reports whether serial is present in the database.
func (db *Database) Has(serial string) bool {
	_, ok := db.bySerial[serial]
	return ok
}

// Len returns the number of entries.
func (db *Database) Len() int {
	return len(db.entries)
}

// Entries returns the entries in file order.
func (db *Database) Entries() []Entry {
	return db.entries
}
