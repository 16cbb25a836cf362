package migrate

import (
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
)

var (
	sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
)

// Validate checks migration filenames and goose headers for every driver, and
// that each driver carries the same set of migrations.
func Validate(source fs.FS) error {
	if source == nil {
		return fmt.Errorf("source is required")
	}

	var reference []string
	for i, driver := range drivers {
		names, err := validateDriver(source, driver)
		if err != nil {
			return err
		}
		if i == 0 {
			reference = names
			continue
		}
		if strings.Join(names, ",") != strings.Join(reference, ",") {
			return fmt.Errorf("driver %q migrations %v differ from %q migrations %v", driver, names, drivers[0], reference)
		}
	}
	return nil
}

func validateDriver(source fs.FS, driver string) ([]string, error) {
	entries, err := fs.ReadDir(source, driver)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", driver, err)
	}

	seen := map[string]string{} // version -> filename
	var names []string

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}

		version := m[1]
		if prev, ok := seen[version]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name)
		}
		seen[version] = name

		b, err := fs.ReadFile(source, driver+"/"+name)
		if err != nil {
			return nil, fmt.Errorf("read file %q: %w", name, err)
		}
		txt := string(b)
		if !strings.Contains(txt, "-- +goose Up") {
			return nil, fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
		}
		if !strings.Contains(txt, "-- +goose Down") {
			return nil, fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
