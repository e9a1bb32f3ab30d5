package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const migrationUpTemplate = `-- Migration: {{.Name}} ({{.Driver}})
-- Created: {{.Timestamp}}
-- Description: {{.Description}}

`

const migrationDownTemplate = `-- Migration: {{.Name}} ({{.Driver}}, rollback)
-- Created: {{.Timestamp}}

`

// versionWidth matches the zero-padded sequence used by the embedded migrations
const versionWidth = 6

// MigrationFile represents a migration file pair for one driver
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Driver      string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration creates the next numbered up/down pair in migrationsDir/<driver>
// for every driver, so the schemas stay in step.
func CreateMigration(migrationsDir, name, description string, drivers ...string) ([]*MigrationFile, error) {
	if len(drivers) == 0 {
		drivers = []string{DriverPostgres, DriverSQLite}
	}
	base := sanitizeName(name)
	if base == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}

	next := uint64(1)
	for _, driver := range drivers {
		v, err := latestVersion(filepath.Join(migrationsDir, driver))
		if err != nil {
			return nil, err
		}
		if v+1 > next {
			next = v + 1
		}
	}
	version := fmt.Sprintf("%0*d", versionWidth, next)
	timestamp := time.Now().Format(time.RFC3339)

	created := make([]*MigrationFile, 0, len(drivers))
	for _, driver := range drivers {
		dir := filepath.Join(migrationsDir, driver)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create migrations directory: %w", err)
		}
		mf := &MigrationFile{
			Version:     version,
			Name:        name,
			Description: description,
			Driver:      driver,
			Timestamp:   timestamp,
			UpPath:      filepath.Join(dir, version+"_"+base+".up.sql"),
			DownPath:    filepath.Join(dir, version+"_"+base+".down.sql"),
		}
		if err := createMigrationFile(mf.UpPath, migrationUpTemplate, mf); err != nil {
			return nil, fmt.Errorf("failed to create up migration: %w", err)
		}
		if err := createMigrationFile(mf.DownPath, migrationDownTemplate, mf); err != nil {
			_ = os.Remove(mf.UpPath)
			return nil, fmt.Errorf("failed to create down migration: %w", err)
		}
		created = append(created, mf)
	}
	return created, nil
}

func createMigrationFile(path, tmplContent string, data *MigrationFile) error {
	tmpl, err := template.New("migration").Parse(tmplContent)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

// latestVersion returns the highest numeric prefix in dir, or 0
func latestVersion(dir string) (uint64, error) {
	names, err := ListMigrations(dir)
	if err != nil {
		return 0, err
	}
	var latest uint64
	for _, n := range names {
		prefix, _, _ := strings.Cut(n, "_")
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			continue
		}
		if v > latest {
			latest = v
		}
	}
	return latest, nil
}

// sanitizeName converts a migration name to a safe file name format
func sanitizeName(name string) string {
	result := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
			result = append(result, c)
		case c >= 'A' && c <= 'Z':
			result = append(result, c+'a'-'A')
		case c >= '0' && c <= '9':
			result = append(result, c)
		case c == ' ' || c == '-' || c == '_':
			if len(result) > 0 && result[len(result)-1] != '_' {
				result = append(result, '_')
			}
		}
	}
	return strings.TrimSuffix(string(result), "_")
}

// ListMigrations returns the sorted base names of the up migrations in dir
func ListMigrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok {
			out = append(out, base)
		}
	}
	sort.Strings(out)
	return out, nil
}
