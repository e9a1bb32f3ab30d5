// Package seed loads demo-mode accounts from YAML into the database.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/storefront/backend/internal/domain/identity"
	"go.uber.org/zap"
)

// ErrEmptyFile is returned when a seed file defines no users
var ErrEmptyFile = errors.New("seed file defines no users")

// User is one demo account entry
type User struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// File is the demo users document
type File struct {
	Users []User `yaml:"users"`
}

// DefaultUsers are seeded when no file is configured
func DefaultUsers() *File {
	return &File{Users: []User{
		{Email: "demo@example.com", Password: "demo123", Name: "Demo User"},
		{Email: "admin@example.com", Password: "admin123", Name: "Admin User"},
	}}
}

// Parse decodes a seed document; unknown keys are rejected
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("parse demo users: %w", err)
	}
	if len(f.Users) == 0 {
		return nil, ErrEmptyFile
	}
	seen := make(map[string]struct{}, len(f.Users))
	for i, u := range f.Users {
		email := identity.NormalizeEmail(u.Email)
		if _, dup := seen[email]; dup {
			return nil, fmt.Errorf("users[%d]: duplicate email %q", i, email)
		}
		seen[email] = struct{}{}
	}
	return &f, nil
}

// Load reads and parses path
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read demo users: %w", err)
	}
	return Parse(data)
}

// Seeder writes demo accounts through the repository
type Seeder struct {
	repo   identity.DemoUserRepository
	logger *zap.Logger
}

// NewSeeder creates a Seeder
func NewSeeder(repo identity.DemoUserRepository, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{repo: repo, logger: logger}
}

// Apply upserts every user in f and returns how many were written.
// Invalid entries are skipped and reported together.
func (s *Seeder) Apply(ctx context.Context, f *File) (int, error) {
	var (
		written int
		errs    []error
	)
	for i, entry := range f.Users {
		u, err := identity.NewDemoUser(entry.Email, entry.Password, entry.Name)
		if err != nil {
			errs = append(errs, fmt.Errorf("users[%d] %s: %w", i, strings.TrimSpace(entry.Email), err))
			continue
		}
		if err := s.repo.Upsert(ctx, u); err != nil {
			errs = append(errs, fmt.Errorf("users[%d] %s: %w", i, u.Email, err))
			continue
		}
		written++
	}
	s.logger.Info("Demo users seeded", zap.Int("written", written), zap.Int("failed", len(errs)))
	return written, errors.Join(errs...)
}

// ApplyPath loads path, or the built-in users when path is empty, and applies it
func (s *Seeder) ApplyPath(ctx context.Context, path string) (int, error) {
	f := DefaultUsers()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return 0, err
		}
		f = loaded
	}
	return s.Apply(ctx, f)
}
