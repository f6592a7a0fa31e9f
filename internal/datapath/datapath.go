// Package datapath resolves the base directory for artifacts and assets.
package datapath

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolver locates the data directory.
type Resolver interface {
	// Base returns the data directory.
	Base() string
	// Path joins name onto the data directory. Absolute names pass through.
	Path(name string) string
}

type static struct {
	dir string
}

// Static returns a Resolver rooted at dir.
func Static(dir string) Resolver {
	return static{dir: filepath.Clean(dir)}
}

func (s static) Base() string { return s.dir }

func (s static) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// FromFile reads the data directory from the first line of configFile. When
// the file does not exist it is created holding fallback.
func FromFile(configFile, fallback string) (Resolver, error) {
	f, err := os.Open(configFile)
	if os.IsNotExist(err) {
		if err := os.WriteFile(configFile, []byte(fallback+"\n"), 0644); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", configFile, err)
		}
		return Static(fallback), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", configFile, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", configFile, err)
		}
		return Static(fallback), nil
	}
	dir := strings.TrimSpace(scanner.Text())
	if dir == "" {
		dir = fallback
	}
	return Static(dir), nil
}
