// Package avatars loads the avatar catalog that maps symbolic avatar names
// to served image paths.
package avatars

import (
	"fmt"
	"os"
	"strings"

	"stride/internal/models"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Avatars []entry `yaml:"avatars"`
}

type entry struct {
	Name      string `yaml:"name"`
	ImagePath string `yaml:"image_path"`
}

// LoadCatalog reads and validates the avatar catalog file.
func LoadCatalog(path string) ([]models.Avatar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read avatar catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses catalog YAML. Names must be unique and both fields
// non-empty.
func ParseCatalog(data []byte) ([]models.Avatar, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse avatar catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Avatars))
	avatars := make([]models.Avatar, 0, len(file.Avatars))
	for i, e := range file.Avatars {
		name := strings.TrimSpace(e.Name)
		path := strings.TrimSpace(e.ImagePath)
		if name == "" || path == "" {
			return nil, fmt.Errorf("avatar catalog entry %d: name and image_path are required", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("avatar catalog: duplicate name %q", name)
		}
		seen[name] = struct{}{}
		avatars = append(avatars, models.Avatar{AvatarName: name, ImagePath: path})
	}
	return avatars, nil
}
