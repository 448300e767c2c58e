package project

import (
	"encoding/json"
	"fmt"
	"os"
)

// Decode parses a project from JSON.
//
// Files written by older builds may carry categories without an index
// field. Those decode as index 0, which is never a valid category index,
// so Decode assigns each one the lowest index still free in its layer.
// Declared indices are kept untouched.
func Decode(data []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("project: decode: %w", err)
	}
	for _, l := range p.Layers {
		assignMissingIndices(l)
	}
	return &p, nil
}

// Encode serializes the project as indented JSON.
func Encode(p *Project) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("project: encode: %w", err)
	}
	return data, nil
}

// Load reads and decodes a project file.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("project: load %s: %w", path, err)
	}
	return Decode(data)
}

// Save encodes the project and writes it to path.
func Save(path string, p *Project) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("project: save %s: %w", path, err)
	}
	return nil
}

func assignMissingIndices(l *Layer) {
	var used [256]bool
	for _, c := range l.Categories {
		used[c.Index] = true
	}
	next := 1
	for _, c := range l.Categories {
		if c.Index != 0 {
			continue
		}
		for next <= MaxCategories && used[next] {
			next++
		}
		if next > MaxCategories {
			return
		}
		c.Index = uint8(next)
		used[next] = true
	}
}
