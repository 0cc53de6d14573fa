package technique

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadSkillFromBytes parses and validates a single skill definition.
// Unknown YAML fields are rejected.
func LoadSkillFromBytes(data []byte) (*SkillDef, error) {
	var s SkillDef
	if err := decodeStrict(data, &s); err != nil {
		return nil, fmt.Errorf("parsing skill YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadTechniqueFromBytes parses and validates a single technique definition.
// Unknown YAML fields are rejected.
func LoadTechniqueFromBytes(data []byte) (*TechniqueDef, error) {
	var t TechniqueDef
	if err := decodeStrict(data, &t); err != nil {
		return nil, fmt.Errorf("parsing technique YAML: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadSkills reads every *.yaml file in dir as one SkillDef.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all skills or an error on the first failure.
func LoadSkills(dir string) ([]*SkillDef, error) {
	files, err := YAMLFiles(dir)
	if err != nil {
		return nil, err
	}
	out := make([]*SkillDef, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		s, err := LoadSkillFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// LoadTechniques reads every *.yaml file in dir as one TechniqueDef.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all techniques or an error on the first failure.
func LoadTechniques(dir string) ([]*TechniqueDef, error) {
	files, err := YAMLFiles(dir)
	if err != nil {
		return nil, err
	}
	out := make([]*TechniqueDef, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		t, err := LoadTechniqueFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// YAMLFiles lists the .yaml and .yml files directly inside dir in
// lexicographic order.
func YAMLFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths, nil
}

func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(v)
}
