package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

func loadYAML(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// GameData bundles the static tables read from the assets directory.
type GameData struct {
	Effects *EffectsConfig
	Classes *ClassesConfig
	Arena   *ArenaConfig
}

func LoadAll(dir string) (*GameData, error) {
	var ec EffectsConfig
	var cc ClassesConfig
	var ac ArenaConfig
	if err := loadYAML(filepath.Join(dir, "effects.yaml"), &ec); err != nil {
		return nil, err
	}
	if err := loadYAML(filepath.Join(dir, "classes.yaml"), &cc); err != nil {
		return nil, err
	}
	if err := loadYAML(filepath.Join(dir, "arena.yaml"), &ac); err != nil {
		return nil, err
	}
	return &GameData{Effects: &ec, Classes: &cc, Arena: &ac}, nil
}
