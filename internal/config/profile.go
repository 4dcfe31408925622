package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeviceProfile is a named shortcut for a device's bus:address, plus a
// per-device timeout override. ChunkSizeKiB is stored and round-tripped
// but not applied to transfers, which use a fixed chunk size.
type DeviceProfile struct {
	Name         string `yaml:"name"`
	Bus          int    `yaml:"bus"`
	Address      int    `yaml:"address"`
	TimeoutMS    int    `yaml:"timeout_ms"`
	ChunkSizeKiB int    `yaml:"chunk_size_kib"`
}

// ProfileStore is the decoded contents of the device-profile manifest.
type ProfileStore struct {
	Profiles []DeviceProfile `yaml:"profiles"`
}

// LoadProfileStore reads the device-profile YAML manifest (see
// profilePath). A missing file is not an error — it yields an empty
// store. Malformed YAML is.
func LoadProfileStore() (*ProfileStore, error) {
	path, err := profilePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &ProfileStore{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var store ProfileStore
	if err := yaml.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &store, nil
}

// Find returns the named profile, if any.
func (s *ProfileStore) Find(name string) (DeviceProfile, bool) {
	for _, p := range s.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return DeviceProfile{}, false
}

// Save writes the store back to its manifest path, creating the file
// if needed.
func (s *ProfileStore) Save() error {
	path, err := profilePath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("config: encode profile store: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
