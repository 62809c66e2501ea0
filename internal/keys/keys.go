package keys

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// Record describes one API key and its account attributes.
type Record struct {
	Key        string `yaml:"key"`
	Owner      string `yaml:"owner"`
	Tier       Tier   `yaml:"tier"`
	DailyLimit int    `yaml:"daily_limit"`
}

// Registry is a read-only lookup table of API keys. It is built once at
// startup and never mutated afterwards, so lookups need no locking.
type Registry struct {
	records map[string]Record
}

type keysFile struct {
	Keys []Record `yaml:"keys"`
}

// defaultRecords are development keys used when no keys file is configured.
// Do not ship these to production.
var defaultRecords = []Record{
	{Key: "ios_app_key_123xyz", Owner: "ios_app", Tier: TierPro, DailyLimit: 1000},
	{Key: "test_key_456abc", Owner: "test_user", Tier: TierFree, DailyLimit: 50},
}

// Load reads the registry from a YAML file. An empty path loads the built-in
// development keys.
func Load(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry(defaultRecords)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keys file: %w", err)
	}

	var f keysFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse keys file: %w", err)
	}
	if len(f.Keys) == 0 {
		return nil, fmt.Errorf("keys file %s contains no keys", path)
	}

	return NewRegistry(f.Keys)
}

// NewRegistry validates the records and builds the lookup table.
func NewRegistry(records []Record) (*Registry, error) {
	table := make(map[string]Record, len(records))
	for i, rec := range records {
		if rec.Key == "" {
			return nil, fmt.Errorf("key %d: empty key", i)
		}
		if rec.Owner == "" {
			return nil, fmt.Errorf("key %q: empty owner", rec.Key)
		}
		if rec.Tier != TierFree && rec.Tier != TierPro {
			return nil, fmt.Errorf("key %q: unknown tier %q", rec.Key, rec.Tier)
		}
		if rec.DailyLimit <= 0 {
			return nil, fmt.Errorf("key %q: daily_limit must be positive, got %d", rec.Key, rec.DailyLimit)
		}
		if _, exists := table[rec.Key]; exists {
			return nil, fmt.Errorf("duplicate key %q", rec.Key)
		}
		table[rec.Key] = rec
	}
	return &Registry{records: table}, nil
}

// Lookup returns the record for an API key.
func (r *Registry) Lookup(key string) (Record, bool) {
	rec, ok := r.records[key]
	return rec, ok
}

// Len returns the number of registered keys.
func (r *Registry) Len() int {
	return len(r.records)
}
