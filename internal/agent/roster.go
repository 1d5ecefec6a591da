package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/kazz187/taskforge/pkg/cerr"
)

// RosterEntry declares one agent in a roster file.
type RosterEntry struct {
	Name           string            `yaml:"name" toml:"name"`
	Type           string            `yaml:"type" toml:"type"`
	Specialization string            `yaml:"specialization" toml:"specialization"`
	Active         *bool             `yaml:"active" toml:"active"`
	Configuration  map[string]string `yaml:"configuration" toml:"configuration"`
}

type rosterFile struct {
	Agents []RosterEntry `yaml:"agents" toml:"agents"`
}

// LoadRoster reads a YAML or TOML roster, chosen by file extension.
func LoadRoster(path string) ([]RosterEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster %s: %w", path, err)
	}
	var f rosterFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("decode roster %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode roster %s: %w", path, err)
		}
	}
	return f.Agents, nil
}

const rosterDebounce = 200 * time.Millisecond

// RosterSyncer keeps the agent store in line with a roster file. Entries
// are matched by name; metrics of existing agents are never touched.
type RosterSyncer struct {
	repo     Repository
	registry *Registry
	path     string
}

func NewRosterSyncer(repo Repository, registry *Registry, path string) *RosterSyncer {
	return &RosterSyncer{repo: repo, registry: registry, path: path}
}

type SyncResult struct {
	Created int
	Updated int
	Skipped int
}

func (s *RosterSyncer) Sync(ctx context.Context) (SyncResult, error) {
	var res SyncResult
	entries, err := LoadRoster(s.path)
	if err != nil {
		return res, err
	}
	for _, e := range entries {
		changed, created, err := s.apply(ctx, e)
		switch {
		case err != nil:
			res.Skipped++
			slog.WarnContext(ctx, "roster entry skipped", "name", e.Name, "error", err)
		case created:
			res.Created++
		case changed:
			res.Updated++
		}
	}
	slog.InfoContext(ctx, "agent roster synced", "path", s.path,
		"created", res.Created, "updated", res.Updated, "skipped", res.Skipped)
	return res, nil
}

func (s *RosterSyncer) apply(ctx context.Context, e RosterEntry) (changed, created bool, err error) {
	t, ok := ParseType(e.Type)
	if !ok {
		return false, false, fmt.Errorf("unknown agent type %q", e.Type)
	}
	cfg := Configuration{Values: e.Configuration}.Normalize()
	if err := cfg.Validate(t); err != nil {
		return false, false, err
	}

	existing, err := s.repo.FindByName(ctx, e.Name)
	if err != nil && !cerr.IsCode(err, cerr.NotFound) {
		return false, false, err
	}
	if existing == nil {
		now := time.Now()
		a := &Agent{
			ID:             ulid.Make().String(),
			Name:           e.Name,
			Type:           t,
			Specialization: e.Specialization,
			IsActive:       e.Active == nil || *e.Active,
			Configuration:  cfg,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.repo.Create(ctx, a); err != nil {
			return false, false, err
		}
		return true, true, nil
	}
	if existing.Type != t {
		return false, false, fmt.Errorf("agent %q is a %s, roster says %s", e.Name, existing.Type, t)
	}

	if existing.Specialization != e.Specialization || !equalValues(existing.Configuration.Values, cfg.Values) {
		unlock := s.registry.Lock(existing.ID)
		current, err := s.repo.Get(ctx, existing.ID)
		if err == nil {
			current.Specialization = e.Specialization
			current.Configuration = cfg
			current.UpdatedAt = time.Now()
			err = s.repo.Update(ctx, current, current.Version)
		}
		unlock()
		if err != nil {
			return false, false, err
		}
		changed = true
	}

	if e.Active != nil && *e.Active != existing.IsActive {
		if *e.Active {
			_, err = s.registry.Activate(ctx, existing.ID)
		} else {
			_, err = s.registry.Deactivate(ctx, existing.ID)
		}
		if err != nil {
			return changed, false, err
		}
		changed = true
	}
	return changed, false, nil
}

func equalValues(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// Watch re-syncs whenever the roster file changes, until ctx is done. The
// parent directory is watched so atomic replaces are seen.
func (s *RosterSyncer) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create roster watcher: %w", err)
	}
	defer watcher.Close()

	dir, name := filepath.Dir(s.path), filepath.Base(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	slog.InfoContext(ctx, "watching agent roster", "path", s.path)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name || event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			debounce = time.After(rosterDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "roster watcher error", "error", err)
		case <-debounce:
			debounce = nil
			if _, err := s.Sync(ctx); err != nil && !errors.Is(err, os.ErrNotExist) {
				slog.WarnContext(ctx, "roster sync failed", "error", err)
			}
		}
	}
}
