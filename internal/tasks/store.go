// Package tasks persists and runs scheduled save tasks: a share link plus a
// target directory, replayed periodically to pick up new episodes.
package tasks

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"cloudsave/internal/api"
	"cloudsave/internal/rename"
	"cloudsave/internal/validation"
)

// ErrTaskNotFound is returned when a task name is not in the store.
var ErrTaskNotFound = errors.New("task not found")

// ErrTaskExists is returned when adding a task whose name is taken.
var ErrTaskExists = errors.New("task already exists")

// Task is one scheduled save. Cron is stored opaquely and interpreted by the
// scheduler that drives the runner, not by cloudsave itself.
type Task struct {
	Name            string    `toml:"name"`
	ShareLink       string    `toml:"share_link"`
	AccessCode      string    `toml:"access_code,omitempty"`
	TargetDirID     string    `toml:"target_dir_id"`
	Cron            string    `toml:"cron,omitempty"`
	RenameTemplate  string    `toml:"rename_template,omitempty"`
	NameFilters     []string  `toml:"name_filters,omitempty"`
	IgnoreExtension bool      `toml:"ignore_extension,omitempty"`
	Enabled         bool      `toml:"enabled"`
	CreatedAt       time.Time `toml:"created_at"`
	UpdatedAt       time.Time `toml:"updated_at"`
}

// Validate checks the task's fields without touching the network.
func (t *Task) Validate() error {
	if err := validation.ValidateTaskName(t.Name); err != nil {
		return err
	}
	if _, _, err := api.ParseShareLink(t.ShareLink); err != nil {
		return err
	}
	if _, err := rename.Resolve(t.RenameTemplate); err != nil {
		return fmt.Errorf("invalid rename template: %w", err)
	}
	for _, f := range t.NameFilters {
		if _, err := regexp.Compile(f); err != nil {
			return fmt.Errorf("invalid name filter %q: %w", f, err)
		}
	}
	return nil
}

type storeFile struct {
	Tasks []Task `toml:"task"`
}

// Store is the on-disk task collection, one TOML file. All methods are safe
// for concurrent use.
type Store struct {
	mu    sync.Mutex
	path  string
	tasks []Task
}

// NewStore opens (or initializes) the store at path. A missing file is an
// empty store.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read task store: %w", err)
	}

	var file storeFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse task store: %w", err)
	}
	s.tasks = file.Tasks
	return s, nil
}

// save writes the store atomically. Caller holds s.mu.
func (s *Store) save() error {
	data, err := toml.Marshal(storeFile{Tasks: s.tasks})
	if err != nil {
		return fmt.Errorf("failed to encode task store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write task store: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save task store: %w", err)
	}
	return nil
}

func (s *Store) index(name string) int {
	for i := range s.tasks {
		if s.tasks[i].Name == name {
			return i
		}
	}
	return -1
}

// Add validates and stores a new task. Names are unique.
func (s *Store) Add(task Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index(task.Name) >= 0 {
		return fmt.Errorf("%w: %s", ErrTaskExists, task.Name)
	}

	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	s.tasks = append(s.tasks, task)
	return s.save()
}

// Update replaces the named task's fields, keeping its creation time.
func (s *Store) Update(name string, task Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}
	if task.Name != name && s.index(task.Name) >= 0 {
		return fmt.Errorf("%w: %s", ErrTaskExists, task.Name)
	}

	task.CreatedAt = s.tasks[i].CreatedAt
	task.UpdatedAt = time.Now()
	s.tasks[i] = task
	return s.save()
}

// Delete removes the named task.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return s.save()
}

// SetEnabled flips a task's enabled flag.
func (s *Store) SetEnabled(name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}
	s.tasks[i].Enabled = enabled
	s.tasks[i].UpdatedAt = time.Now()
	return s.save()
}

// Get returns the named task.
func (s *Store) Get(name string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(name)
	if i < 0 {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}
	return s.tasks[i], nil
}

// List returns all tasks in insertion order.
func (s *Store) List() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}
