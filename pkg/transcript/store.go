package transcript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jcadam/parley/pkg/config"
	"github.com/jcadam/parley/pkg/slug"
)

var (
	// ErrNotFound means no saved session matches an ID prefix.
	ErrNotFound = errors.New("session not found")
	// ErrAmbiguous means more than one saved session matches an ID prefix.
	ErrAmbiguous = errors.New("session ID prefix is ambiguous")
)

// record is the YAML front matter of a saved session. The markdown body
// below it is for humans; loading only reads the front matter.
type record struct {
	ID       string          `yaml:"id"`
	Title    string          `yaml:"title"`
	Started  time.Time       `yaml:"started"`
	Messages []recordMessage `yaml:"messages"`
}

type recordMessage struct {
	Role Role      `yaml:"role"`
	Time time.Time `yaml:"time"`
	Text string    `yaml:"text"`
}

// Summary describes a saved session without loading its messages.
type Summary struct {
	ID       string
	Title    string
	Started  time.Time
	Messages int
	Path     string
}

// Store keeps sessions as markdown files with YAML front matter.
type Store struct {
	root string
	mu   sync.Mutex
}

// NewStore creates a store rooted at dir, creating the directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating sessions directory: %w", err)
	}
	return &Store{root: dir}, nil
}

// Save writes t to disk and returns the file path. Saving the same
// transcript again overwrites its file.
func (s *Store) Save(t Transcript, apps config.AppsConfig) (string, error) {
	if t.Len() == 0 {
		return "", errors.New("refusing to save an empty session")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := record{ID: t.id, Title: t.Title(), Started: t.started.UTC()}
	for _, m := range t.messages {
		rec.Messages = append(rec.Messages, recordMessage{Role: m.Role, Time: m.Time.UTC(), Text: m.Text})
	}
	front, err := yaml.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(front)
	b.WriteString("---\n\n")
	b.WriteString(t.Markdown(apps))

	path := filepath.Join(s.root, s.filename(t))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing session: %w", err)
	}
	return path, nil
}

func (s *Store) filename(t Transcript) string {
	short := t.id
	if len(short) > 8 {
		short = short[:8]
	}
	ts := t.started.UTC().Format("2006-01-02T150405")
	return fmt.Sprintf("%s-%s-%s.md", ts, slug.Sanitize(t.Title()), short)
}

// List returns saved sessions, newest first. Unreadable files are skipped.
func (s *Store) List() ([]Summary, error) {
	files, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []Summary
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".md") {
			continue
		}
		path := filepath.Join(s.root, f.Name())
		rec, err := readRecord(path)
		if err != nil {
			continue
		}
		out = append(out, Summary{
			ID:       rec.ID,
			Title:    rec.Title,
			Started:  rec.Started,
			Messages: len(rec.Messages),
			Path:     path,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Started.After(out[j].Started)
	})
	return out, nil
}

// Load returns the session whose ID starts with prefix.
func (s *Store) Load(prefix string) (Transcript, error) {
	if prefix == "" {
		return Transcript{}, ErrNotFound
	}
	summaries, err := s.List()
	if err != nil {
		return Transcript{}, err
	}

	var match *Summary
	for i := range summaries {
		if !strings.HasPrefix(summaries[i].ID, prefix) {
			continue
		}
		if match != nil {
			return Transcript{}, fmt.Errorf("%w: %q", ErrAmbiguous, prefix)
		}
		match = &summaries[i]
	}
	if match == nil {
		return Transcript{}, fmt.Errorf("%w: %q", ErrNotFound, prefix)
	}

	rec, err := readRecord(match.Path)
	if err != nil {
		return Transcript{}, err
	}
	return fromRecord(rec), nil
}

// InterruptedReason closes a loaded session whose last message never got a
// reply. Nothing is in flight after a load, so the transcript must not be
// left pending.
const InterruptedReason = "No reply (session was interrupted)"

func fromRecord(rec record) Transcript {
	t := Transcript{id: rec.ID, started: rec.Started}
	for _, m := range rec.Messages {
		t.messages = append(t.messages, newMessage(m.Role, m.Text, m.Time))
	}
	if last, ok := t.Last(); ok && last.Role == RoleUser {
		t = t.Apply(ResponseFailed{Reason: InterruptedReason, At: last.Time})
	}
	return t
}

func readRecord(path string) (record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return record{}, fmt.Errorf("reading session: %w", err)
	}
	raw := string(data)
	if !strings.HasPrefix(raw, "---\n") {
		return record{}, fmt.Errorf("session %s has no front matter", filepath.Base(path))
	}
	end := strings.Index(raw[4:], "\n---\n")
	if end < 0 {
		return record{}, fmt.Errorf("session %s has unterminated front matter", filepath.Base(path))
	}

	var rec record
	if err := yaml.Unmarshal([]byte(raw[4:4+end+1]), &rec); err != nil {
		return record{}, fmt.Errorf("parsing session %s: %w", filepath.Base(path), err)
	}
	if rec.ID == "" {
		return record{}, fmt.Errorf("session %s has no id", filepath.Base(path))
	}
	return rec, nil
}
