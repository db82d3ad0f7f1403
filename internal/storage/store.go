package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/knobs/internal/config"
	"github.com/san-kum/knobs/internal/host"
)

const (
	metadataFile = "metadata.json"
	pushesFile   = "pushes.csv"
)

var ErrEmptySession = errors.New("storage: session has no pushes")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Dir returns the directory holding the session id.
func (s *Store) Dir(id string) string {
	return filepath.Join(s.baseDir, id)
}

// KnobInfo describes one knob of a recorded page.
type KnobInfo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Mode     string  `json:"mode"`
	MinValue float64 `json:"min_value"`
	MaxValue float64 `json:"max_value"`
	Step     float64 `json:"step"`
	MinAngle float64 `json:"min_angle"`
	MaxAngle float64 `json:"max_angle"`
}

type SessionMetadata struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Source    string             `json:"source"`
	Timestamp time.Time          `json:"timestamp"`
	Duration  float64            `json:"duration"`
	Pushes    int                `json:"pushes"`
	Knobs     []KnobInfo         `json:"knobs"`
	Final     map[string]float64 `json:"final"`
}

// Save writes a session: metadata.json plus one pushes.csv row per host call.
func (s *Store) Save(title, source string, knobs []KnobInfo, pushes []host.Push) (string, error) {
	if len(pushes) == 0 {
		return "", ErrEmptySession
	}
	id := uuid.NewString()
	dir := s.Dir(id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	start := pushes[0].At
	meta := SessionMetadata{
		ID:        id,
		Title:     title,
		Source:    source,
		Timestamp: start,
		Duration:  pushes[len(pushes)-1].At.Sub(start).Seconds(),
		Pushes:    len(pushes),
		Knobs:     knobs,
		Final:     make(map[string]float64),
	}
	for _, p := range pushes {
		if p.Kind == host.KindValue && p.Value != nil {
			meta.Final[p.Knob] = *p.Value
		}
	}

	if err := writeJSON(filepath.Join(dir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writePushes(filepath.Join(dir, pushesFile), start, pushes); err != nil {
		return "", err
	}
	return id, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writePushes(path string, start time.Time, pushes []host.Push) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "knob", "kind", "angle", "value"}); err != nil {
		return err
	}
	for _, p := range pushes {
		row := []string{
			strconv.FormatFloat(p.At.Sub(start).Seconds(), 'f', 6, 64),
			p.Knob,
			string(p.Kind),
			formatOptional(p.Angle),
			formatOptional(p.Value),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

// List returns every readable session, oldest first.
func (s *Store) List() ([]SessionMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SessionMetadata{}, nil
		}
		return nil, err
	}

	sessions := make([]SessionMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		sessions = append(sessions, *meta)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Timestamp.Before(sessions[j].Timestamp)
	})
	return sessions, nil
}

func (s *Store) Load(id string) (*SessionMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(id), metadataFile))
	if err != nil {
		return nil, err
	}
	var meta SessionMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadPushes reads the pushes of a session back. Times are rebuilt relative
// to the session timestamp.
func (s *Store) LoadPushes(id string) ([]host.Push, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.Dir(id), pushesFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 5
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pushesFile, err)
	}
	if len(records) < 2 {
		return []host.Push{}, nil
	}

	pushes := make([]host.Push, 0, len(records)-1)
	for _, rec := range records[1:] {
		secs, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			continue
		}
		p := host.Push{
			At:   meta.Timestamp.Add(time.Duration(secs * float64(time.Second))),
			Knob: rec[1],
			Kind: host.Kind(rec[2]),
		}
		if p.Angle, err = parseOptional(rec[3]); err != nil {
			continue
		}
		if p.Value, err = parseOptional(rec[4]); err != nil {
			continue
		}
		pushes = append(pushes, p)
	}
	return pushes, nil
}

func parseOptional(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Series returns the pushed values of one knob and their offsets in seconds
// from the session start.
func Series(pushes []host.Push, knob string) (values, times []float64) {
	if len(pushes) == 0 {
		return nil, nil
	}
	start := pushes[0].At
	for _, p := range pushes {
		if p.Kind != host.KindValue || p.Knob != knob || p.Value == nil {
			continue
		}
		values = append(values, *p.Value)
		times = append(times, p.At.Sub(start).Seconds())
	}
	return values, times
}

// DescribeKnobs resolves knob configs into the form stored with a session.
// Knobs that fail to build are skipped.
func DescribeKnobs(knobs []config.KnobConfig) []KnobInfo {
	out := make([]KnobInfo, 0, len(knobs))
	for _, k := range knobs {
		kc, err := k.Build()
		if err != nil {
			continue
		}
		out = append(out, KnobInfo{
			ID:       k.ID,
			Title:    k.Title,
			Mode:     k.Mode,
			MinValue: kc.MinValue,
			MaxValue: kc.MaxValue,
			Step:     kc.Step,
			MinAngle: kc.MinAngle,
			MaxAngle: kc.MaxAngle,
		})
	}
	return out
}
