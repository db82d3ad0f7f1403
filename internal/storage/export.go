package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/knobs/internal/host"
)

type ExportPush struct {
	Time  float64  `json:"time"`
	Knob  string   `json:"knob"`
	Kind  string   `json:"kind"`
	Angle *float64 `json:"angle,omitempty"`
	Value *float64 `json:"value,omitempty"`
}

type ExportData struct {
	Session SessionMetadata `json:"session"`
	Pushes  []ExportPush    `json:"pushes"`
}

// Export gathers a stored session into one document.
func (s *Store) Export(id string) (*ExportData, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	pushes, err := s.LoadPushes(id)
	if err != nil {
		return nil, err
	}
	data := &ExportData{Session: *meta, Pushes: make([]ExportPush, len(pushes))}
	for i, p := range pushes {
		data.Pushes[i] = ExportPush{
			Time:  p.At.Sub(meta.Timestamp).Seconds(),
			Knob:  p.Knob,
			Kind:  string(p.Kind),
			Angle: p.Angle,
			Value: p.Value,
		}
	}
	return data, nil
}

func (s *Store) ExportJSON(path, id string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.WriteJSON(file, id)
}

func (s *Store) WriteJSON(w io.Writer, id string) error {
	data, err := s.Export(id)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteCSV writes the value pushes of a session as time,knob,angle,value
// rows. An empty knob writes every knob.
func (s *Store) WriteCSV(w io.Writer, id, knob string) error {
	data, err := s.Export(id)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "knob", "angle", "value"}); err != nil {
		return err
	}
	for _, p := range data.Pushes {
		if p.Kind != string(host.KindValue) || (knob != "" && p.Knob != knob) {
			continue
		}
		row := []string{
			strconv.FormatFloat(p.Time, 'f', 6, 64),
			p.Knob,
			formatOptional(p.Angle),
			formatOptional(p.Value),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
