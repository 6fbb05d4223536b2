package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/cruisesim/internal/experiment"
)

type ExportData struct {
	ID       string               `json:"id"`
	Source   string               `json:"source"`
	Preset   string               `json:"preset,omitempty"`
	Settings experiment.Settings  `json:"settings"`
	Results  []*experiment.Result `json:"results"`
}

func ExportJSON(w io.Writer, meta *RunMetadata, results []*experiment.Result) error {
	data := ExportData{
		ID:       meta.ID,
		Source:   meta.Source,
		Preset:   meta.Preset,
		Settings: meta.Settings,
		Results:  results,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSONFile(path string, meta *RunMetadata, results []*experiment.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ExportJSON(file, meta, results); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
