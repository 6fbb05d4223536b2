package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/cruisesim/internal/dynamo"
	"github.com/san-kum/cruisesim/internal/experiment"
)

const (
	metadataFile = "metadata.json"
	profilesFile = "profiles.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Dir is the directory holding the run directories.
func (s *Store) Dir() string { return s.baseDir }

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string              `json:"id"`
	Source    string              `json:"source"`
	Preset    string              `json:"preset,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	Settings  experiment.Settings `json:"settings"`
	Cases     []CaseSummary       `json:"cases"`
}

// CaseSummary is everything about a case except its profile samples.
type CaseSummary struct {
	Case      int               `json:"case"`
	Scenario  dynamo.Scenario   `json:"scenario"`
	Root      dynamo.RootResult `json:"root"`
	Optimal   float64           `json:"optimal"`
	Analytic  float64           `json:"analytic"`
	FellBack  bool              `json:"fell_back"`
	DPDV      float64           `json:"dp_dv"`
	DPDVExact float64           `json:"dp_dv_exact"`
	Energy    float64           `json:"energy"`
}

func summarize(r *experiment.Result) CaseSummary {
	return CaseSummary{
		Case:      r.Case,
		Scenario:  r.Scenario,
		Root:      r.Root,
		Optimal:   r.Optimal,
		Analytic:  r.Analytic,
		FellBack:  r.FellBack,
		DPDV:      r.DPDV,
		DPDVExact: r.DPDVExact,
		Energy:    r.Energy,
	}
}

// Save writes a run directory with metadata.json and profiles.csv and
// returns the generated run id. ID and Timestamp of meta are filled in.
func (s *Store) Save(meta RunMetadata, results []*experiment.Result) (string, error) {
	now := time.Now()
	meta.Timestamp = now
	meta.Cases = make([]CaseSummary, len(results))
	for i, r := range results {
		meta.Cases[i] = summarize(r)
	}

	if err := s.Init(); err != nil {
		return "", err
	}
	base := "run_" + now.Format("20060102_150405")
	meta.ID = base
	runDir := filepath.Join(s.baseDir, meta.ID)
	// os.Mkdir fails on an existing directory, so same-second runs get a suffix
	for n := 1; ; n++ {
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return "", err
		}
		meta.ID = fmt.Sprintf("%s_%d", base, n)
		runDir = filepath.Join(s.baseDir, meta.ID)
	}

	if err := writeRun(runDir, meta, results); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}

	return meta.ID, nil
}

func writeRun(runDir string, meta RunMetadata, results []*experiment.Result) error {
	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}
	if err := metaFile.Close(); err != nil {
		return err
	}

	csvFile, err := os.Create(filepath.Join(runDir, profilesFile))
	if err != nil {
		return err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write([]string{"case", "time", "speed", "power"}); err != nil {
		return err
	}
	for _, r := range results {
		id := strconv.Itoa(r.Case)
		for i := range r.Times {
			row := []string{
				id,
				strconv.FormatFloat(r.Times[i], 'g', -1, 64),
				strconv.FormatFloat(r.Speed[i], 'g', -1, 64),
				strconv.FormatFloat(r.Power[i], 'g', -1, 64),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return csvFile.Close()
}

// List returns the stored runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}

	return &meta, nil
}

// LoadResults rebuilds the full results of a run, profiles included.
func (s *Store) LoadResults(runID string) (*RunMetadata, []*experiment.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}

	results := make([]*experiment.Result, len(meta.Cases))
	byCase := make(map[int]*experiment.Result, len(meta.Cases))
	for i, c := range meta.Cases {
		results[i] = &experiment.Result{
			Case:      c.Case,
			Scenario:  c.Scenario,
			Root:      c.Root,
			Optimal:   c.Optimal,
			Analytic:  c.Analytic,
			FellBack:  c.FellBack,
			DPDV:      c.DPDV,
			DPDVExact: c.DPDVExact,
			Energy:    c.Energy,
		}
		byCase[c.Case] = results[i]
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, profilesFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("storage: %s: %w", profilesFile, err)
	}

	for n, rec := range records {
		if n == 0 {
			continue
		}
		var vals [4]float64
		for j := range vals {
			vals[j], err = strconv.ParseFloat(rec[j], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: %s row %d: %w", profilesFile, n+1, err)
			}
		}
		r, ok := byCase[int(vals[0])]
		if !ok {
			continue
		}
		r.Times = append(r.Times, vals[1])
		r.Speed = append(r.Speed, vals[2])
		r.Power = append(r.Power, vals[3])
	}

	return meta, results, nil
}
