package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/cruisesim/internal/config"
	"github.com/san-kum/cruisesim/internal/dynamo"
)

var (
	ErrFieldCount = errors.New("dataset: expected 5 fields")
	ErrBadNumber  = errors.New("dataset: malformed number")
)

// ParseError describes a skipped line.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Generate draws cfg.Cases scenarios with c1, c2 and v0 uniform in their
// configured ranges. The same non-zero seed always yields the same cases.
func Generate(cfg config.GeneratorConfig) []dynamo.Scenario {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	uniform := func(lo, hi float64) float64 {
		return lo + rng.Float64()*(hi-lo)
	}

	cases := make([]dynamo.Scenario, cfg.Cases)
	for i := range cases {
		cases[i] = dynamo.Scenario{
			C1:            uniform(cfg.C1Min, cfg.C1Max),
			C2:            uniform(cfg.C2Min, cfg.C2Max),
			V0:            uniform(cfg.V0Min, cfg.V0Max),
			Tolerance:     cfg.Tolerance,
			MaxIterations: cfg.MaxIterations,
		}
	}
	return cases
}

func Write(w io.Writer, cases []dynamo.Scenario) error {
	bw := bufio.NewWriter(w)
	for _, s := range cases {
		if _, err := fmt.Fprintf(bw, "%s %s %s %s %d\n",
			formatFloat(s.C1), formatFloat(s.C2), formatFloat(s.V0), formatFloat(s.Tolerance), s.MaxIterations); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func WriteFile(path string, cases []dynamo.Scenario) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, cases); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Parse reads scenarios from r. Malformed lines are returned as ParseErrors
// and skipped; the error result is reserved for read failures.
func Parse(r io.Reader) ([]dynamo.Scenario, []*ParseError, error) {
	var (
		cases   []dynamo.Scenario
		skipped []*ParseError
	)

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		s, err := parseLine(text)
		if err != nil {
			skipped = append(skipped, &ParseError{Line: lineNo, Text: text, Err: err})
			continue
		}
		cases = append(cases, s)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("dataset: read: %w", err)
	}

	return cases, skipped, nil
}

func ReadFile(path string) ([]dynamo.Scenario, []*ParseError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return Parse(f)
}

func parseLine(text string) (dynamo.Scenario, error) {
	fields := strings.Fields(text)
	if len(fields) != 5 {
		return dynamo.Scenario{}, fmt.Errorf("%w, got %d", ErrFieldCount, len(fields))
	}

	var vals [4]float64
	for i := range vals {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return dynamo.Scenario{}, fmt.Errorf("%w: %s", ErrBadNumber, fields[i])
		}
		vals[i] = v
	}

	// the iteration cap may be written as a float by other generators
	iter, err := strconv.ParseFloat(fields[4], 64)
	if err != nil || iter != float64(int(iter)) {
		return dynamo.Scenario{}, fmt.Errorf("%w: %s", ErrBadNumber, fields[4])
	}

	return dynamo.Scenario{
		C1:            vals[0],
		C2:            vals[1],
		V0:            vals[2],
		Tolerance:     vals[3],
		MaxIterations: int(iter),
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
