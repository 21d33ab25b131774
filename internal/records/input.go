package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/roach88/mintctl/internal/metadata"
)

// ReadInput reads a CSV file with a header row into one Map per data row,
// keyed by header name in column order.
func ReadInput(path string) ([]metadata.Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	defer f.Close()

	rows, err := readInput(f)
	if err != nil {
		return nil, fmt.Errorf("read input %s: %w", path, err)
	}
	return rows, nil
}

func readInput(r io.Reader) ([]metadata.Map, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, err
	}
	header, err = normalizeHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []metadata.Map
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		var row metadata.Map
		for i, name := range header {
			row.Set(name, record[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// normalizeHeader trims whitespace and a leading UTF-8 BOM, and rejects
// blank or repeated column names.
func normalizeHeader(header []string) ([]string, error) {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("header column %d is blank", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("header column %q appears more than once", name)
		}
		seen[name] = true
		out[i] = name
	}
	return out, nil
}
