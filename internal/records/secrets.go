package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
)

// SecretsSuffix is appended to the output path to name the secrets table.
const SecretsSuffix = ".tmp"

// SecretRow is a claim private key waiting for its mint to be confirmed.
type SecretRow struct {
	EditionID       string
	PartialClaimKey string
}

// SecretsFile is the temporary table of claim private keys for the batch in
// flight. It is readable only by its owner.
type SecretsFile struct {
	path string
}

// SecretsPath returns the secrets table path belonging to an output table.
func SecretsPath(outputPath string) string {
	return outputPath + SecretsSuffix
}

// NewSecretsFile returns a handle on the secrets table at path.
func NewSecretsFile(path string) *SecretsFile {
	return &SecretsFile{path: path}
}

// Path returns the secrets table path.
func (s *SecretsFile) Path() string {
	return s.path
}

// Write replaces the table's contents with rows and syncs it to disk.
func (s *SecretsFile) Write(rows []SecretRow) error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("write secrets: %w", err)
	}

	records := make([][]string, 0, len(rows)+1)
	records = append(records, SecretColumns)
	for _, row := range rows {
		records = append(records, []string{row.EditionID, row.PartialClaimKey})
	}

	if err := writeRecords(f, records); err != nil {
		f.Close()
		return fmt.Errorf("write secrets: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write secrets: %w", err)
	}
	return nil
}

// Exists reports whether the table is present on disk.
func (s *SecretsFile) Exists() (bool, error) {
	_, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes the table. A missing table is not an error.
func (s *SecretsFile) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove secrets: %w", err)
	}
	return nil
}

// Read returns every row in the table.
func (s *SecretsFile) Read() ([]SecretRow, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("read secrets: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read secrets %s: header: %w", s.path, err)
	}
	if !slices.Equal(header, SecretColumns) {
		return nil, fmt.Errorf("read secrets %s: unexpected header %v", s.path, header)
	}

	var rows []SecretRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read secrets %s: %w", s.path, err)
		}
		rows = append(rows, SecretRow{EditionID: rec[0], PartialClaimKey: rec[1]})
	}
	return rows, nil
}
