package minter

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/mintctl/internal/records"
)

// RecoveredSuffix names recovered secrets tables: <output>.recovered-<run>.csv.
const RecoveredSuffix = ".recovered-%s.csv"

// Recovery describes claim keys moved out of an interrupted run's secrets
// table.
type Recovery struct {
	RunID string `json:"run_id"`

	// Path is the recovered table. Empty when nothing was pending.
	Path string `json:"path,omitempty"`

	// Editions lists recovered key counts per edition, in table order.
	Editions []RecoveredEdition `json:"editions"`
}

// RecoveredEdition is the number of recovered keys for one edition.
type RecoveredEdition struct {
	EditionID string `json:"edition_id"`
	Keys      int    `json:"keys"`
}

// Total returns the number of recovered keys.
func (r *Recovery) Total() int {
	n := 0
	for _, e := range r.Editions {
		n += e.Keys
	}
	return n
}

// RecoverClaimKeys moves the pending secrets table of outputPath aside so a
// new run can start. The keys may belong to items minted on the ledger but
// never recorded; they are kept, never deleted. An empty runID gets a fresh
// one.
func RecoverClaimKeys(outputPath, runID string) (*Recovery, error) {
	if outputPath == "" {
		return nil, newError(ErrCodeInvalidRequest, "output path is required")
	}

	unlock, err := records.LockOutput(outputPath)
	if err != nil {
		if errors.Is(err, records.ErrLocked) {
			return nil, &Error{Code: ErrCodeInvalidRequest, Message: "another run is writing " + outputPath, Err: err}
		}
		return nil, err
	}
	defer unlock()

	if runID == "" {
		runID = newRunID()
	}
	rec := &Recovery{RunID: runID}

	secrets := records.NewSecretsFile(records.SecretsPath(outputPath))
	pending, err := secrets.Exists()
	if err != nil {
		return nil, fmt.Errorf("check pending claim keys: %w", err)
	}
	if !pending {
		return rec, nil
	}

	rows, err := secrets.Read()
	if err != nil {
		return nil, err
	}

	rec.Path = outputPath + fmt.Sprintf(RecoveredSuffix, rec.RunID)
	if _, err := os.Stat(rec.Path); err == nil {
		return nil, fmt.Errorf("recover claim keys: %s already exists", rec.Path)
	}
	if err := records.NewSecretsFile(rec.Path).Write(rows); err != nil {
		return nil, fmt.Errorf("recover claim keys: %w", err)
	}
	if err := secrets.Remove(); err != nil {
		return nil, err
	}

	index := make(map[string]int)
	for _, row := range rows {
		i, ok := index[row.EditionID]
		if !ok {
			i = len(rec.Editions)
			index[row.EditionID] = i
			rec.Editions = append(rec.Editions, RecoveredEdition{EditionID: row.EditionID})
		}
		rec.Editions[i].Keys++
	}

	return rec, nil
}
