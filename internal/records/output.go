package records

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/roach88/mintctl/internal/metadata"
)

// ErrOutOfOrder is returned when a batch is written out of sequence.
var ErrOutOfOrder = errors.New("batch written out of order")

// OutputRow is one row of the output table: the reserved identity columns
// plus the edition's prepared metadata.
type OutputRow struct {
	ID            string
	EditionID     string
	EditionLimit  string
	TransactionID string
	SerialNumber  string
	ClaimKey      string
	Metadata      metadata.Map
}

func (r OutputRow) record(fields []string) []string {
	rec := make([]string, 0, len(ReservedOutputColumns)+len(fields))
	rec = append(rec, r.ID, r.EditionID, r.EditionLimit, r.TransactionID, r.SerialNumber, r.ClaimKey)
	for _, f := range fields {
		rec = append(rec, r.Metadata.Value(f))
	}
	return rec
}

// OutputWriter appends batches of rows to the output table.
//
// A writer opened on an existing file continues it (the header must match);
// otherwise the file and its header are created on the first write.
type OutputWriter struct {
	path    string
	fields  []string
	columns []string
	batches int
	rows    int
}

// OpenOutput prepares a writer for path with the given metadata fields.
// No file is created until the first WriteBatch.
func OpenOutput(path string, fields []string) (*OutputWriter, error) {
	w := &OutputWriter{
		path:    path,
		fields:  append([]string(nil), fields...),
		columns: OutputColumns(fields),
	}

	header, err := readHeader(path)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	if header != nil && !slices.Equal(header, w.columns) {
		return nil, fmt.Errorf("open output %s: existing header %v does not match %v", path, header, w.columns)
	}
	return w, nil
}

// Path returns the output file path.
func (w *OutputWriter) Path() string {
	return w.path
}

// Batches returns the number of batches written by this writer.
func (w *OutputWriter) Batches() int {
	return w.batches
}

// Rows returns the number of rows written by this writer.
func (w *OutputWriter) Rows() int {
	return w.rows
}

// WriteBatch appends rows as batch number seq (0-based, per writer). The
// rows are synced to disk before WriteBatch returns.
func (w *OutputWriter) WriteBatch(seq int, rows []OutputRow) error {
	if seq != w.batches {
		return fmt.Errorf("write batch %d: %w (next is %d)", seq, ErrOutOfOrder, w.batches)
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("write batch %d: %w", seq, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("write batch %d: %w", seq, err)
	}

	records := make([][]string, 0, len(rows)+1)
	if info.Size() == 0 {
		records = append(records, w.columns)
	}
	for _, row := range rows {
		records = append(records, row.record(w.fields))
	}

	if err := writeRecords(f, records); err != nil {
		f.Close()
		return fmt.Errorf("write batch %d: %w", seq, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write batch %d: %w", seq, err)
	}

	w.batches++
	w.rows += len(rows)
	return nil
}

// ReadOutput reads every row of an output table.
func ReadOutput(path string) ([]OutputRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read output %s: header: %w", path, err)
	}
	if len(header) < len(ReservedOutputColumns) || !slices.Equal(header[:len(ReservedOutputColumns)], ReservedOutputColumns) {
		return nil, fmt.Errorf("read output %s: not an output table", path)
	}
	fields := header[len(ReservedOutputColumns):]

	var rows []OutputRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read output %s: %w", path, err)
		}

		row := OutputRow{
			ID:            rec[0],
			EditionID:     rec[1],
			EditionLimit:  rec[2],
			TransactionID: rec[3],
			SerialNumber:  rec[4],
			ClaimKey:      rec[5],
		}
		for i, name := range fields {
			row.Metadata.Set(name, rec[len(ReservedOutputColumns)+i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// readHeader returns the first CSV record of path, or nil if the file does
// not exist or is empty.
func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := csv.NewReader(bufio.NewReader(f)).Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	return header, nil
}

// writeRecords writes CSV records and syncs the file.
func writeRecords(f *os.File, records [][]string) error {
	cw := csv.NewWriter(f)
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return f.Sync()
}
