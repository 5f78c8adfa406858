// SPDX-License-Identifier: GPL-3.0-or-later
package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/CrawX/go-imap-triage/domain"
	"github.com/CrawX/go-imap-triage/log"

	"github.com/sirupsen/logrus"
)

var Header = []string{"Status", "Sender", "Subject"}

// Record is one row of the metrics file, one per triaged mail in evaluation mode.
type Record struct {
	Status  domain.Verdict
	Sender  string
	Subject string
}

type Recorder struct {
	records []Record
	l       *logrus.Logger
}

func NewRecorder() *Recorder {
	return &Recorder{
		l: log.Logger(log.LOG_METRICS),
	}
}

func (r *Recorder) Append(record Record) {
	r.records = append(r.records, record)
}

func (r *Recorder) Records() []Record {
	return r.records
}

func (r *Recorder) Len() int {
	return len(r.records)
}

// Write writes the header and all records as CSV.
func (r *Recorder) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	err := cw.Write(Header)
	if err != nil {
		return fmt.Errorf("could not write metrics header: %w", err)
	}

	for _, record := range r.records {
		err = cw.Write([]string{record.Status.String(), record.Sender, record.Subject})
		if err != nil {
			return fmt.Errorf("could not write metrics record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile replaces path with the recorded metrics. Nothing is written when there are no records.
func (r *Recorder) WriteFile(path string) error {
	if len(r.records) == 0 {
		r.l.WithField("file", path).Debug("No metrics recorded, not writing file")
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create metrics file: %w", err)
	}

	err = r.Write(f)
	if err != nil {
		_ = f.Close()
		return err
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close metrics file: %w", err)
	}

	r.l.WithFields(logrus.Fields{
		"file":    path,
		"records": len(r.records),
	}).Info("Wrote metrics")
	return nil
}

// Read parses a metrics CSV. Columns are located by header name, extra columns are ignored.
func Read(rd io.Reader) ([]Record, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("metrics file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("could not read metrics header: %w", err)
	}

	columns := map[string]int{}
	for i, name := range header {
		columns[name] = i
	}
	for _, name := range Header {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("metrics file has no %s column", name)
		}
	}

	records := []Record{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read metrics record: %w", err)
		}

		records = append(records, Record{
			Status:  domain.Verdict(field(row, columns["Status"])),
			Sender:  field(row, columns["Sender"]),
			Subject: field(row, columns["Subject"]),
		})
	}

	return records, nil
}

func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open metrics file: %w", err)
	}
	defer f.Close()

	records, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	return records, nil
}

func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
