package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/orderpulse/internal/ingest/domain"
)

const dateLayout = "2006-01-02"

// row is one CSV record with header-based field access.
type row struct {
	file   string
	number int
	index  map[string]int
	fields []string
}

func (r row) get(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r row) float(column string) (float64, error) {
	raw := r.get(column)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &domain.ParseError{File: r.file, Row: r.number, Err: fmt.Errorf("%s: invalid number %q", column, raw)}
	}
	return v, nil
}

func (r row) int(column string) (int, error) {
	raw := r.get(column)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ParseError{File: r.file, Row: r.number, Err: fmt.Errorf("%s: invalid integer %q", column, raw)}
	}
	return v, nil
}

func (r row) date(column string) (time.Time, error) {
	raw := r.get(column)
	if raw == "" {
		return time.Time{}, nil
	}
	v, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, &domain.ParseError{File: r.file, Row: r.number, Err: fmt.Errorf("%s: invalid date %q", column, raw)}
	}
	return v, nil
}

func (r row) require(column string) (string, error) {
	v := r.get(column)
	if v == "" {
		return "", &domain.ParseError{File: r.file, Row: r.number, Err: fmt.Errorf("%s is required", column)}
	}
	return v, nil
}

// readCSV streams file rows through parse. The first record is the
// header; every other record must have the same arity (encoding/csv
// enforces that).
func readCSV(path string, parse func(row) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err == io.EOF {
		return &domain.ParseError{File: path, Row: 0, Err: domain.ErrMissingHeader}
	}
	if err != nil {
		return err
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for number := 1; ; number++ {
		fields, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &domain.ParseError{File: path, Row: number, Err: err}
		}
		if err := parse(row{file: path, number: number, index: index, fields: fields}); err != nil {
			return err
		}
	}
}
