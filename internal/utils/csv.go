package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"momentumBot/internal/domain"
	"momentumBot/internal/ports"
)

var barsHeader = []string{"open_time", "symbol", "interval", "open", "high", "low", "close", "volume"}

// WriteBarsToCSV writes bars to filename, creating parent directories as needed.
func WriteBarsToCSV(bars []*domain.Bar, filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory '%s': %w", dir, err)
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteBars(file, bars); err != nil {
		return err
	}
	return file.Close()
}

// WriteBars encodes bars as CSV with a header row.
func WriteBars(w io.Writer, bars []*domain.Bar) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(barsHeader); err != nil {
		return err
	}
	for _, b := range bars {
		if b == nil {
			continue
		}
		if err := writer.Write([]string{
			b.OpenTime.UTC().Format(time.RFC3339),
			b.Symbol,
			b.Interval,
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadBarsFromCSV reads bars previously written by WriteBarsToCSV.
func ReadBarsFromCSV(filename string) ([]*domain.Bar, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadBars(file)
}

// ReadBars decodes CSV produced by WriteBars. A row whose close cannot be parsed
// fails with ports.ErrMalformedBar.
func ReadBars(r io.Reader) ([]*domain.Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(barsHeader)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(header[0]), barsHeader[0]) {
		return nil, fmt.Errorf("unexpected header %v", header)
	}

	var bars []*domain.Bar
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bar, err := parseBarRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseBarRecord(record []string) (*domain.Bar, error) {
	openTime, err := time.Parse(time.RFC3339, record[0])
	if err != nil {
		return nil, fmt.Errorf("parsing open_time '%s': %w", record[0], err)
	}
	values := make([]float64, 5)
	for i, raw := range record[3:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			if barsHeader[3+i] == "close" {
				return nil, fmt.Errorf("parsing close '%s': %w: %w", raw, ports.ErrMalformedBar, err)
			}
			return nil, fmt.Errorf("parsing %s '%s': %w", barsHeader[3+i], raw, err)
		}
		values[i] = v
	}
	return &domain.Bar{
		OpenTime: openTime,
		Symbol:   record[1],
		Interval: record[2],
		Open:     values[0],
		High:     values[1],
		Low:      values[2],
		Close:    values[3],
		Volume:   values[4],
	}, nil
}
