package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/e-mutai/pesa-smart-guide/entities"
	"github.com/e-mutai/pesa-smart-guide/errs"
)

// CSVHistory reads <Dir>/<fund id>.csv files with a header row followed by
// date,value[,benchmark] records.
type CSVHistory struct {
	Dir string
}

func (CSVHistory) Name() string { return "csv" }

func (h CSVHistory) History(_ context.Context, fund entities.Fund) ([]entities.HistoricalPoint, error) {
	path := filepath.Join(h.Dir, fund.ID+".csv")
	content, err := readCsvFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("history %s: %w", fund.ID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("history %s: %w", fund.ID, err)
	}
	if len(content) < 2 {
		return nil, fmt.Errorf("history %s: %w", fund.ID, errs.ErrNotFound)
	}

	series := make([]entities.HistoricalPoint, 0, len(content)-1)
	for n, line := range content[1:] {
		if len(line) < 2 {
			return nil, fmt.Errorf("%s line %d: want date,value", path, n+2)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(line[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, n+2, err)
		}

		point := entities.HistoricalPoint{Date: strings.TrimSpace(line[0]), Value: value}
		if len(line) > 2 && strings.TrimSpace(line[2]) != "" {
			b, err := strconv.ParseFloat(strings.TrimSpace(line[2]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", path, n+2, err)
			}
			point.Benchmark = &b
		}
		series = append(series, point)
	}

	series, err = entities.NormalizeSeries(series)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return series, nil
}

func readCsvFile(filePath string) ([][]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	csvReader := csv.NewReader(f)
	csvReader.FieldsPerRecord = -1
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, err
	}

	return records, nil
}
