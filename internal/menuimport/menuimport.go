// Package menuimport loads restaurant menu availability from gzipped CSV
// files on local disk or S3 and writes it to the database.
package menuimport

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"star-burger/internal/model"
)

// Loader reads a menu file.
type Loader interface {
	// Load reads a gzipped CSV file of restaurant_id,product_id,availability rows.
	Load(ctx context.Context, path string) ([]model.MenuItem, error)
}

// ErrEmptyFile is returned when a file holds no menu rows.
var ErrEmptyFile = errors.New("menu file has no rows")

// Parse decodes gzipped CSV menu rows. A leading header row is skipped.
func Parse(ctx context.Context, r io.Reader) ([]model.MenuItem, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	reader := csv.NewReader(gz)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var items []model.MenuItem
	for line := 1; ; line++ {
		if line%10_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "restaurant_id") {
			continue
		}

		item, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, ErrEmptyFile
	}

	return items, nil
}

func parseRecord(record []string) (model.MenuItem, error) {
	restaurantID, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil {
		return model.MenuItem{}, fmt.Errorf("invalid restaurant_id %q", record[0])
	}
	productID, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
	if err != nil {
		return model.MenuItem{}, fmt.Errorf("invalid product_id %q", record[1])
	}
	available, err := strconv.ParseBool(strings.TrimSpace(record[2]))
	if err != nil {
		return model.MenuItem{}, fmt.Errorf("invalid availability %q", record[2])
	}

	return model.MenuItem{
		RestaurantID: restaurantID,
		ProductID:    productID,
		Availability: available,
	}, nil
}
