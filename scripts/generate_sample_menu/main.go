package main

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

// generateSampleMenu writes data/menus/menu.csv.gz for import-menu.
// Restaurants 1 and 2 cook products 1-3; restaurant 3 is out of product 3.
func main() {
	dataDir := "data/menus"

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	rows := [][3]int64{
		{1, 1, 1}, {1, 2, 1}, {1, 3, 1},
		{2, 1, 1}, {2, 2, 1}, {2, 3, 1},
		{3, 1, 1}, {3, 2, 1}, {3, 3, 0},
	}

	filePath := filepath.Join(dataDir, "menu.csv.gz")
	if err := createMenuFile(filePath, rows); err != nil {
		log.Fatalf("Failed to create %s: %v", filePath, err)
	}

	fmt.Printf("Created %s with %d rows\n", filePath, len(rows))
	fmt.Println("\nImport with:")
	fmt.Printf("  go run ./cmd/api import-menu %s\n", filePath)
}

func createMenuFile(filePath string, rows [][3]int64) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	w := csv.NewWriter(gzipWriter)
	if err := w.Write([]string{"restaurant_id", "product_id", "availability"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			strconv.FormatInt(row[0], 10),
			strconv.FormatInt(row[1], 10),
			strconv.FormatBool(row[2] == 1),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()

	return w.Error()
}
