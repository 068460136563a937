package menuimport

import (
	"context"
	"fmt"
	"os"

	"star-burger/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for gzipped menu files on local disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based menu loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "menu-loader").Logger(),
	}
}

// Load reads a gzipped menu file from disk.
func (l *fileLoader) Load(ctx context.Context, filePath string) ([]model.MenuItem, error) {
	l.logger.Info().Str("file", filePath).Msg("loading menu file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open menu file")
		return nil, fmt.Errorf("failed to open menu file %s: %w", filePath, err)
	}
	defer file.Close()

	items, err := Parse(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to read menu file")
		return nil, fmt.Errorf("failed to read menu file %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("rows_loaded", len(items)).
		Msg("menu file loaded successfully")

	return items, nil
}
