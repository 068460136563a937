package main

import (
	"fmt"

	"star-burger/internal/menuimport"
	"star-burger/internal/repository"

	"github.com/spf13/cobra"
)

func newGeocodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "geocode ADDRESS...",
		Short: "Resolve addresses through the coordinate cache and print them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			resolved, err := a.geocache().ResolveMany(ctx, args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, address := range args {
				if coords, ok := resolved[address]; ok {
					fmt.Fprintf(out, "%s\t%s\n", address, coords)
				} else {
					fmt.Fprintf(out, "%s\tnot found\n", address)
				}
			}
			return nil
		},
	}
}

func newImportMenuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-menu PATH",
		Short: "Import restaurant menu availability from a gzipped CSV file",
		Long: "Reads restaurant_id,product_id,availability rows from PATH. When S3 is\n" +
			"enabled the object S3_PREFIX+PATH is tried first, then the local file.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			fileLoader := menuimport.NewFileLoader(a.logger)
			var s3Loader menuimport.Loader
			if a.cfg.S3.Enabled {
				s3Loader, err = menuimport.NewS3Loader(ctx, a.cfg.S3.Bucket, a.cfg.S3.Region, a.logger)
				if err != nil {
					a.logger.Warn().
						Err(err).
						Msg("failed to initialise S3 loader, falling back to local file system only")
				}
			}
			loader := menuimport.NewFallbackLoader(s3Loader, fileLoader, a.cfg.S3.Prefix, a.cfg.S3.Enabled, a.logger)

			n, err := menuimport.NewImporter(loader, a.products, a.restaurants, a.logger).Import(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d menu rows\n", n)
			return nil
		},
	}
}

func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the database schema if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := repository.CreateSchema(cmd.Context(), a.pool); err != nil {
				return err
			}
			a.logger.Info().Msg("database schema ready")
			return nil
		},
	}
}
