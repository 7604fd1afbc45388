package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"techzone-storefront/internal/config"
	"techzone-storefront/internal/db"
	"techzone-storefront/internal/importer"
	"techzone-storefront/internal/logging"
	categoryrepo "techzone-storefront/internal/repository/category"
	productrepo "techzone-storefront/internal/repository/product"
	categorysvc "techzone-storefront/internal/service/category"
	productsvc "techzone-storefront/internal/service/product"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "importer",
		Short: "Import a product or category CSV into the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd, filePath)
		},
	}
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "path to the catalog CSV")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, filePath string) error {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	kind, err := importer.DetectKind(f)
	if err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return fmt.Errorf("rewind file: %w", err)
	}

	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	imp := importer.NewCSVImporter(f,
		productsvc.New(productrepo.NewPostgres(pool, logger)),
		categorysvc.New(categoryrepo.NewPostgres(pool)),
	)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		return fmt.Errorf("import failed after %d rows: %w", count, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d %s in %s\n", count, kind, time.Since(start).Truncate(time.Millisecond))
	return nil
}
