package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tcx-health/scanbar/internal/product"
	"github.com/tcx-health/scanbar/internal/scan"
)

// scanCmd represents the scan command.
var scanCmd = &cobra.Command{
	Use:   "scan [image files...]",
	Short: "Decode barcodes from image files",
	Long: `Decode a 1-D barcode from one or more image files (JPEG, PNG, GIF,
BMP or WebP). With --lookup the decoded code is resolved against the
product database.

Examples:
  scanbar scan photo.jpg
  scanbar scan photo.jpg --lookup
  scanbar scan *.jpg --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		withLookup, _ := cmd.Flags().GetBool("lookup")
		format, _ := cmd.Flags().GetString("format")
		maxWidth := cfg.Pipeline.MaxWidth
		if cmd.Flags().Changed("max-width") {
			maxWidth, _ = cmd.Flags().GetInt("max-width")
		}
		if format != "json" && format != "text" {
			return fmt.Errorf("invalid output format %q (use json or text)", format)
		}

		builder := scan.NewBuilder().
			WithMaxWidth(maxWidth).
			WithTryHarder(cfg.Pipeline.TryHarder).
			WithFormats(cfg.DecodeFormats())
		if withLookup && cfg.Resolver.Enabled {
			opts := []product.ClientOption{
				product.WithBaseURL(cfg.Resolver.BaseURL),
				product.WithTimeout(time.Duration(cfg.Resolver.TimeoutSec) * time.Second),
			}
			if cfg.Resolver.UserAgent != "" {
				opts = append(opts, product.WithUserAgent(cfg.Resolver.UserAgent))
			}
			builder = builder.WithResolver(product.NewClient(opts...))
		}
		pipeline, err := builder.Build()
		if err != nil {
			return fmt.Errorf("building scan pipeline: %w", err)
		}

		var failed int
		for _, path := range args {
			if err := scanFile(cmd, pipeline, path, withLookup, format); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(args))
		}
		return nil
	},
}

func scanFile(cmd *cobra.Command, pipeline *scan.Pipeline, path string, withLookup bool, format string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	result, err := pipeline.Scan(cmd.Context(), data, "", withLookup)
	if err != nil {
		return err
	}

	if format == "json" {
		out := struct {
			File string `json:"file"`
			*scan.Result
		}{File: path, Result: result}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, result.Barcode)
	if withLookup {
		switch result.ProductStatus {
		case scan.ProductFound:
			fmt.Fprintf(cmd.OutOrStdout(), "  product: %s (%s)\n", result.Product.Name, result.Product.Brands)
		case scan.ProductNotFound:
			fmt.Fprintln(cmd.OutOrStdout(), "  product: not found")
		case scan.ProductUnavailable:
			fmt.Fprintln(cmd.OutOrStdout(), "  product: lookup unavailable")
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Bool("lookup", false, "resolve the decoded barcode against the product database")
	scanCmd.Flags().String("format", "text", "output format (text, json)")
	scanCmd.Flags().Int("max-width", 0, "override the normalization width bound")
}
