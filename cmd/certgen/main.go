// Command certgen renders a certificate PDF without the server: one page per
// data row over a background image, positioned by a layout preset.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/certstudio/backend/internal/export"
	"github.com/certstudio/backend/internal/fonts"
	"github.com/certstudio/backend/internal/layout"
	"github.com/certstudio/backend/internal/parser"
	"github.com/certstudio/backend/internal/preview"
	"github.com/certstudio/backend/internal/theme"
	"github.com/certstudio/backend/internal/workspace"
)

type options struct {
	dataPath       string
	backgroundPath string
	outPath        string
	preset         string
	presetsDir     string
	themeFile      string
	columns        []string
	date           string
	rowIndex       string
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "certgen: %v\n", err)
		os.Exit(2)
	}
	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "certgen: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: certgen [flags] -data <roster> -background <image>\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.dataPath, "data", "", "Roster file (.tsv, .txt, .csv or .xlsx)")
	fs.StringVar(&opts.backgroundPath, "background", "", "PNG or JPEG certificate background")
	fs.StringVar(&opts.outPath, "out", "certificates.pdf", "Output PDF path")
	fs.StringVar(&opts.preset, "preset", layout.DefaultPresetID, "Layout preset id")
	fs.StringVar(&opts.presetsDir, "presets", "", "Directory of user presets")
	fs.StringVar(&opts.themeFile, "themes", "", "Theme table (.json or .yaml)")
	columns := fs.String("columns", "", "Comma-separated columns joined into the concatenated element")
	fs.StringVar(&opts.date, "date", "", "Date printed on every certificate")
	fs.StringVar(&opts.rowIndex, "row-index", "memory", "Row index backend (memory or duckdb)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if opts.dataPath == "" {
		fs.Usage()
		return options{}, fmt.Errorf("missing -data")
	}
	if opts.backgroundPath == "" {
		fs.Usage()
		return options{}, fmt.Errorf("missing -background")
	}
	for _, c := range strings.Split(*columns, ",") {
		if c = strings.TrimSpace(c); c != "" {
			opts.columns = append(opts.columns, c)
		}
	}
	return opts, nil
}

func run(ctx context.Context, opts options) error {
	themes, err := theme.Load(opts.themeFile)
	if err != nil {
		return err
	}

	var store layout.Store
	if opts.presetsDir != "" {
		fileStore, err := layout.NewFileStore(opts.presetsDir)
		if err != nil {
			return err
		}
		store = fileStore
	}

	measurer, err := fonts.NewMeasurer()
	if err != nil {
		return err
	}
	raster, err := preview.NewRasterizer()
	if err != nil {
		return err
	}

	mgr := workspace.NewManager(workspace.Options{
		Themes:   themes,
		Presets:  layout.NewCatalog(store),
		Measurer: measurer,
		Raster:   raster,
		RowIndex: opts.rowIndex,
		TempDir:  os.TempDir(),
	})
	defer mgr.Close()

	batch, err := mgr.Create()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(opts.dataPath)
	if err != nil {
		return fmt.Errorf("reading roster: %w", err)
	}
	table, err := parser.ImportTable(filepath.Base(opts.dataPath), bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}
	if _, err := batch.SetData(ctx, table); err != nil {
		return err
	}

	bg, err := os.ReadFile(opts.backgroundPath)
	if err != nil {
		return fmt.Errorf("reading background: %w", err)
	}
	if _, err := batch.SetBackground(ctx, filepath.Base(opts.backgroundPath), bg); err != nil {
		return err
	}

	summary, err := batch.Generate(ctx, workspace.GenerateRequest{
		SelectedColumns: opts.columns,
		Date:            opts.date,
		Preset:          opts.preset,
	})
	if err != nil {
		return err
	}

	doc, err := batch.ExportDocument(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	exporter := export.NewExporter(themes, measurer)
	err = exporter.Export(ctx, doc, &buf, func(done, total int) {
		fmt.Printf("\rRendering page %d/%d", done, total)
	})
	fmt.Println()
	if err != nil {
		return err
	}

	// Written only after a complete render
	if err := os.WriteFile(opts.outPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", opts.outPath, err)
	}
	fmt.Printf("Wrote %d certificates to %s (preset %s)\n", summary.RowCount, opts.outPath, summary.Preset)
	return nil
}
