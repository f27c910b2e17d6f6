// Command export loads the dataset once and writes the combined daily table
// to CSV or parquet for offline analysis.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"example.com/fitdash/internal/config"
	"example.com/fitdash/internal/dataset"
	"example.com/fitdash/internal/export"
)

func main() {
	var (
		out    = flag.String("out", "daily_combined.parquet", "output file path")
		format = flag.String("format", "parquet", "output format: parquet|csv")
	)
	flag.Parse()

	cfg := config.Load()

	tables, err := dataset.Load(context.Background(), cfg.Sources)
	if err != nil {
		log.Fatalf("load dataset: %v", err)
	}

	switch *format {
	case "csv":
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("create %s: %v", *out, err)
		}
		if err := export.WriteCSV(f, tables.Combined); err != nil {
			f.Close()
			log.Fatalf("write csv: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("close %s: %v", *out, err)
		}
	case "parquet":
		if err := export.WriteParquet(*out, tables.Combined); err != nil {
			log.Fatalf("write parquet: %v", err)
		}
	default:
		log.Fatalf("unsupported format %q (expected parquet|csv)", *format)
	}

	fmt.Printf("wrote %d combined rows to %s\n", len(tables.Combined), *out)
}
