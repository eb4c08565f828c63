package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"fleetfaults/internal/config"
	"fleetfaults/internal/formats"
	"fleetfaults/internal/listener"
	"fleetfaults/internal/logging"
	"fleetfaults/internal/pipeline"
	"fleetfaults/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "ingest":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "workbook to ingest (.xlsx, .xls html export, .eml)")
		format := fs.String("format", "", "format key; resolved from the file when empty")
		out := fs.String("out", "", "write records, summary and issues to this xlsx")
		jsonOut := fs.String("json", "", "write records as JSON to this path, - for stdout")
		noLedger := fs.Bool("no-ledger", false, "do not record the run in the ledger")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}

		reg := loadRegistry(cfg)
		opts := []pipeline.ServiceOption{}
		if !*noLedger {
			db, err := storage.Open(cfg.DBPath)
			must(err)
			defer db.Close()
			opts = append(opts, pipeline.WithLedger(db))
		}
		svc := pipeline.NewProcessingService(reg, pipeline.NewFactory(reg), opts...)
		res, err := svc.ProcessFile(*file, *format)
		must(err)

		rep := res.Report
		fmt.Printf("ingested %s format=%s run=%s rows=%d accepted=%d rejected=%d sheets=%d\n",
			filepath.Base(*file), rep.FormatKey, rep.RunID, rep.TotalRows, rep.AcceptedRows, rep.RejectedRowCount, rep.TotalSheets)
		for _, sheet := range res.Collection.Sheets() {
			fmt.Printf("  %-24s %d\n", sheet, rep.PerSheetCounts[sheet])
		}
		if len(rep.SkippedSheets) > 0 {
			fmt.Printf("  skipped sheets: %s\n", strings.Join(rep.SkippedSheets, ", "))
		}

		if *out != "" {
			must(pipeline.ExportCollectionToXLSX(res.Collection, rep, *out, res.Spec.OutputDateLayout()))
			fmt.Printf("exported %d records to %s\n", res.Collection.Len(), *out)
		}
		switch *jsonOut {
		case "":
		case "-":
			must(pipeline.WriteCollectionJSON(os.Stdout, res.Collection, rep))
		default:
			f, err := os.Create(*jsonOut)
			must(err)
			must(pipeline.WriteCollectionJSON(f, res.Collection, rep))
			must(f.Close())
		}
	case "formats":
		reg := loadRegistry(cfg)
		for _, spec := range reg.All() {
			fmt.Printf("%s (processor=%s, domain=%s)\n", spec.Key(), spec.Family(), spec.Domain())
			if d := spec.Description(); d != "" {
				fmt.Printf("  %s\n", d)
			}
			if sheets := spec.Sheets(); len(sheets) > 0 {
				fmt.Printf("  sheets: %s\n", strings.Join(sheets, ", "))
			}
			fmt.Printf("  header row: %d, columns: %d, required: %s\n", spec.HeaderRow(), len(spec.Columns()), strings.Join(spec.RequiredColumns(), ", "))
			fmt.Printf("  transforms: %s\n", strings.Join(spec.Transforms(), ", "))
		}
		for _, m := range reg.Mappings() {
			fmt.Printf("file pattern %q -> %s\n", m.Pattern, m.Format)
		}
	case "check-config":
		reg := loadRegistry(cfg)
		must(pipeline.NewFactory(reg).Check())
		fmt.Printf("config ok: %d formats\n", len(reg.Keys()))
	case "runs":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "number of runs")
		_ = fs.Parse(os.Args[2:])
		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()
		runs, err := db.ListRuns(*limit)
		must(err)
		for _, r := range runs {
			fmt.Printf("%s %s format=%s file=%d total=%d accepted=%d rejected=%d ms=%.0f\n",
				r.CreatedAt, r.TraceID, r.FormatKey, r.FileID, r.Counts["total"], r.Counts["accepted"], r.Counts["rejected"], r.Timings["totalMs"])
		}
	case "watch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		once := fs.Bool("once", false, "scan the inbox once and exit")
		_ = fs.Parse(os.Args[2:])
		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()
		reg := loadRegistry(cfg)
		proc := pipeline.NewProcessingService(reg, pipeline.NewFactory(reg), pipeline.WithLedger(db))
		s := listener.NewService(proc, db, cfg, nil)
		if *once {
			res, err := s.RunCycle(context.Background())
			must(err)
			fmt.Printf("watch cycle seen=%d processed=%d failed=%d skipped=%d\n", res.Seen, res.Processed, res.Failed, res.Skipped)
			return
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		must(s.Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func loadRegistry(cfg config.Config) *formats.Registry {
	var reg *formats.Registry
	var err error
	if cfg.FormatsPath != "" {
		reg, err = formats.Load(cfg.FormatsPath)
	} else {
		reg, err = formats.LoadDefault()
	}
	must(err)
	return reg
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  fleetfaults ingest --file <path> [--format <key>] [--out <xlsx>] [--json <path|->] [--no-ledger]")
	fmt.Println("  fleetfaults formats")
	fmt.Println("  fleetfaults check-config")
	fmt.Println("  fleetfaults runs [--limit 20]")
	fmt.Println("  fleetfaults watch [--once]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
