package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/detectlab/sigma2xql/convert"
	"github.com/detectlab/sigma2xql/internal/batch"
	"github.com/detectlab/sigma2xql/internal/lint"
	"github.com/detectlab/sigma2xql/internal/store"
	"github.com/detectlab/sigma2xql/pipeline"
	"github.com/detectlab/sigma2xql/xql"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	rulesDir := flag.String("rules", getenv("S2X_RULES_DIR", "./rules"), "directory of rule files (.yml/.yaml)")
	pipelinePath := flag.String("pipeline", os.Getenv("S2X_PIPELINE"), "field mapping pipeline config (optional)")
	dsn := flag.String("dsn", os.Getenv("S2X_DB_DSN"), "postgres DSN for result persistence (optional)")
	migrationsDir := flag.String("migrations", getenv("S2X_MIGRATIONS_DIR", "./migrations"), "SQL migrations directory")
	queriesOnly := flag.Bool("q", false, "print queries only, one per line")
	jsonReport := flag.Bool("json", false, "write a JSON report to stdout")
	flag.Parse()

	p := pipeline.New(nil)
	if *pipelinePath != "" {
		b, err := os.ReadFile(*pipelinePath)
		if err != nil {
			log.Fatalf("read pipeline: %v", err)
		}
		p, err = pipeline.Load(b)
		if err != nil {
			log.Fatalf("load pipeline: %v", err)
		}
	}

	conv := convert.New(xql.DefaultDialect(), p)
	results, sum, err := batch.Run(conv, lint.New(), *rulesDir)
	if err != nil {
		log.Fatalf("convert %s: %v", *rulesDir, err)
	}

	if *dsn != "" {
		st, err := store.Open(*dsn)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
		defer st.Close()
		if err := st.RunMigrations(*migrationsDir); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		ctx := context.Background()
		runID, err := st.BeginRun(ctx, p.Name(), *rulesDir)
		if err != nil {
			log.Fatalf("begin run: %v", err)
		}
		for _, res := range results {
			if err := st.RecordResult(ctx, runID, res); err != nil {
				log.Fatalf("record result: %v", err)
			}
		}
		if err := st.FinishRun(ctx, runID, sum); err != nil {
			log.Fatalf("finish run: %v", err)
		}
		log.Printf("persisted run %d", runID)
	}

	if *jsonReport {
		if err := writeJSONReport(os.Stdout, results, sum); err != nil {
			log.Fatalf("write report: %v", err)
		}
		if sum.Failed > 0 {
			os.Exit(1)
		}
		return
	}

	for _, res := range results {
		if res.Err != nil {
			if !*queriesOnly {
				log.Printf("FAIL %s: %v", res.Path, res.Err)
			}
			continue
		}
		if *queriesOnly {
			fmt.Println(res.Query)
			continue
		}
		fmt.Printf("# %s (%s)\n%s\n", res.Title, res.Path, res.Query)
		for _, w := range res.Warnings {
			log.Printf("WARN %s: field %s value %q contains reserved token %q", res.RuleID, w.Field, w.Value, w.Token)
		}
	}

	levels := make([]string, 0, len(sum.ByLevel))
	for lv := range sum.ByLevel {
		levels = append(levels, lv)
	}
	sort.Strings(levels)
	log.Printf("files=%d rules=%d converted=%d failed=%d elapsed=%s", sum.Files, sum.Total, sum.Converted, sum.Failed, sum.Elapsed)
	for _, lv := range levels {
		log.Printf("level %s: %d", lv, sum.ByLevel[lv])
	}
	for kind, n := range sum.ByError {
		log.Printf("error %s: %d", kind, n)
	}
	if sum.Failed > 0 {
		os.Exit(1)
	}
}

type reportEntry struct {
	Path     string         `json:"path"`
	RuleID   string         `json:"rule_id,omitempty"`
	Title    string         `json:"title,omitempty"`
	Level    string         `json:"level,omitempty"`
	Query    string         `json:"query,omitempty"`
	Error    string         `json:"error,omitempty"`
	Warnings []lint.Warning `json:"warnings,omitempty"`
}

type report struct {
	Files     int            `json:"files"`
	Total     int            `json:"total"`
	Converted int            `json:"converted"`
	Failed    int            `json:"failed"`
	ByLevel   map[string]int `json:"by_level,omitempty"`
	ByError   map[string]int `json:"by_error,omitempty"`
	Results   []reportEntry  `json:"results"`
}

func writeJSONReport(w io.Writer, results []batch.Result, sum batch.Summary) error {
	rep := report{
		Files:     sum.Files,
		Total:     sum.Total,
		Converted: sum.Converted,
		Failed:    sum.Failed,
		ByLevel:   sum.ByLevel,
		ByError:   sum.ByError,
		Results:   make([]reportEntry, 0, len(results)),
	}
	for _, res := range results {
		e := reportEntry{
			Path:     res.Path,
			RuleID:   res.RuleID,
			Title:    res.Title,
			Level:    res.Level,
			Query:    res.Query,
			Warnings: res.Warnings,
		}
		if res.Err != nil {
			e.Error = res.Err.Error()
		}
		rep.Results = append(rep.Results, e)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
