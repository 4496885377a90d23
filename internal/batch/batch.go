// Package batch converts every rule file under a directory and reports the
// outcome per rule. One bad rule never stops the run; it is recorded and the
// walk continues.
package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/detectlab/sigma2xql/convert"
	"github.com/detectlab/sigma2xql/internal/lint"
	"github.com/detectlab/sigma2xql/sigma"
	"github.com/detectlab/sigma2xql/xql"
)

// Result is the outcome for one rule. Query is empty when Err is set.
type Result struct {
	Path     string
	RuleID   string
	Title    string
	Level    string
	Query    string
	Warnings []lint.Warning
	Err      error
	Elapsed  time.Duration
}

// Summary aggregates a run.
type Summary struct {
	Files     int
	Total     int
	Converted int
	Failed    int
	ByLevel   map[string]int
	ByError   map[string]int
	Elapsed   time.Duration
}

// errorKind buckets an error by its sentinel for reporting.
func errorKind(err error) string {
	switch {
	case errors.Is(err, xql.ErrMalformedCondition):
		return "malformed_condition"
	case errors.Is(err, xql.ErrUnsupportedComparison):
		return "unsupported_comparison"
	case errors.Is(err, xql.ErrUnsupportedLiteral):
		return "unsupported_literal"
	default:
		return "other"
	}
}

// Run walks dir recursively, converts every rule in every .yml/.yaml file,
// and returns per-rule results in deterministic path order. The error return
// covers the walk itself; rule failures live in the results.
func Run(conv *convert.Converter, linter *lint.Linter, dir string) ([]Result, Summary, error) {
	start := time.Now()

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(d.Name())
		if ext != ".yml" && ext != ".yaml" {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, Summary{}, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)

	var results []Result
	for _, path := range files {
		rs, err := loadFile(path)
		if err != nil {
			results = append(results, Result{Path: path, Err: err})
			continue
		}
		for _, r := range rs {
			results = append(results, convertOne(conv, linter, path, r))
		}
	}

	sum := Summary{
		Files:   len(files),
		ByLevel: make(map[string]int),
		ByError: make(map[string]int),
	}
	for _, res := range results {
		sum.Total++
		if res.Err != nil {
			sum.Failed++
			sum.ByError[errorKind(res.Err)]++
			continue
		}
		sum.Converted++
		level := res.Level
		if level == "" {
			level = "unspecified"
		}
		sum.ByLevel[level]++
	}
	sum.Elapsed = time.Since(start)
	return results, sum, nil
}

func loadFile(path string) ([]sigma.Rule, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	rs, err := sigma.LoadRules(b)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rs, nil
}

func convertOne(conv *convert.Converter, linter *lint.Linter, path string, r sigma.Rule) Result {
	start := time.Now()
	res := Result{
		Path:   path,
		RuleID: r.ID,
		Title:  r.Title,
		Level:  r.Level,
	}
	q, err := conv.ConvertRule(r)
	res.Elapsed = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}
	res.Query = q
	if linter != nil {
		res.Warnings = linter.CheckRule(r)
	}
	return res
}
