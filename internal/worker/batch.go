package worker

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/clauselens/internal/logging"
	"github.com/ppiankov/clauselens/internal/model"
)

// ContractExtensions are the file types picked up from a batch directory
var ContractExtensions = []string{".txt", ".md", ".markdown", ".html", ".htm"}

// Analyzer analyzes one contract given as a file path or URL
type Analyzer interface {
	AnalyzeSource(ctx context.Context, source string) (*model.Report, error)
}

// AnalyzeJob analyzes one source
type AnalyzeJob struct {
	Index    int
	Source   string
	Analyzer Analyzer
	Limiter  *Limiter
}

// Execute runs the analysis, waiting on the per-host limiter for URLs
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	start := time.Now()
	res := &AnalyzeResult{Index: j.Index, Source: j.Source}

	if j.Limiter != nil && IsURL(j.Source) {
		if err := j.Limiter.WaitURL(ctx, j.Source); err != nil {
			res.Error = err
			return res
		}
	}

	res.Report, res.Error = j.Analyzer.AnalyzeSource(ctx, j.Source)
	res.Duration = time.Since(start)
	return res
}

// AnalyzeResult is the outcome of one batch entry
type AnalyzeResult struct {
	Index    int
	Source   string
	Report   *model.Report
	Error    error
	Duration time.Duration
}

// GetError returns the analysis error
func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many contracts on a worker pool
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	limiter     *Limiter
	logger      logrus.FieldLogger
}

// NewBatchProcessor creates a batch processor. URL sources are limited to
// requestsPerSecond per host; a non-positive rate disables limiting.
func NewBatchProcessor(analyzer Analyzer, concurrency int, requestsPerSecond float64, burst int, logger logrus.FieldLogger) *BatchProcessor {
	var limiter *Limiter
	if requestsPerSecond > 0 {
		limiter = NewLimiter(requestsPerSecond, burst)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		limiter:     limiter,
		logger:      logger,
	}
}

// ProcessSources analyzes every source and returns results in input order
func (b *BatchProcessor) ProcessSources(ctx context.Context, sources []string) []*AnalyzeResult {
	if len(sources) == 0 {
		return []*AnalyzeResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	defer pool.Shutdown()

	go func() {
		for i, src := range sources {
			if !pool.Submit(&AnalyzeJob{Index: i, Source: src, Analyzer: b.analyzer, Limiter: b.limiter}) {
				break
			}
		}
		pool.Close()
	}()

	out := make([]*AnalyzeResult, len(sources))
	for r := range pool.Results() {
		res := r.(*AnalyzeResult)
		out[res.Index] = res

		entry := b.logger.WithFields(logrus.Fields{"source": res.Source, "duration_ms": res.Duration.Milliseconds()})
		if res.Error != nil {
			entry.WithError(res.Error).Warn("batch entry failed")
		} else {
			entry.WithField("risk_score", res.Report.Result.RiskScore).Debug("batch entry analyzed")
		}
	}

	// Entries never run because the context was cancelled
	for i, res := range out {
		if res == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &AnalyzeResult{Index: i, Source: sources[i], Error: err}
		}
	}

	return out
}

// ProcessPath analyzes a directory of contracts or a list file
func (b *BatchProcessor) ProcessPath(ctx context.Context, path string) ([]*AnalyzeResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}

	var sources []string
	if info.IsDir() {
		sources, err = CollectDir(path)
		if err != nil {
			return nil, fmt.Errorf("read directory: %w", err)
		}
	} else {
		sources, err = ReadSourcesFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("read sources: %w", err)
		}
	}

	return b.ProcessSources(ctx, sources), nil
}

// ReadSourcesFromFile reads file paths and URLs, one per line. Blank lines and
// # comments are skipped, duplicates dropped, and relative paths resolved
// against the list file's directory.
func ReadSourcesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(filePath)
	var sources []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !IsURL(line) && !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}

		if !seen[line] {
			seen[line] = true
			sources = append(sources, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return sources, nil
}

// CollectDir lists contract files under dir, sorted by path
func CollectDir(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if hasContractExtension(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func hasContractExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ContractExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// IsURL reports whether source is an http(s) URL rather than a path
func IsURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
