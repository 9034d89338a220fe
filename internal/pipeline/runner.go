package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// importDir is the subdirectory scanned for incoming statement files.
const importDir = "import"

// processedDir is where successfully posted files are moved.
const processedDir = "import/processed"

// FileInfo describes a statement file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Scan returns statement files (.csv and .txt) in <repoRoot>/import/.
func Scan(repoRoot string) ([]FileInfo, error) {
	dir := filepath.Join(repoRoot, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if !strings.HasSuffix(name, ".csv") && !strings.HasSuffix(name, ".txt") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, importDir, fileName)
	dstDir := filepath.Join(repoRoot, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}

// Runner processes every file in the import directory through a Pipeline,
// documents in parallel. Posting itself serializes inside the ledger store.
type Runner struct {
	pipeline *Pipeline
	repoRoot string
	workers  int
	log      zerolog.Logger

	// RunID tags one ingestion run across logs and audit commits.
	RunID string
}

// NewRunner creates a Runner. workers <= 0 means one per CPU.
func NewRunner(p *Pipeline, repoRoot string, workers int, log zerolog.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{
		pipeline: p,
		repoRoot: repoRoot,
		workers:  workers,
		log:      log,
		RunID:    uuid.NewString(),
	}
}

// Run scans the import directory and processes every file. Documents that
// post (or turn out to be already posted) move to import/processed/; rejected
// documents stay in import/ so the operator can fix and retry them. Per-file
// extraction failures do not abort the batch; they surface in that file's
// Outcome. Outcomes come back sorted by file name.
func (r *Runner) Run(ctx context.Context) ([]Outcome, error) {
	files, err := Scan(r.repoRoot)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	log := r.log.With().Str("run_id", r.RunID).Logger()
	log.Info().Int("files", len(files)).Int("workers", r.workers).Msg("ingestion run started")

	var (
		mu       sync.Mutex
		outcomes []Outcome
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, file := range files {
		file := file
		g.Go(func() error {
			data, err := os.ReadFile(file.Path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", file.Name, err)
			}

			out, err := r.pipeline.Process(ctx, Document{Name: file.Name, Bytes: data})
			if err != nil {
				return err
			}

			if out.Posted || out.AlreadyPosted {
				if err := MarkProcessed(r.repoRoot, file.Name); err != nil {
					return err
				}
			}

			mu.Lock()
			outcomes = append(outcomes, out)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Name < outcomes[j].Name })

	posted := 0
	for _, out := range outcomes {
		if out.Posted {
			posted++
		}
	}
	log.Info().Int("posted", posted).Int("total", len(outcomes)).Msg("ingestion run finished")

	return outcomes, nil
}
