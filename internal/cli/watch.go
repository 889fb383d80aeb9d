package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/extract"
)

const defaultSettle = 500 * time.Millisecond

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var outDir string
	var settle time.Duration
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Segment every RFP file dropped into a directory",
		Long: `watch segments each supported file created or rewritten in <dir> and
writes <name>.questions.json next to it, or into --out when given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := &inboxWatcher{
				log:    opts.logger(),
				dir:    args[0],
				outDir: outDir,
				settle: settle,
				onDone: func(src, dst string, err error) {
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", src, err)
						return
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", src, dst)
				},
			}
			return w.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "directory for .questions.json output (default: the watched dir)")
	cmd.Flags().DurationVar(&settle, "settle", defaultSettle, "quiet period before a changed file is processed")
	return cmd
}

// inboxWatcher debounces fsnotify events per path so a file is segmented
// once it stops changing.
type inboxWatcher struct {
	log    *logger.Logger
	dir    string
	outDir string
	settle time.Duration
	onDone func(src, dst string, err error)

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

func watchable(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf", ".docx", ".doc", ".txt", ".md":
		return !strings.HasPrefix(filepath.Base(path), ".")
	default:
		return false
	}
}

func outputPath(outDir, src string) string {
	base := filepath.Base(src)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".questions.json"
	if outDir == "" {
		outDir = filepath.Dir(src)
	}
	return filepath.Join(outDir, name)
}

func (w *inboxWatcher) Run(ctx context.Context) error {
	if w.log == nil {
		w.log = logger.Nop()
	}
	if w.settle <= 0 {
		w.settle = defaultSettle
	}
	if w.outDir != "" {
		if err := os.MkdirAll(w.outDir, 0o755); err != nil {
			return err
		}
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Info("Watching inbox", "dir", w.dir, "out", w.outDir)

	defer w.wg.Wait()
	defer w.stopPending()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !watchable(ev.Name) {
				continue
			}
			w.schedule(ctx, ev.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}

func (w *inboxWatcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		w.pending = map[string]*time.Timer{}
	}
	if t, ok := w.pending[path]; ok && t.Stop() {
		t.Reset(w.settle)
		return
	}
	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.settle, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == t {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		dst, err := w.process(ctx, path)
		if w.onDone != nil {
			w.onDone(path, dst, err)
		}
	})
	w.pending[path] = t
}

func (w *inboxWatcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
}

// process segments one file and writes its questions as JSON.
func (w *inboxWatcher) process(ctx context.Context, src string) (string, error) {
	qs, err := segmentFile(ctx, w.log, src, extract.MediaTypeFor(src, ""))
	if err != nil {
		return "", err
	}
	dst := outputPath(w.outDir, src)
	f, err := os.CreateTemp(filepath.Dir(dst), ".questions-*.json")
	if err != nil {
		return "", err
	}
	if err := writeJSON(f, qs); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	if err := os.Rename(f.Name(), dst); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	w.log.Info("Segmented inbox file", "src", src, "dst", dst, "questions", len(qs))
	return dst, nil
}
