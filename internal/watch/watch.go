// Package watch live-reloads a mini-notation source file: every write
// to the watched file is re-evaluated and handed to the scheduler as a
// pending pattern, the same way a REPL's "update" keystroke would.
package watch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/chase3718/strudel-go/pkg/diag"
	"github.com/chase3718/strudel-go/pkg/mini"
	"github.com/chase3718/strudel-go/pkg/rational"
	"github.com/chase3718/strudel-go/pkg/scheduler"
)

// Watcher re-evaluates a source file on every write and plays the
// resulting pattern, or a control command, against a scheduler.
type Watcher struct {
	path   string
	sched  *scheduler.Scheduler
	diags  diag.Sink
	logger *slog.Logger
}

// New builds a Watcher for path, driving sched. Diagnostics are always
// logged as warnings; a nil diags means they are only logged.
func New(path string, sched *scheduler.Scheduler, diags diag.Sink, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{path: path, sched: sched, diags: diags, logger: logger}
}

// Run evaluates the file once immediately, then blocks watching it for
// writes until stop is closed. It watches the file's parent directory
// rather than the file itself, since editors commonly replace a file
// (rename+create) on save rather than writing it in place.
func (w *Watcher) Run(stop <-chan struct{}) error {
	w.reload()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch: watch %s: %w", dir, err)
	}

	abs, _ := filepath.Abs(w.path)
	for {
		select {
		case <-stop:
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			evAbs, _ := filepath.Abs(ev.Name)
			if evAbs != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.report(diag.New(diag.EvalError, err.Error()))
		}
	}
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.report(diag.New(diag.EvalError, fmt.Sprintf("read %s: %v", w.path, err)))
		return
	}
	src := string(data)
	p, cmd, d := mini.EvaluateDiag(src)
	if d != nil {
		w.report(*d)
		return
	}
	if cmd != nil {
		applyCommand(w.sched, *cmd)
		return
	}
	w.logger.Info("watch: reloaded pattern", "path", w.path)
	w.sched.Play(p)
}

func applyCommand(sched *scheduler.Scheduler, cmd mini.Command) {
	switch cmd.Kind {
	case mini.CmdHush:
		sched.Stop()
	case mini.CmdSetCPS:
		sched.SetCPS(rational.FromFloat(cmd.Value))
	case mini.CmdSetBPM:
		// 4 beats/cycle: 120 BPM == 0.5 cps.
		sched.SetCPS(rational.FromFloat(cmd.Value / 120.0 / 2.0))
	}
}

func (w *Watcher) report(d diag.Diagnostic) {
	w.logger.Warn("watch: diagnostic", "kind", d.Kind.String(), "msg", d.Message)
	if w.diags != nil {
		w.diags.Report(d)
	}
}
