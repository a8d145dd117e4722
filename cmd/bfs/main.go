// Command bfs is a breadth-first, concurrent find(1)-workalike: see
// internal/parse for the expression grammar and internal/walk for the
// traversal engine driving it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/bfswalk/bfs/internal/cmdline"
	"github.com/bfswalk/bfs/internal/eval"
	"github.com/bfswalk/bfs/internal/expr"
	"github.com/bfswalk/bfs/internal/fsutil"
	"github.com/bfswalk/bfs/internal/parse"
	"github.com/bfswalk/bfs/internal/walk"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Signal catching for clean shutdown: SIGINT/SIGTERM cancel the
	// traversal's context, which Walk observes the next time it would
	// block on the I/O queue. This is a separate path from -quit, which
	// stops through the evaluator's Stop field.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	log := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)

	idcache := fsutil.NewIDCache()
	pool := expr.NewPool()
	defer pool.Destroy()

	ctx := cmdline.New(cmdline.WithLogger(log))

	var errs *multierror.Error
	var errMu sync.Mutex
	report := func(path string, err error) {
		errMu.Lock()
		errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
		errMu.Unlock()
		fmt.Fprintln(os.Stderr, errorLine(ctx.Color, path, err))
	}

	root, roots, err := parse.Parse(os.Args[1:], parse.Options{
		Pool:    pool,
		Ctx:     ctx,
		IDCache: idcache,
		Open:    nil,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, errorLine(ctx.Color, "parse", err))
		return 2
	}

	evalCtx := &expr.EvalContext{
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Execer:      execer,
		Now:         ctx.Now,
		NoFollow:    ctx.Symlink == walk.PolicyP,
		ReportError: report,
	}
	ev := eval.New(root, evalCtx)

	walker := walk.New(ctx.WalkOptions())
	defer walker.Destroy()

	runCtx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		log.Info().Strs("roots", roots).Msg("bfs starting")
		done <- walker.Walk(runCtx, roots, ev.Consumer())
	}()

	select {
	case <-sig:
		log.Info().Msg("bfs stopping")
		cancel()
	case walkErr := <-done:
		if walkErr != nil {
			fmt.Fprintln(os.Stderr, errorLine(ctx.Color, "walk", walkErr))
		}
		return exitCode(evalCtx, errs)
	}

	go func() {
		<-sig
		fmt.Fprintln(os.Stderr, warnLine(ctx.Color, "bfs: forcing exit"))
		os.Exit(1)
	}()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	select {
	case walkErr := <-done:
		if walkErr != nil && walkErr != context.Canceled {
			fmt.Fprintln(os.Stderr, errorLine(ctx.Color, "walk", walkErr))
		}
	case <-shutdownCtx.Done():
		fmt.Fprintln(os.Stderr, warnLine(ctx.Color, "bfs: shutdown timed out"))
	}

	return exitCode(evalCtx, errs)
}

func exitCode(ctx *expr.EvalContext, errs *multierror.Error) int {
	if ctx.ExitCode != 0 {
		return ctx.ExitCode
	}
	if errs != nil && len(errs.Errors) > 0 {
		return 1
	}
	return 0
}
