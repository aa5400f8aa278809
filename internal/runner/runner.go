// Package runner executes the solver binary and captures its progress log to
// a file, so the capture can be fed straight into the parser. It also samples
// the solver process while it runs and reports peak resource usage.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/creack/pty"
	"github.com/shirou/gopsutil/v3/process"
)

// Options configures one solver run.
type Options struct {
	Command string
	Args    []string

	// LogPath is the file the solver's combined output is written to.
	LogPath string

	// Live runs the solver under a pty and mirrors its output to Stdout
	// while teeing it to LogPath. The pty makes the solver line-buffer, so
	// progress appears as it happens instead of in 4k blocks.
	Live   bool
	Stdout io.Writer // mirror target for Live; defaults to os.Stdout

	// SampleEvery is the resource sampling interval. Defaults to 500ms.
	SampleEvery time.Duration
}

// Result describes a finished solver run.
type Result struct {
	ExitCode int
	WallTime time.Duration
	PeakRSS  uint64  // bytes
	PeakCPU  float64 // percent
}

// Run executes the solver and blocks until it exits. A non-zero solver exit
// is not an error here; callers decide what to do with Result.ExitCode.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Command == "" {
		return nil, fmt.Errorf("no solver command given")
	}
	if opts.LogPath == "" {
		return nil, fmt.Errorf("no log path given")
	}

	logFile, err := os.Create(opts.LogPath)
	if err != nil {
		return nil, fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, opts.Command, opts.Args...)
	start := time.Now()

	copyDone := make(chan struct{})
	if opts.Live {
		stdout := opts.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}
		ptmx, err := pty.Start(cmd)
		if err != nil {
			return nil, fmt.Errorf("starting solver with pty: %w", err)
		}
		defer ptmx.Close()
		go func() {
			defer close(copyDone)
			// The pty read fails with EIO once the child exits; that is the
			// normal end of stream, not a failure.
			if _, err := io.Copy(io.MultiWriter(logFile, stdout), ptmx); err != nil && !errors.Is(err, os.ErrClosed) {
				slog.Debug("pty copy ended", "error", err)
			}
		}()
	} else {
		cmd.Stdout = logFile
		cmd.Stderr = logFile
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("starting solver: %w", err)
		}
		close(copyDone)
	}

	slog.Info("solver started", "command", opts.Command, "pid", cmd.Process.Pid, "log", opts.LogPath)

	sampleDone := make(chan struct{})
	peaks := make(chan peakUsage, 1)
	go sample(cmd.Process.Pid, opts.SampleEvery, sampleDone, peaks)

	waitErr := cmd.Wait()
	close(sampleDone)
	<-copyDone

	usage := <-peaks
	res := &Result{
		WallTime: time.Since(start),
		PeakRSS:  usage.rss,
		PeakCPU:  usage.cpu,
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		res.ExitCode = 0
	case errors.As(waitErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return nil, fmt.Errorf("waiting for solver: %w", waitErr)
	}

	slog.Info("solver finished",
		"exit_code", res.ExitCode,
		"wall_time", res.WallTime,
		"peak_rss_mb", float64(res.PeakRSS)/(1024*1024))
	return res, nil
}

type peakUsage struct {
	rss uint64
	cpu float64
}

// sample polls the solver process until done closes, then sends the observed
// peak RSS and CPU usage on peaks. Sampling errors are expected around
// process exit and are ignored.
func sample(pid int, every time.Duration, done <-chan struct{}, peaks chan<- peakUsage) {
	if every <= 0 {
		every = 500 * time.Millisecond
	}
	var usage peakUsage
	defer func() { peaks <- usage }()

	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if mem, err := p.MemoryInfo(); err == nil && mem.RSS > usage.rss {
				usage.rss = mem.RSS
			}
			if cpu, err := p.CPUPercent(); err == nil && cpu > usage.cpu {
				usage.cpu = cpu
			}
		}
	}
}
