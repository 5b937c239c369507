package cmd

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/spiffcs/cherrypick/internal/log"
)

// Profiler writes the CPU, heap and execution-trace profiles requested on
// the command line. Empty paths disable the corresponding profile.
type Profiler struct {
	cpuPath   string
	memPath   string
	tracePath string

	cpuFile   *os.File
	traceFile *os.File
}

// NewProfiler creates a profiler for the given output paths.
func NewProfiler(cpuPath, memPath, tracePath string) *Profiler {
	return &Profiler{cpuPath: cpuPath, memPath: memPath, tracePath: tracePath}
}

// Start begins CPU profiling and tracing. On error nothing is left running.
func (p *Profiler) Start() error {
	if p.cpuPath != "" {
		f, err := os.Create(p.cpuPath)
		if err != nil {
			return fmt.Errorf("create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			return errors.Join(fmt.Errorf("start CPU profile: %w", err), f.Close())
		}
		p.cpuFile = f
	}

	if p.tracePath != "" {
		f, err := os.Create(p.tracePath)
		if err != nil {
			p.stopCPU()
			return fmt.Errorf("create trace: %w", err)
		}
		if err := trace.Start(f); err != nil {
			p.stopCPU()
			return errors.Join(fmt.Errorf("start trace: %w", err), f.Close())
		}
		p.traceFile = f
	}

	return nil
}

// Stop ends profiling and writes the heap profile. Failures are logged.
func (p *Profiler) Stop() {
	if p.traceFile != nil {
		trace.Stop()
		closeProfile("trace", p.traceFile)
		p.traceFile = nil
	}

	p.stopCPU()

	if p.memPath == "" {
		return
	}
	f, err := os.Create(p.memPath)
	if err != nil {
		log.Warn("could not create memory profile", "path", p.memPath, "error", err)
		return
	}
	defer closeProfile("memory profile", f)

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Warn("could not write memory profile", "error", err)
	}
}

func (p *Profiler) stopCPU() {
	if p.cpuFile == nil {
		return
	}
	pprof.StopCPUProfile()
	closeProfile("CPU profile", p.cpuFile)
	p.cpuFile = nil
}

func closeProfile(kind string, f *os.File) {
	if err := f.Close(); err != nil {
		log.Warn("could not close "+kind, "path", f.Name(), "error", err)
	}
}
