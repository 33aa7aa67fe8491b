package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/grovetools/hspdebug/command"
	"github.com/grovetools/hspdebug/errors"
	"github.com/grovetools/hspdebug/logging"
	"github.com/sirupsen/logrus"
)

// Toolchain file names, relative to the install root or the work directory.
const (
	CompilerName       = "hspcmp.exe"
	CompilerLibName    = "hspcmp.dll"
	ConsoleRuntimeName = "hsp3cl.exe"
	HelperSourceName   = "hsp3_build_cli.hsp"
	HelperObjectName   = "hsp3_build_cli.ax"
	HelperName         = "hsp3_build_cli.exe"
	ObjectName         = "start.ax"
)

// Request describes one compilation.
type Request struct {
	Program     string
	InstallRoot string
	WorkDir     string
	Trace       bool
	Encoding    EncodingMode
}

// Result is the outcome of one compilation. RawOutput is always populated
// with whatever the tools printed.
type Result struct {
	Success            bool
	RuntimeBinaryPath  string
	ObjectArtifactPath string
	RawOutput          string
}

// Options configures a Pipeline. Zero values select defaults.
type Options struct {
	Runner   *command.Runner
	Resolver RuntimeResolver
	Waiter   *ArtifactWaiter
	Logger   *logrus.Entry
}

// Pipeline compiles HSP programs with the external toolchain.
// It is safe for concurrent use; the helper for a work directory is built
// at most once at a time and remembered afterwards.
type Pipeline struct {
	runner   *command.Runner
	resolver RuntimeResolver
	waiter   ArtifactWaiter
	logger   *logrus.Entry

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	helpers map[string]string
}

// NewPipeline creates a Pipeline.
func NewPipeline(opts Options) *Pipeline {
	p := &Pipeline{
		runner:   opts.Runner,
		resolver: opts.Resolver,
		logger:   opts.Logger,
		locks:    make(map[string]*sync.Mutex),
		helpers:  make(map[string]string),
	}
	if p.runner == nil {
		p.runner = command.NewRunner(command.DefaultTimeout)
	}
	if p.resolver == nil {
		p.resolver = MarkerResolver{Default: DefaultRuntime}
	}
	if p.logger == nil {
		p.logger = logging.NewLogger("build")
	}
	if opts.Waiter != nil {
		p.waiter = *opts.Waiter
	} else {
		p.waiter = ArtifactWaiter{Attempts: 30, Interval: 100 * time.Millisecond}
	}
	if p.waiter.Logger == nil {
		p.waiter.Logger = p.logger
	}
	return p
}

// Compile builds req.Program into <dir(program)>/start.ax and selects the
// runtime that must load it.
//
// A missing compiler in the install root is reported as an error before any
// tool runs. Tool failures, including timeouts, are not errors: they yield
// a Result with Success false and the tool output.
func (p *Pipeline) Compile(ctx context.Context, req Request) (*Result, error) {
	if req.Program == "" {
		return nil, errors.LaunchInvalid("program is required")
	}
	if req.InstallRoot == "" {
		return nil, errors.LaunchInvalid("installRoot is required")
	}
	compiler := filepath.Join(req.InstallRoot, CompilerName)
	if !fileExists(compiler) {
		return nil, errors.InstallRootInvalid(req.InstallRoot, CompilerName)
	}

	mode, err := ResolveEncoding(req.Encoding, req.Program)
	if err != nil {
		return nil, errors.LaunchInvalid(fmt.Sprintf("cannot read program %s: %v", req.Program, err))
	}

	logger := p.logger.WithField("program", req.Program)
	logger.WithField("encoding", mode).Debug("Compiling program")

	helper, failure := p.ensureHelper(ctx, req)
	if failure != nil {
		return failure, nil
	}

	programDir := filepath.Dir(req.Program)
	args := append([]string{"--hsp", req.InstallRoot, "compile", req.Program}, mode.Flags()...)
	out, runErr := p.runner.Run(ctx, programDir, helper, args...)
	raw := stageOutput(out, runErr)

	result := &Result{
		Success:            runErr == nil,
		RuntimeBinaryPath:  filepath.Join(req.InstallRoot, p.resolver.ResolveRuntime(raw)),
		ObjectArtifactPath: filepath.Join(programDir, ObjectName),
		RawOutput:          raw,
	}
	logger.WithFields(logrus.Fields{
		"success": result.Success,
		"runtime": result.RuntimeBinaryPath,
	}).Info("Compile finished")
	if runErr != nil {
		logger.WithError(runErr).Debug("Compile failed")
	}
	return result, nil
}

// ensureHelper returns the helper executable for req.WorkDir, building it
// when missing or when tracing asks for a fresh build. A non-nil Result
// reports a failed bootstrap stage.
func (p *Pipeline) ensureHelper(ctx context.Context, req Request) (string, *Result) {
	workDir := req.WorkDir
	helper := filepath.Join(workDir, HelperName)

	lock := p.workDirLock(workDir)
	lock.Lock()
	defer lock.Unlock()

	if !req.Trace {
		p.mu.Lock()
		cached, ok := p.helpers[workDir]
		p.mu.Unlock()
		if ok && fileExists(cached) {
			return cached, nil
		}
		if fileExists(helper) {
			p.remember(workDir, helper)
			return helper, nil
		}
	}

	logger := p.logger.WithField("workDir", workDir)
	logger.Info("Building compile helper")

	if err := os.MkdirAll(workDir, 0755); err != nil {
		return "", &Result{RawOutput: fmt.Sprintf("cannot create work directory %s: %v", workDir, err)}
	}

	dllSrc := filepath.Join(req.InstallRoot, CompilerLibName)
	if err := copyFile(dllSrc, filepath.Join(workDir, CompilerLibName)); err != nil {
		logger.WithError(err).Warn("Failed to copy compiler library")
	}

	source := filepath.Join(workDir, HelperSourceName)
	object := filepath.Join(workDir, HelperObjectName)

	compiler := filepath.Join(req.InstallRoot, CompilerName)
	out, err := p.runner.Run(ctx, workDir, compiler, "--compath="+req.InstallRoot+"/common/", source)
	logger.WithField("output", stageOutput(out, err)).Debug("Helper object stage finished")
	if err != nil {
		return "", &Result{RawOutput: stageOutput(out, err)}
	}

	// hspcmp may return before the object file is flushed.
	if !p.waiter.Wait(ctx, object) {
		logger.WithField("object", object).Warn("Helper object file missing after wait")
	}

	runtime := filepath.Join(req.InstallRoot, ConsoleRuntimeName)
	out, err = p.runner.Run(ctx, workDir, runtime, object, "make", "--hsp", req.InstallRoot, source)
	logger.WithField("output", stageOutput(out, err)).Debug("Helper make stage finished")
	if err != nil {
		return "", &Result{RawOutput: stageOutput(out, err)}
	}

	p.remember(workDir, helper)
	return helper, nil
}

func (p *Pipeline) workDirLock(workDir string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.locks[workDir]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[workDir] = lock
	}
	return lock
}

func (p *Pipeline) remember(workDir, helper string) {
	p.mu.Lock()
	p.helpers[workDir] = helper
	p.mu.Unlock()
}

// stageOutput renders a stage's output, appending the failure when the
// tool timed out or could not be started.
func stageOutput(out *command.Output, err error) string {
	raw := rawOutput(out)
	if err == nil {
		return raw
	}
	if out == nil || out.TimedOut {
		if raw != "" {
			raw += "\r\n"
		}
		raw += err.Error()
	}
	return raw
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
