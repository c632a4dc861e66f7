// Package agent runs one worker (or planner) subprocess invocation
// against a prompt, captures its output, and extracts a digest of
// what it did. Run itself never touches the store; InvokeIssue wraps
// Run with the store-side protocol (run directories, comments, close
// detection, retry blocking).
package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Mode selects how the subprocess's output is interpreted.
type Mode string

const (
	// ModeStream expects line-delimited JSON events on stdout, ending
	// in a terminal "result" event.
	ModeStream Mode = "stream"
	// ModeCapture expects a single completion payload; stdout/stderr
	// are captured as plain text.
	ModeCapture Mode = "capture"
)

// maxCapturedLines bounds memory use on a runaway or very chatty
// subprocess, mirroring the teacher's own output cap.
const maxCapturedLines = 10000

// Config describes one subprocess invocation.
type Config struct {
	Command    string   // defaults to "claude"
	Args       []string // extra args ahead of stdin-delivered prompt
	WorkingDir string
	Mode       Mode
	Timeout    time.Duration

	WalkDir  string
	Issue    string // WALK_ISSUE; empty for a planning invocation
	Planning bool   // WALK_PLANNING=1

	LogWriter io.Writer // stream mode: tee destination for raw JSON lines
}

// Result is what one invocation produced, independent of how the
// driver later interprets it against the store (close detection etc.)
type Result struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	ExitCode   *int // nil if the process was signalled
	Signalled  bool

	Stdout []string
	Stderr []string

	Digest Digest
}

// Run spawns cfg's command with prompt piped via stdin, waits for it
// to finish, and returns the captured result. The prompt is always
// delivered over stdin, never as an argv element, because prompts can
// exceed OS argv limits.
func Run(ctx context.Context, cfg Config, prompt string) (*Result, error) {
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	command := cfg.Command
	if command == "" {
		command = "claude"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Minute
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, command, cfg.Args...)
	if cfg.WorkingDir != "" {
		cmd.Dir = cfg.WorkingDir
	}
	cmd.Env = append(os.Environ(), envFor(cfg)...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}

	res := &Result{ID: uuid.NewString(), StartedAt: time.Now()}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting agent: %w", err)
	}

	go func() {
		defer stdin.Close()
		io.WriteString(stdin, prompt)
	}()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var digester *streamDigester
	if cfg.Mode == ModeStream {
		digester = newStreamDigester()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		captureLines(stdout, &res.Stdout, &mu, func(line string) {
			if cfg.LogWriter != nil {
				fmt.Fprintln(cfg.LogWriter, line)
			}
			if digester != nil {
				digester.feed(line)
			}
		})
	}()
	go func() {
		defer wg.Done()
		captureLines(stderr, &res.Stderr, &mu, nil)
	}()
	wg.Wait()

	waitErr := cmd.Wait()
	res.FinishedAt = time.Now()

	switch e := waitErr.(type) {
	case nil:
		code := 0
		res.ExitCode = &code
	case *exec.ExitError:
		if e.ProcessState != nil && e.ProcessState.ExitCode() < 0 {
			res.Signalled = true
		} else {
			code := e.ExitCode()
			res.ExitCode = &code
		}
	default:
		if runCtx.Err() != nil {
			res.Signalled = true
		} else {
			return nil, fmt.Errorf("waiting for agent: %w", waitErr)
		}
	}

	if digester != nil {
		res.Digest = digester.finalize()
		if res.Digest.Status == "" {
			// no terminal result event arrived: fall back to the exit code
			res.Digest.Status = "failure"
			if res.ExitCode != nil && *res.ExitCode == 0 {
				res.Digest.Status = "success"
			}
		}
	} else {
		res.Digest = digestCapture(res.Stdout, res.Stderr, res.ExitCode)
	}

	return res, nil
}

func envFor(cfg Config) []string {
	env := []string{"WALK_DIR=" + cfg.WalkDir}
	if cfg.Issue != "" {
		env = append(env, "WALK_ISSUE="+cfg.Issue)
	}
	if cfg.Planning {
		env = append(env, "WALK_PLANNING=1")
	}
	return env
}

func captureLines(r io.Reader, dst *[]string, mu *sync.Mutex, onLine func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		mu.Lock()
		if len(*dst) < maxCapturedLines {
			*dst = append(*dst, line)
		} else if len(*dst) == maxCapturedLines {
			*dst = append(*dst, "[... output truncated ...]")
		}
		mu.Unlock()
		if onLine != nil {
			onLine(line)
		}
	}
}

// joinedOutput renders captured lines back into a single string, for
// callers that want the capture-mode excerpt behavior (first/last N
// chars) rather than the line slice.
func joinedOutput(lines []string) string {
	return strings.Join(lines, "\n")
}
