package agent

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/basketlab/walkdrv/internal/types"
)

// Digest summarizes what a subprocess invocation did, independent of
// whether it ran in stream or capture mode.
type Digest struct {
	Status string // "success" or "failure"

	ToolUseCounts map[string]int
	FilesModified []string
	MutationCmds  []string

	DurationMS int64
	NumTurns   int
	ResultText string // first 500 chars of the terminal result, if any
	CostUSD    *float64
	TokenUsage *types.TokenUsage
}

// streamEvent is the envelope every stream-JSON line decodes into
// enough of to dispatch on Type; the rest is parsed per-type.
type streamEvent struct {
	Type string `json:"type"`

	// type: "assistant"
	Message *struct {
		Content []struct {
			Type  string                 `json:"type"`
			Name  string                 `json:"name"`
			Input map[string]interface{} `json:"input"`
		} `json:"content"`
	} `json:"message,omitempty"`

	// type: "result"
	Subtype        string            `json:"subtype,omitempty"`
	DurationMS     int64             `json:"duration_ms,omitempty"`
	NumTurns       int               `json:"num_turns,omitempty"`
	Result         string            `json:"result,omitempty"`
	TotalCostUSD   *float64          `json:"total_cost_usd,omitempty"`
	Usage          *types.TokenUsage `json:"usage,omitempty"`
}

// mutationCmdPattern flags Bash tool invocations whose command looks
// state-changing; matching commands are collected into
// Digest.MutationCmds.
var mutationCmdPattern = regexp.MustCompile(`\b(rm|mv|git (commit|push|reset|rebase)|chmod|chown|kill|dd|mkfs)\b`)

type streamDigester struct {
	toolUse  map[string]int
	files    map[string]struct{}
	muts     []string
	terminal *streamEvent
}

func newStreamDigester() *streamDigester {
	return &streamDigester{
		toolUse: map[string]int{},
		files:   map[string]struct{}{},
	}
}

func (d *streamDigester) feed(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	var ev streamEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return // malformed line, tolerated per the stream digest contract
	}

	switch ev.Type {
	case "assistant":
		if ev.Message == nil {
			return
		}
		for _, block := range ev.Message.Content {
			if block.Type != "tool_use" {
				continue
			}
			d.toolUse[block.Name]++
			if block.Name == "Write" || block.Name == "Edit" {
				if path, ok := block.Input["file_path"].(string); ok && path != "" {
					d.files[path] = struct{}{}
				}
			}
			if block.Name == "Bash" {
				if cmd, ok := block.Input["command"].(string); ok && mutationCmdPattern.MatchString(cmd) {
					d.muts = append(d.muts, cmd)
				}
			}
		}
	case "result":
		evCopy := ev
		d.terminal = &evCopy
	}
}

func (d *streamDigester) finalize() Digest {
	digest := Digest{
		ToolUseCounts: d.toolUse,
		MutationCmds:  d.muts,
	}
	for f := range d.files {
		digest.FilesModified = append(digest.FilesModified, f)
	}

	if d.terminal != nil {
		digest.DurationMS = d.terminal.DurationMS
		digest.NumTurns = d.terminal.NumTurns
		digest.ResultText = truncateRunes(d.terminal.Result, 500)
		digest.CostUSD = d.terminal.TotalCostUSD
		digest.TokenUsage = d.terminal.Usage
		if d.terminal.Subtype == "success" {
			digest.Status = "success"
		} else {
			digest.Status = "failure"
		}
	}
	return digest
}

// digestCapture builds a minimal digest for capture mode, where there
// is no JSON stream to parse: status is derived purely from exit code.
func digestCapture(stdout, stderr []string, exitCode *int) Digest {
	status := "failure"
	if exitCode != nil && *exitCode == 0 {
		status = "success"
	}
	return Digest{
		Status:     status,
		ResultText: truncateRunes(joinedOutput(stdout), 500),
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
