package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CodeExecutionTool runs short scripts through a local interpreter.
// Only the configured languages are accepted.
type CodeExecutionTool struct {
	languages map[string]string // language -> interpreter binary
	timeout   time.Duration
	logger    *zap.Logger
}

// NewCodeExecutionTool builds the tool from its configuration.
func NewCodeExecutionTool(cfg Config, logger *zap.Logger) (Tool, error) {
	languages := map[string]string{
		"python": "python3",
		"bash":   "bash",
	}
	if raw, ok := cfg.Parameters["languages"].(map[string]interface{}); ok {
		languages = make(map[string]string, len(raw))
		for lang, bin := range raw {
			if s, ok := bin.(string); ok {
				languages[lang] = s
			}
		}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &CodeExecutionTool{languages: languages, timeout: timeout, logger: logger}, nil
}

func (t *CodeExecutionTool) Name() string { return "code_execution" }

func (t *CodeExecutionTool) Execute(ctx context.Context, params map[string]interface{}) Result {
	code := stringParam(params, "code")
	if code == "" {
		return errorResult("code_execution requires a 'code' parameter")
	}
	language := stringParam(params, "language")
	if language == "" {
		language = "python"
	}
	interpreter, ok := t.languages[language]
	if !ok {
		return errorResult(fmt.Sprintf("unsupported language: %s", language))
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var cmd *exec.Cmd
	switch language {
	case "bash":
		cmd = exec.CommandContext(ctx, interpreter, "-c", code)
	default:
		cmd = exec.CommandContext(ctx, interpreter, "-c", code)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	t.logger.Debug("Code execution finished",
		zap.String("language", language),
		zap.Duration("elapsed", elapsed),
		zap.Bool("ok", err == nil),
	)

	data := map[string]interface{}{
		"stdout":      stdout.String(),
		"stderr":      stderr.String(),
		"duration_ms": elapsed.Milliseconds(),
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Result{Success: false, Data: data, Error: "execution timed out"}
		}
		msg := err.Error()
		if s := strings.TrimSpace(stderr.String()); s != "" {
			msg = fmt.Sprintf("%s: %s", msg, s)
		}
		return Result{Success: false, Data: data, Error: msg}
	}
	return Result{Success: true, Data: data}
}
