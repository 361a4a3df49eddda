package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FileSystemTool reads, lists, and optionally writes files under a
// set of allowed path prefixes.
type FileSystemTool struct {
	allowedPaths []string
	allowedOps   map[string]struct{}
	maxReadBytes int64
	logger       *zap.Logger
}

// NewFileSystemTool builds the tool. Parameters: allowed_paths,
// allowed_operations (read, list, write), max_read_bytes.
func NewFileSystemTool(cfg Config, logger *zap.Logger) (Tool, error) {
	var paths []string
	if raw, ok := cfg.Parameters["allowed_paths"].([]interface{}); ok {
		for _, p := range raw {
			if s, ok := p.(string); ok {
				abs, err := filepath.Abs(s)
				if err == nil {
					paths = append(paths, abs)
				}
			}
		}
	}
	if len(paths) == 0 {
		wd, _ := os.Getwd()
		paths = []string{wd}
	}

	ops := map[string]struct{}{"read": {}, "list": {}}
	if raw, ok := cfg.Parameters["allowed_operations"].([]interface{}); ok {
		ops = make(map[string]struct{}, len(raw))
		for _, op := range raw {
			if s, ok := op.(string); ok {
				ops[strings.ToLower(s)] = struct{}{}
			}
		}
	}

	var maxRead int64 = 1 << 20
	if v, ok := cfg.Parameters["max_read_bytes"].(int); ok && v > 0 {
		maxRead = int64(v)
	}

	return &FileSystemTool{
		allowedPaths: paths,
		allowedOps:   ops,
		maxReadBytes: maxRead,
		logger:       logger,
	}, nil
}

func (t *FileSystemTool) Name() string { return "file_system" }

func (t *FileSystemTool) pathAllowed(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	for _, prefix := range t.allowedPaths {
		if abs == prefix || strings.HasPrefix(abs, prefix+string(filepath.Separator)) {
			return abs, true
		}
	}
	return abs, false
}

func (t *FileSystemTool) Execute(ctx context.Context, params map[string]interface{}) Result {
	op := strings.ToLower(stringParam(params, "operation"))
	if op == "" {
		op = "read"
	}
	if _, ok := t.allowedOps[op]; !ok {
		return errorResult(fmt.Sprintf("operation %s is not allowed", op))
	}

	path := stringParam(params, "path")
	if path == "" {
		return errorResult("file_system requires a 'path' parameter")
	}
	abs, ok := t.pathAllowed(path)
	if !ok {
		return errorResult(fmt.Sprintf("path %s is outside the allowed roots", path))
	}

	switch op {
	case "read":
		info, err := os.Stat(abs)
		if err != nil {
			return errorResult(fmt.Sprintf("stat %s: %v", abs, err))
		}
		if info.Size() > t.maxReadBytes {
			return errorResult(fmt.Sprintf("file %s exceeds the read limit (%d bytes)", abs, t.maxReadBytes))
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			return errorResult(fmt.Sprintf("read %s: %v", abs, err))
		}
		return Result{Success: true, Data: map[string]interface{}{
			"path":    abs,
			"content": string(data),
			"size":    info.Size(),
		}}

	case "list":
		entries, err := os.ReadDir(abs)
		if err != nil {
			return errorResult(fmt.Sprintf("list %s: %v", abs, err))
		}
		names := make([]map[string]interface{}, 0, len(entries))
		for _, e := range entries {
			names = append(names, map[string]interface{}{
				"name":   e.Name(),
				"is_dir": e.IsDir(),
			})
		}
		return Result{Success: true, Data: map[string]interface{}{
			"path":    abs,
			"entries": names,
		}}

	case "write":
		content := stringParam(params, "content")
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			return errorResult(fmt.Sprintf("write %s: %v", abs, err))
		}
		return Result{Success: true, Data: map[string]interface{}{
			"path":    abs,
			"written": len(content),
		}}

	default:
		return errorResult(fmt.Sprintf("unsupported operation: %s", op))
	}
}
