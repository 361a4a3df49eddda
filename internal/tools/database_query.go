package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// DatabaseQueryTool runs read-only queries against the configured
// database. The driver and DSN come from tool parameters; only the
// configured statement verbs are allowed.
type DatabaseQueryTool struct {
	db         *sqlx.DB
	allowedOps map[string]struct{}
	maxRows    int
	logger     *zap.Logger
}

// NewDatabaseQueryTool opens the configured database. Parameters:
// driver (sqlite3 or postgres), dsn, allowed_operations, max_rows.
func NewDatabaseQueryTool(cfg Config, logger *zap.Logger) (Tool, error) {
	driver := "sqlite3"
	if v, ok := cfg.Parameters["driver"].(string); ok && v != "" {
		driver = v
	}
	dsn := ":memory:"
	if v, ok := cfg.Parameters["dsn"].(string); ok && v != "" {
		dsn = v
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	allowed := map[string]struct{}{"SELECT": {}}
	if raw, ok := cfg.Parameters["allowed_operations"].([]interface{}); ok {
		allowed = make(map[string]struct{}, len(raw))
		for _, op := range raw {
			if s, ok := op.(string); ok {
				allowed[strings.ToUpper(s)] = struct{}{}
			}
		}
	}

	maxRows := 100
	if v, ok := cfg.Parameters["max_rows"].(int); ok && v > 0 {
		maxRows = v
	}

	return &DatabaseQueryTool{
		db:         db,
		allowedOps: allowed,
		maxRows:    maxRows,
		logger:     logger,
	}, nil
}

// NewDatabaseQueryToolWithDB wraps an existing connection, used by
// tests to inject a mock.
func NewDatabaseQueryToolWithDB(db *sqlx.DB, allowedOps []string, maxRows int, logger *zap.Logger) *DatabaseQueryTool {
	allowed := make(map[string]struct{}, len(allowedOps))
	for _, op := range allowedOps {
		allowed[strings.ToUpper(op)] = struct{}{}
	}
	if maxRows <= 0 {
		maxRows = 100
	}
	return &DatabaseQueryTool{db: db, allowedOps: allowed, maxRows: maxRows, logger: logger}
}

func (t *DatabaseQueryTool) Name() string { return "database_query" }

func (t *DatabaseQueryTool) Execute(ctx context.Context, params map[string]interface{}) Result {
	query := strings.TrimSpace(stringParam(params, "query"))
	if query == "" {
		return errorResult("database_query requires a 'query' parameter")
	}

	verb := strings.ToUpper(strings.Fields(query)[0])
	if _, ok := t.allowedOps[verb]; !ok {
		return errorResult(fmt.Sprintf("operation %s is not allowed", verb))
	}

	rows, err := t.db.QueryxContext(ctx, query)
	if err != nil {
		return errorResult(fmt.Sprintf("query failed: %v", err))
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		if len(results) >= t.maxRows {
			break
		}
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return errorResult(fmt.Sprintf("scan row: %v", err))
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return errorResult(fmt.Sprintf("iterate rows: %v", err))
	}

	return Result{Success: true, Data: map[string]interface{}{
		"rows":      results,
		"row_count": len(results),
	}}
}

// Close releases the database connection.
func (t *DatabaseQueryTool) Close() error {
	if t.db != nil {
		return t.db.Close()
	}
	return nil
}
