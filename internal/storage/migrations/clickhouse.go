package migrations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"trade-report-lab/internal/observability"
)

// ClickhouseDB executes a single statement.
type ClickhouseDB interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// errSemicolonInString rejects files the statement splitter would cut apart.
var errSemicolonInString = errors.New("semicolon inside string literal")

// RunClickhouseMigrations applies every embedded file statement by statement.
// The equity schema uses IF NOT EXISTS throughout, so reruns are harmless and
// nothing is recorded between runs.
func RunClickhouseMigrations(ctx context.Context, db ClickhouseDB, logger *zap.Logger) error {
	files, err := load(ClickhouseFS, "clickhouse")
	if err != nil {
		return err
	}

	for _, m := range files {
		if err := validateNoSemicolonInStrings(m.sql); err != nil {
			return fmt.Errorf("validate migration %s: %w", m.name, err)
		}
		stmts := splitStatements(m.sql)

		start := time.Now()
		err := execAll(ctx, db, stmts)
		observability.RecordDBQuery("clickhouse", "migrate", time.Since(start).Seconds(), err)
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
		logger.Info("migration applied",
			zap.String("database", "clickhouse"),
			zap.String("file", m.name),
			zap.Int("statements", len(stmts)),
			zap.Duration("took", time.Since(start)),
		)
	}

	return nil
}

func execAll(ctx context.Context, db ClickhouseDB, stmts []string) error {
	for i, stmt := range stmts {
		if err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	return nil
}

// splitStatements drops "--" comment lines and splits on semicolons.
// The ClickHouse driver runs one statement per Exec. Semicolons inside
// string literals or block comments are not supported.
func splitStatements(input string) []string {
	var filtered []string
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		filtered = append(filtered, line)
	}

	var stmts []string
	for _, part := range strings.Split(strings.Join(filtered, "\n"), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// validateNoSemicolonInStrings scans single-quoted literals. A doubled quote
// inside a literal is an escaped quote.
func validateNoSemicolonInStrings(sql string) error {
	inString := false
	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '\'':
			if inString && i+1 < len(sql) && sql[i+1] == '\'' {
				i++
				continue
			}
			inString = !inString
		case ';':
			if inString {
				return fmt.Errorf("%w at offset %d", errSemicolonInString, i)
			}
		}
	}
	return nil
}
