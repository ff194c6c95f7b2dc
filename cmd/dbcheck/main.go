// cmd/dbcheck/main.go
//
// Operator CLI: validate, and optionally repair, the catalog schema.
//
// Workflow
// --------
//  1. Load configuration from --config (or the discovered root).
//  2. With --repair (default), run the same initialisation flow as the web
//     server: create, provision, validate, repair, re-validate.
//  3. With --repair=false, connect to the application database and
//     validate only.  Nothing is written.
//  4. Print the report.  Exit 0 when the final schema is valid, 1 on a
//     connectivity failure or a schema that is still invalid.
//
// Notes
// -----
//   - Logs go to the daily file under <root>/logs; stdout carries only the
//     report.
//   - Oxford commas, two spaces after periods.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/animecatalog/internal/catalog"
	"github.com/yanizio/animecatalog/internal/config"
	"github.com/yanizio/animecatalog/internal/database"
	"github.com/yanizio/animecatalog/internal/dbinit"
	"github.com/yanizio/animecatalog/internal/logger"
	"github.com/yanizio/animecatalog/internal/schema"
)

var errInvalid = errors.New("schema invalid")

type flags struct {
	root   string
	repair bool
	script string
}

func newRootCmd(out io.Writer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "dbcheck",
		Short:         "Validate and repair the anime catalog schema",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return check(cmd.Context(), out, f)
		},
	}

	cmd.Flags().StringVar(&f.root, "config", "", "root directory holding conf/global.yaml (default: discovered)")
	cmd.Flags().BoolVar(&f.repair, "repair", true, "repair a malformed schema before reporting")
	cmd.Flags().StringVar(&f.script, "script", "", "DDL script to replay instead of the configured one")
	return cmd
}

func check(ctx context.Context, out io.Writer, f flags) error {
	var (
		cfg *config.Config
		err error
	)
	if f.root != "" {
		cfg, err = config.LoadDir(ctx, f.root, nil)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logOut, err := logger.New(cfg.Paths.Root, false, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	defer func() { _ = logOut.Sync() }()
	zl := logOut.Desugar()

	scriptPath := cfg.Database.SchemaFile
	if f.script != "" {
		scriptPath = f.script
	}
	script, err := catalog.LoadScript(scriptPath)
	if err != nil {
		return err
	}

	opts := dbinit.FromConfig(cfg.Database, script, catalog.Descriptor(), zl)

	var (
		final   schema.Report
		outcome *schema.Outcome
	)
	if f.repair {
		conn, res, err := dbinit.Run(ctx, opts)
		if err != nil {
			return err
		}
		defer conn.Close()
		final, outcome = res.Final, res.Repair
	} else {
		conn, err := opts.Dialer.DialDatabase(ctx, opts.Database)
		if err != nil {
			return fmt.Errorf("%w: %w", dbinit.ErrUnreachable, err)
		}
		defer conn.Close()
		final = schema.Validate(ctx, conn, opts.Descriptor)
	}

	if err := schema.WriteReport(out, final, outcome); err != nil {
		return err
	}
	if !final.Valid {
		zl.Warn("⚠ schema still invalid", zap.Strings("errors", final.Errors))
		return errInvalid
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintln(os.Stderr, "dbcheck:", err)
			if database.KindOf(err) == database.KindAccessDenied {
				fmt.Fprintln(os.Stderr, "dbcheck: check database.user and database.password")
			}
		}
		stop()
		os.Exit(1)
	}
}
