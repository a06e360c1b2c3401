package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"outmentor/internal"
	"outmentor/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

func main() {
	_ = godotenv.Load()
	dbPath := flag.String("db", os.Getenv("BADGER_FILEPATH"), "Path to badger DB")
	prefix := flag.String("prefix", "profile:", "Prefix to scan (profile:, conn:, pair:, member:, msg:, seq:, meeting:)")
	limit := flag.Int("limit", 0, "Maximum number of rows, 0 for all")
	serve := flag.Int("serve", 0, "Serve the HTML inspector on this port instead of printing a table")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("no database: set BADGER_FILEPATH or pass -db")
	}

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	if *serve > 0 {
		viewer(db, *serve)
		return
	}

	entries, err := repositories.Dump(context.Background(), db, *prefix, *limit)
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Detail", "Size"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, e := range entries {
		table.Append([]string{e.Key, e.Type, e.Detail, strconv.Itoa(e.Size)})
	}
	table.Render()
	fmt.Printf("\n%d record(s) under %q\n", len(entries), *prefix)
}

// viewer serves the read-only inspector until interrupted.
func viewer(db *badger.DB, port int) {
	logger := logs.GetLoggerFromLevel(slog.LevelInfo)
	stats := func() map[string]any {
		return map[string]any{
			"status": "viewer mode (read-only)",
			"time":   time.Now().Format(time.RFC822),
		}
	}
	srv := internal.StartDebugServer(logger, db, port, "/inspect", stats)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	_ = srv.Close()
}

// openDB opens read-only and bypasses the lock so a running server can be inspected.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil && strings.Contains(err.Error(), "Log truncate required") {
		// A crashed writer left the value log unflushed: open once for writing to truncate it.
		repair, rerr := badger.Open(badger.DefaultOptions(path).WithLogger(nil).WithBypassLockGuard(true))
		if rerr != nil {
			return nil, fmt.Errorf("repair failed: %w", rerr)
		}
		_ = repair.Close()
		return badger.Open(opts)
	}
	return db, err
}
