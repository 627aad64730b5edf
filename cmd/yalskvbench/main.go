// Command yalskvbench is a thin demonstration/benchmark driver for the
// yalskv store, grounded on the original Rust crate's bin/main.rs: insert
// a key/value pair, look it up, remove it, then hammer the store with a
// configurable number of insert+remove cycles and report throughput. It is
// not a general-purpose CLI (spec.md §1 excludes that from the core) — it
// exists purely to exercise the library end to end the way the original's
// benchmark binary did.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/sergey-melnychuk/yalskv"
)

func main() {
	baseDir := flag.String("dir", "target/db", "base directory for the store")
	n := flag.Int64("n", 1_000_000, "number of insert+remove cycles to run")
	verbose := flag.Bool("v", false, "enable structured logging output")
	flag.Parse()

	if err := run(*baseDir, *n, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "yalskvbench:", err)
		os.Exit(1)
	}
}

func run(baseDir string, n int64, verbose bool) error {
	logger := zap.NewNop()
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l
	}
	defer func() { _ = logger.Sync() }()

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return err
	}

	store, err := yalskv.Open(baseDir, yalskv.WithLogger(logger.Sugar()))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	key := []byte("https://www.lipsum.com/feed/html")
	val := []byte("Neque porro quisquam est qui dolorem ipsum quia dolor sit amet, consectetur, adipisci velit...")

	if err := store.Insert(key, val); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	got, err := store.Lookup(key)
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}
	fmt.Printf("lookup before remove: %q\n", got)

	if _, err := store.Remove(key); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	got, err = store.Lookup(key)
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}
	fmt.Printf("lookup after remove: %q\n", got)

	start := time.Now()
	for i := int64(0); i < n; i++ {
		if err := store.Insert(key, val); err != nil {
			return fmt.Errorf("insert #%d: %w", i, err)
		}
		if _, err := store.Remove(key); err != nil {
			return fmt.Errorf("remove #%d: %w", i, err)
		}
	}
	elapsed := time.Since(start)
	ms := uint64(elapsed.Milliseconds())
	if ms == 0 {
		ms = 1
	}
	opsPerSec := uint64(n) * 2 * 1000 / ms
	kbPerSec := uint64(n) * 1000 * uint64(len(key)*2+len(val)) / ms / 1024
	fmt.Printf(
		"n=%d ms=%d op=%d kb=%d [k=%d v=%d]\n",
		n, ms, opsPerSec, kbPerSec, len(key), len(val),
	)

	return nil
}
