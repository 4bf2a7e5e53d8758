// Command cafe is a terminal client for the smart cafe API.  The session and
// the cart persist between invocations in the local state store.
//
//	cafe [-api URL] [-state FILE] <command> [flags]
//
// STATE_BACKEND=redis keeps the state in Redis instead of a file, namespaced
// by STATE_NAMESPACE (default: the host name).
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/iliyamo/smart-cafe/internal/cart"
	"github.com/iliyamo/smart-cafe/internal/client"
	"github.com/iliyamo/smart-cafe/internal/config"
	"github.com/iliyamo/smart-cafe/internal/localstate"
	"github.com/iliyamo/smart-cafe/internal/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// app carries what every command needs.
type app struct {
	shop   *client.Shop
	board  *client.Board
	fields *validation.FieldErrors
	out    io.Writer
	errOut io.Writer
	log    *zap.Logger
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cafe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	apiURL := fs.String("api", envOr("CAFE_API_URL", "http://localhost:8080"), "API base URL")
	statePath := fs.String("state", filepath.Join(localstate.DefaultDir(), "state.json"), "state file")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		usage(stderr)
		return 2
	}

	log := newLogger(stderr, *verbose)
	defer func() { _ = log.Sync() }()

	store, closeStore, err := openStore(*statePath, log)
	if err != nil {
		fmt.Fprintln(stderr, "state:", err)
		return 1
	}
	defer closeStore()

	renderer := cart.TableRenderer{Out: stdout}
	fields := validation.NewFieldErrors()
	api := client.NewAPI(*apiURL, log)
	shop := client.NewShop(api, store, renderer, fields, log)
	a := &app{
		shop:   shop,
		board:  client.NewBoard(api, shop.Session, fields),
		fields: fields,
		out:    stdout,
		errOut: stderr,
		log:    log,
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		usage(stderr)
		return 2
	}
	if err := cmd(ctx, a, rest); err != nil {
		a.report(err)
		return 1
	}
	return 0
}

func openStore(path string, log *zap.Logger) (localstate.Store, func(), error) {
	if !strings.EqualFold(os.Getenv("STATE_BACKEND"), "redis") {
		return localstate.NewFile(path), func() {}, nil
	}
	rdb := config.NewRedisClient()
	if rdb == nil {
		return nil, nil, fmt.Errorf("redis unreachable at %s", config.RedisOptions().Addr)
	}
	ns := os.Getenv("STATE_NAMESPACE")
	if ns == "" {
		ns, _ = os.Hostname()
	}
	ttl, err := time.ParseDuration(envOr("STATE_TTL", "0s"))
	if err != nil {
		log.Warn("invalid STATE_TTL, keeping keys without expiry", zap.Error(err))
		ttl = 0
	}
	return localstate.NewRedis(rdb, "state", ns, ttl), func() { _ = rdb.Close() }, nil
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
