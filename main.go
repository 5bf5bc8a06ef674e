package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nstehr/vimy/tactician/agent"
	"github.com/nstehr/vimy/tactician/ipc"
	"github.com/nstehr/vimy/tactician/memory"
	"github.com/nstehr/vimy/tactician/tactics"
)

const banner = `
████████╗ █████╗  ██████╗████████╗██╗ ██████╗██╗ █████╗ ███╗   ██╗
╚══██╔══╝██╔══██╗██╔════╝╚══██╔══╝██║██╔════╝██║██╔══██╗████╗  ██║
   ██║   ███████║██║        ██║   ██║██║     ██║███████║██╔██╗ ██║
   ██║   ██╔══██║██║        ██║   ██║██║     ██║██╔══██║██║╚██╗██║
   ██║   ██║  ██║╚██████╗   ██║   ██║╚██████╗██║██║  ██║██║ ╚████║
   ╚═╝   ╚═╝  ╚═╝ ╚═════╝   ╚═╝   ╚═╝ ╚═════╝╚═╝╚═╝  ╚═╝╚═╝  ╚═══╝

Utility-Driven Battle Intelligence`

func main() {
	socketPath := flag.String("socket", "/tmp/tactician.sock", "unix socket to listen on")
	optionsPath := flag.String("options", "", "YAML options file")
	poolPath := flag.String("pool", "", "file persisting cross-encounter memory (empty keeps it in process)")
	difficulty := flag.String("difficulty", "", "override the difficulty: easy, normal or hard")
	seed := flag.Int64("seed", 0, "random seed for new encounters (0 means time based)")
	debug := flag.Bool("debug", false, "log score breakdowns and debug output")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	fmt.Println(banner)

	slog.Info("starting tactician")

	opts := tactics.DefaultOptions()
	if *optionsPath != "" {
		loaded, err := tactics.LoadOptions(*optionsPath)
		if err != nil {
			slog.Warn("using default options", "path", *optionsPath, "error", err)
		}
		opts = loaded
	}
	if *difficulty != "" {
		mode, ok := tactics.ParseMode(*difficulty)
		if !ok {
			slog.Error("unknown difficulty", "difficulty", *difficulty)
			os.Exit(1)
		}
		opts.Difficulty = mode
	}
	if *debug {
		opts.Debug = true
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	slog.Info("options loaded", "difficulty", opts.Difficulty, "debug", opts.Debug, "seed", *seed)

	pool, save := openPool(*poolPath)

	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(*socketPath); err != nil {
		slog.Error("failed to clean up socket", "path", *socketPath, "error", err)
		os.Exit(1)
	}

	listener, err := net.Listen("unix", *socketPath)
	if err != nil {
		slog.Error("failed to listen on socket", "path", *socketPath, "error", err)
		os.Exit(1)
	}
	defer listener.Close()
	defer os.Remove(*socketPath)

	slog.Info("listening on domain socket", "path", *socketPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
					slog.Error("failed to accept connection", "error", err)
					continue
				}
			}
			slog.Info("new connection accepted")
			go handleConn(conn, opts, pool, *seed, save)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	save()
}

// openPool loads the shared memory pool and returns a save func that is
// safe to call from every connection.
func openPool(path string) (*memory.Pool, func()) {
	if path == "" {
		return memory.NewPool(), func() {}
	}
	store := memory.NewFileStore(path)
	pool, err := store.Load()
	if err != nil {
		slog.Warn("starting with an empty memory pool", "path", path, "error", err)
		pool = memory.NewPool()
	} else {
		slog.Info("memory pool loaded", "path", path, "agents", pool.Len())
	}

	var mu sync.Mutex
	return pool, func() {
		mu.Lock()
		defer mu.Unlock()
		if err := store.Save(pool); err != nil {
			slog.Error("failed to save memory pool", "path", path, "error", err)
		}
	}
}

func handleConn(conn net.Conn, opts tactics.Options, pool *memory.Pool, seed int64, save func()) {
	c := ipc.NewConnection(conn, nil)
	s := agent.New(c, opts, pool, seed)
	s.OnEnd = save
	s.Register()
	c.ReadLoop()
	s.Close()
}
