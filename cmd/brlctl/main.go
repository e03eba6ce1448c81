// Command brlctl is a small command-line client for a running BRLTTY
// daemon, exercising pkg/brlapi the way examples/navigation exercises
// pkg/devtools: info prints the display's identity, write puts text on
// it, watch echoes key events until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/dbernaca/brltty2/pkg/brlapi"
	"github.com/dbernaca/brltty2/pkg/wire"
)

func main() {
	host := flag.String("host", "localhost", "BRLTTY host")
	port := flag.Int("port", 4101, "BRLTTY port")
	timeout := flag.Duration("timeout", 10*time.Second, "dial and round-trip timeout")
	keyfile := flag.String("keyfile", "", "AUTH_KEY file path (default /etc/brlapi.key)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: brlctl [flags] info|write <tty> <text>|watch <tty>")
		os.Exit(2)
	}

	opts := []brlapi.ClientOption{
		brlapi.WithAddress(*host, *port),
		brlapi.WithDialTimeout(*timeout),
		brlapi.WithGateTimeout(*timeout),
		brlapi.WithLogger(log.New(os.Stderr, "brlapi: ", log.LstdFlags)),
	}
	if *keyfile != "" {
		opts = append(opts, brlapi.WithAuthKeyPath(*keyfile))
	}

	cmd := args[0]
	rest := args[1:]

	var err error
	switch cmd {
	case "info":
		err = runInfo(opts, rest)
	case "write":
		err = runWrite(opts, rest)
	case "watch":
		err = runWatch(opts, rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", cmd)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("brlctl %s: %v", cmd, err)
	}
}

func connect(ctx context.Context, opts []brlapi.ClientOption) (*brlapi.Client, error) {
	c := brlapi.New(opts...)
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func runInfo(opts []brlapi.ClientOption, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer c.Close()

	driver, err := c.GetDriverName(ctx)
	if err != nil {
		return fmt.Errorf("getting driver name: %w", err)
	}
	model, err := c.GetModelIdentifier(ctx)
	if err != nil {
		return fmt.Errorf("getting model identifier: %w", err)
	}
	cols, rows, err := c.GetDisplaySize(ctx)
	if err != nil {
		return fmt.Errorf("getting display size: %w", err)
	}

	fmt.Printf("driver:  %s\n", driver)
	fmt.Printf("model:   %s\n", model)
	fmt.Printf("display: %dx%d\n", cols, rows)
	return nil
}

func runWrite(opts []brlapi.ClientOption, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: write <tty> <text>")
	}
	tty, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("parsing tty: %w", err)
	}
	text := args[1]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.EnterTTYMode(ctx, []int{tty}, ""); err != nil {
		return fmt.Errorf("entering tty mode: %w", err)
	}
	defer c.LeaveTTYMode(ctx)

	if err := c.WriteText(text, "", wire.CursorLeave); err != nil {
		return fmt.Errorf("writing text: %w", err)
	}
	return nil
}

func runWatch(opts []brlapi.ClientOption, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: watch <tty>")
	}
	tty, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("parsing tty: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := connect(connectCtx, opts)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.EnterTTYMode(connectCtx, []int{tty}, ""); err != nil {
		return fmt.Errorf("entering tty mode: %w", err)
	}
	defer c.LeaveTTYMode(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	done := make(chan struct{})
	go func() {
		<-sigCh
		close(done)
	}()

	fmt.Fprintln(os.Stderr, "watching for key events, press ctrl-C to stop")
	for {
		select {
		case <-done:
			return nil
		default:
		}
		readCtx, readCancel := context.WithTimeout(context.Background(), time.Second)
		key, ok, err := c.ReadKey(readCtx, true)
		readCancel()
		if err != nil {
			select {
			case <-done:
				return nil
			default:
			}
			if readCtx.Err() != nil {
				continue
			}
			return fmt.Errorf("reading key: %w", err)
		}
		if !ok {
			continue
		}
		d := key.Describe()
		fmt.Printf("%#016x %s\n", key.Code, d.Name)
	}
}
