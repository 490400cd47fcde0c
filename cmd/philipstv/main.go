package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/macdems/philipstv/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file (default ~/.config/philipstv/config.toml)")
	key := flag.String("key", "", "send one remote key, e.g. VolumeUp, and exit")
	pair := flag.Bool("pair", false, "pair with the configured TV, reading the PIN from stdin")
	bridge := flag.Bool("bridge", false, "run the MQTT bridge without the terminal UI")
	discoverFor := flag.Duration("discover", 0, "browse for TVs for this long, print them and exit")
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage: %s [flags]\n\nWithout flags the terminal remote starts.\n\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintln(out, "\nThe state file is locked while the terminal remote runs; one-shot modes")
		fmt.Fprintln(out, "fail with \"state file is in use\" until it exits.")
	}
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		Discover:   *discoverFor,
		Key:        *key,
		Pair:       *pair,
		Bridge:     *bridge,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "philipstv: %v\n", err)
		return 1
	}
	return 0
}
