package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophview/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   backend HTTP base URL
//	-g string   backend gRPC health address
//	-e string   editor service base URL
//	-i int      online check interval in seconds
//	-t int      editor readiness timeout in seconds
//	-m int      structural readiness confirmations
//	-l string   log level
//
// os.Args is filtered with flagx.FilterArgs so flags owned by other loaders
// do not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-e", "-i", "-t", "-m", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BackendURL, "a", cfg.BackendURL, "backend HTTP base URL")
	fs.StringVar(&cfg.HealthAddr, "g", cfg.HealthAddr, "backend gRPC health address")
	fs.StringVar(&cfg.EditorURL, "e", cfg.EditorURL, "editor service base URL")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	readinessTimeout := fs.Int("t", int(cfg.ReadinessTimeout.Seconds()), "editor readiness timeout (in seconds)")
	fs.IntVar(&cfg.MinConfirmations, "m", cfg.MinConfirmations, "structural readiness confirmations")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.ReadinessTimeout = time.Duration(*readinessTimeout) * time.Second
}
