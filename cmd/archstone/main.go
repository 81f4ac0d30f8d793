// Command archstone disassembles ARMv4T and Thumb-1 code.
package main

import (
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strings"

	"archstone/internal/archstone/cmd"
	"archstone/internal/archstone/log"
)

const defaultProfileAddr = "localhost:6060"

func main() {
	defer log.RecoverPanic("main", func() {
		slog.Error("archstone terminated by an unhandled panic")
		os.Exit(2)
	})

	// ARCHSTONE_PROFILE=1 or ARCHSTONE_PROFILE=host:port
	if v := os.Getenv("ARCHSTONE_PROFILE"); v != "" {
		addr := defaultProfileAddr
		if strings.Contains(v, ":") {
			addr = v
		}
		go serveProfile(addr)
	}

	cmd.Execute()
}

func serveProfile(addr string) {
	slog.Info("Serving pprof", "addr", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		slog.Error("pprof listener failed", "addr", addr, "error", err)
	}
}
