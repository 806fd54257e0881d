// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-native-tls.
//
// go-native-tls is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/nnmkhang/go-native-tls/pkg/metrics"
	"github.com/nnmkhang/go-native-tls/pkg/tls"
)

// serveCmd runs a diagnostic echo server with the configured identity.
var serveCmd = &cobra.Command{
	Use:   "serve <listen-addr>",
	Short: "Run a TLS echo server for session diagnostics",
	Long: `Serve listens on the given address, accepts TLS sessions with the
configured identity and protocol range, prints the negotiated
parameters of each session, and echoes application data back to the
client until it shuts the session down.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := getConfig()

		acceptor, err := cfg.BuildAcceptor()
		if err != nil {
			handleError(err)
		}

		if cfg.MetricsListen != "" {
			metrics.Enable()
			metrics.StartResourceCollector(cmd.Context(), 15*time.Second)
			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				if err := http.ListenAndServe(cfg.MetricsListen, mux); err != nil {
					fmt.Fprintf(os.Stderr, "metrics endpoint failed: %v\n", err)
				}
			}()
			fmt.Fprintf(os.Stderr, "Metrics on http://%s/metrics\n", cfg.MetricsListen)
		}

		listener, err := net.Listen("tcp", args[0])
		if err != nil {
			handleError(err)
		}
		defer listener.Close()

		fmt.Fprintf(os.Stderr, "Listening on %s\n", listener.Addr())

		for {
			conn, err := listener.Accept()
			if err != nil {
				handleError(err)
			}
			go serveConn(cfg, acceptor, conn)
		}
	},
}

// serveConn handshakes one connection and echoes its data.
func serveConn(cfg *Config, acceptor *tls.Acceptor, conn net.Conn) {
	defer conn.Close()

	session, err := completeHandshake(func() (*tls.Session, error) {
		return acceptor.Accept(conn)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "handshake with %s failed: %v\n", conn.RemoteAddr(), err)
		return
	}
	defer session.Close()

	printer := NewPrinter(cfg.OutputFormat, os.Stderr)
	_ = printer.PrintSession(conn.RemoteAddr().String(), session)

	if _, err := io.Copy(session, session); err != nil {
		printVerbose("echo with %s ended: %v", conn.RemoteAddr(), err)
	}
}

func init() {
	serveCmd.Flags().StringVar(&globalConfig.MetricsListen, "metrics-listen", "",
		"address for a Prometheus metrics endpoint (enables metrics)")
}
