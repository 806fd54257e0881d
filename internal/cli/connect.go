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
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/nnmkhang/go-native-tls/pkg/tls"
)

// connectCmd opens a session against a remote endpoint and reports the
// negotiated parameters.
var connectCmd = &cobra.Command{
	Use:   "connect <host:port>",
	Short: "Open a TLS session and print the negotiated parameters",
	Long: `Connect dials the endpoint over TCP, runs the handshake with the
configured identity, trust roots and protocol range, and prints the
negotiated protocol, the peer certificate, and the
tls-server-end-point channel binding token.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := getConfig()

		connector, err := cfg.BuildConnector()
		if err != nil {
			handleError(err)
		}

		host, _, err := net.SplitHostPort(args[0])
		if err != nil {
			handleError(fmt.Errorf("invalid endpoint %q: %w", args[0], err))
		}

		printVerbose("Dialing %s", args[0])
		conn, err := net.Dial("tcp", args[0])
		if err != nil {
			handleError(err)
		}
		defer conn.Close()

		session, err := completeHandshake(func() (*tls.Session, error) {
			return connector.Connect(host, conn)
		})
		if err != nil {
			handleError(err)
		}
		defer session.Close()

		printer := NewPrinter(cfg.OutputFormat, os.Stdout)
		if err := printer.PrintSession(args[0], session); err != nil {
			handleError(err)
		}
	},
}

// completeHandshake drives a handshake to a terminal state, resuming
// through suspensions. The default engine blocks and never suspends;
// the loop exists for engines that do.
func completeHandshake(start func() (*tls.Session, error)) (*tls.Session, error) {
	session, err := start()
	for err != nil {
		mid, suspended := tls.Suspended(err)
		if !suspended {
			return nil, err
		}
		printVerbose("Handshake suspended (%d), resuming", mid.Suspensions())
		session, err = mid.Resume()
	}
	return session, nil
}
