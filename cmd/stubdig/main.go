// Command stubdig is a small dig-like CLI exercising the resolver package
// directly: one argument is a name or IP, an optional second is a record
// type.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arnovale/stubdns/internal/rlog"
	"github.com/arnovale/stubdns/internal/wire"
	"github.com/arnovale/stubdns/resolver"
)

var recordTypes = map[string]uint16{
	"A":     wire.TypeA,
	"AAAA":  wire.TypeAAAA,
	"NS":    wire.TypeNS,
	"CNAME": wire.TypeCNAME,
	"SOA":   wire.TypeSOA,
	"PTR":   wire.TypePTR,
	"MX":    wire.TypeMX,
	"TXT":   wire.TypeTXT,
	"SRV":   wire.TypeSRV,
}

func main() {
	var (
		serverFlags []string
		timeout     time.Duration
		tcp         bool
		audit       bool
		verbose     bool
	)

	root := &cobra.Command{
		Use:   "stubdig <name|ip> [type]",
		Short: "Query a name server using the stubdns resolver library",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			logger := rlog.Default()
			if !verbose {
				logger = logger.Level(zerolog.Disabled)
			}

			servers := serverFlags
			if len(servers) == 0 {
				servers = []string{"8.8.8.8:53"}
			}

			client, err := resolver.New(servers,
				resolver.WithTimeout(timeout),
				resolver.WithTCPOnly(tcp),
				resolver.WithAuditTrail(audit),
				resolver.WithLogger(logger),
			)
			if err != nil {
				return fmt.Errorf("create client: %w", err)
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(context.Background(), timeout+2*time.Second)
			defer cancel()

			target := args[0]
			if ip := net.ParseIP(target); ip != nil {
				resp, err := client.QueryReverse(ctx, ip)
				return printResult(resp, err)
			}

			qtype := uint16(wire.TypeA)
			if len(args) == 2 {
				t, ok := recordTypes[strings.ToUpper(args[1])]
				if !ok {
					return fmt.Errorf("unknown record type %q", args[1])
				}
				qtype = t
			}

			resp, err := client.Query(ctx, target, qtype, wire.ClassIN)
			return printResult(resp, err)
		},
	}

	root.Flags().StringSliceVarP(&serverFlags, "server", "s", nil, "name server endpoint (host:port), repeatable")
	root.Flags().DurationVarP(&timeout, "timeout", "t", 5*time.Second, "per-attempt timeout")
	root.Flags().BoolVar(&tcp, "tcp", false, "use TCP only")
	root.Flags().BoolVar(&audit, "audit", false, "print the audit trail")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable logging")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func printResult(resp *resolver.Response, err error) error {
	if err != nil {
		return err
	}

	fmt.Printf("rcode=%d truncated=%t server=%s\n", resp.RCode, resp.Truncated, resp.Server)
	for _, rr := range resp.Answers {
		fmt.Printf("%s\t%d\tIN\t%s\t%v\n", rr.Name, rr.TTL, rr.Type, rr.Data)
	}
	if resp.AuditTrail != "" {
		fmt.Println("--- audit trail ---")
		fmt.Println(resp.AuditTrail)
	}
	return nil
}
