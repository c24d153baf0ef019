package cmd

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"firestige.xyz/pktgate/internal/core"
	"firestige.xyz/pktgate/internal/core/decoder"
	"firestige.xyz/pktgate/internal/pipeline"
	"firestige.xyz/pktgate/internal/source/file"
	"firestige.xyz/pktgate/internal/stats"
)

type classifyOptions struct {
	pcapPath  string
	hexFrames []string
	vlanDepth int
	quiet     bool
}

func newClassifyCmd() *cobra.Command {
	opts := &classifyOptions{}
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify frames offline and print the verdicts",
		Long: `Classify frames from a capture file or hex strings without forwarding them.

Each frame is printed with how far parsing got, the echo sequence number
and the resulting disposition, followed by totals.

Examples:
  pktgate classify --pcap ping.pcap
  pktgate classify --hex 0200000000020200000000010800450000...
  tcpdump -w - icmp | pktgate classify --pcap -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.pcapPath, "pcap", "", "pcap or pcapng file to classify (\"-\" for stdin)")
	cmd.Flags().StringArrayVar(&opts.hexFrames, "hex", nil, "frame bytes as hex, repeatable")
	cmd.Flags().IntVar(&opts.vlanDepth, "vlan-depth", decoder.DefaultVLANDepth, "maximum stacked VLAN tags to unwrap")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "print totals only")
	cmd.MarkFlagsMutuallyExclusive("pcap", "hex")
	cmd.MarkFlagsOneRequired("pcap", "hex")
	return cmd
}

func runClassify(ctx context.Context, out io.Writer, opts *classifyOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	counters := stats.NewCounters()
	engine := decoder.NewEngine(
		decoder.WithVLANDepth(opts.vlanDepth),
		decoder.WithRecorder(counters),
	)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if !opts.quiet {
		fmt.Fprintln(tw, "INDEX\tLEN\tSTAGE\tL3\tSEQ\tDISPOSITION")
	}
	emit := func(i int, frame []byte) {
		dec := engine.ProcessDecision(frame)
		if opts.quiet {
			return
		}
		seq := "-"
		if dec.Stage == core.StageTransport {
			seq = fmt.Sprintf("%d", dec.Sequence)
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n", i, len(frame), dec.Stage, l3Name(dec), seq, dec.Disposition)
	}

	if opts.pcapPath != "" {
		src, err := file.NewSource(file.Config{Path: opts.pcapPath})
		if err != nil {
			return err
		}
		defer src.Close()
		for i := 0; ; i++ {
			pkt, err := src.ReadPacket(ctx)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			emit(i, pkt.Data)
		}
	} else {
		for i, h := range opts.hexFrames {
			frame, err := parseHexFrame(h)
			if err != nil {
				return fmt.Errorf("--hex #%d: %w", i, err)
			}
			emit(i, frame)
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}
	printTotals(out, counters.Snapshot())
	return nil
}

// parseHexFrame accepts plain hex with optional whitespace, ':' or '-'
// separators and an optional 0x prefix.
func parseHexFrame(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':', '-':
			return -1
		}
		return r
	}, s)
	return hex.DecodeString(s)
}

func l3Name(dec core.Decision) string {
	if dec.Stage == core.StageStart {
		return "-"
	}
	switch dec.L3 {
	case core.EtherTypeIPv4:
		return "ipv4"
	case core.EtherTypeIPv6:
		return "ipv6"
	default:
		return fmt.Sprintf("0x%04x", uint16(dec.L3))
	}
}

func printTotals(out io.Writer, s stats.Snapshot) {
	fmt.Fprintf(out, "frames=%d pass=%d drop=%d\n", s.Total(), s.Pass, s.Drop)
}

func printSummary(out io.Writer, st pipeline.Stats) {
	fmt.Fprintf(out, "received=%d pass=%d drop=%d forwarded=%d queue_drops=%d source_errors=%d sink_errors=%d\n",
		st.Received, st.Dispositions.Pass, st.Dispositions.Drop, st.Forwarded,
		st.QueueDrops, st.SourceErrors, st.SinkErrors)
}
