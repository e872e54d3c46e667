package main

import (
	"encoding/hex"
	"fmt"
	"math"

	"github.com/anjlabs/anj/codec"
	"github.com/anjlabs/anj/internal/numfmt"
	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	var (
		formatStr string
		baseStr   string
		kindStr   string
		valueStr  string
		timestamp float64
	)
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a single resource value and print the wire bytes as hex",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := numfmt.ParseAbsolutePath(baseStr)
			if err != nil {
				return fmt.Errorf("--base: %w", err)
			}
			kind, err := parseKind(kindStr)
			if err != nil {
				return err
			}
			v, err := parseValue(kind, valueStr)
			if err != nil {
				return fmt.Errorf("--value: %w", err)
			}
			format, err := parseFormat(formatStr)
			if err != nil {
				return err
			}

			op := codec.OpRead
			if !math.IsNaN(timestamp) {
				op = codec.OpNotify
			}
			out, err := codec.NewOutputContext(op, base, 1, format, codec.DefaultLimits())
			if err != nil {
				return err
			}
			if err := out.NewEntry(codec.Entry{Path: base, Value: v, Timestamp: timestamp}); err != nil {
				return err
			}

			var payload []byte
			dst := make([]byte, 256)
			for {
				n, more, err := out.GetPayload(dst)
				if err != nil {
					return err
				}
				payload = append(payload, dst[:n]...)
				if !more {
					break
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(payload))
			return nil
		},
	}
	cmd.Flags().StringVar(&formatStr, "format", "", "tlv, cbor, senml-cbor, senml-etch-cbor, lwm2m-cbor, or plaintext (default: auto-negotiated)")
	cmd.Flags().StringVar(&baseStr, "base", "/", "absolute LwM2M path, e.g. /3/3/3")
	cmd.Flags().StringVar(&kindStr, "kind", "", "int, uint, double, bool, time, string, or bytes")
	cmd.Flags().StringVar(&valueStr, "value", "", "textual value to encode")
	cmd.Flags().Float64Var(&timestamp, "timestamp", math.NaN(), "SenML-CBOR record timestamp; NaN omits it")
	return cmd
}
