package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/anjlabs/anj/codec"
	"github.com/anjlabs/anj/internal/numfmt"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newDecodeCmd() *cobra.Command {
	var (
		formatStr string
		baseStr   string
		hintStr   string
	)
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode hex-encoded wire bytes (read from stdin) and print each entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := numfmt.ParseAbsolutePath(baseStr)
			if err != nil {
				return fmt.Errorf("--base: %w", err)
			}
			format, err := parseFormat(formatStr)
			if err != nil {
				return err
			}
			if format == codec.FormatNotDefined {
				return errors.New("--format is required to decode")
			}
			hint, err := parseKind(hintStr)
			if err != nil {
				return err
			}

			raw, err := io.ReadAll(bufio.NewReader(cmd.InOrStdin()))
			if err != nil {
				return err
			}
			payload, err := hex.DecodeString(strings.TrimSpace(string(raw)))
			if err != nil {
				return fmt.Errorf("stdin is not valid hex: %w", err)
			}

			in, err := codec.NewInputContext(codec.OpRead, base, format, codec.DefaultLimits())
			if err != nil {
				return err
			}
			if err := in.Feed(payload, true); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for {
				e, err := in.GetEntry(hint)
				if err == codec.ErrEOF {
					return nil
				}
				if errors.Is(err, codec.ErrWantTypeDisambiguation) {
					log.Warn().Str("path", e.Path.String()).Msg("ambiguous leaf, pass --hint to narrow the type")
					return err
				}
				if err != nil {
					return err
				}
				if !e.HasValue {
					fmt.Fprintf(out, "%s\n", e.Path.String())
					continue
				}
				fmt.Fprintf(out, "%s %s %s\n", e.Path.String(), kindName(e.Value.Kind), formatValue(e.Value))
			}
		},
	}
	cmd.Flags().StringVar(&formatStr, "format", "", "tlv, cbor, senml-cbor, senml-etch-cbor, lwm2m-cbor, or plaintext")
	cmd.Flags().StringVar(&baseStr, "base", "/", "absolute LwM2M base path")
	cmd.Flags().StringVar(&hintStr, "hint", "", "resource kind hint, required to disambiguate TLV/bare-CBOR/Plaintext leaves")
	return cmd
}
