package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/anjlabs/anj/internal/numfmt"
	"github.com/anjlabs/anj/link"
	"github.com/spf13/cobra"
)

func newDiscoverCmd() *cobra.Command {
	var (
		baseStr string
		depth   int
	)
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Build a Discover link-format payload from a newline-separated list of paths read from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := numfmt.ParseAbsolutePath(baseStr)
			if err != nil {
				return fmt.Errorf("--base: %w", err)
			}
			var depthArg *int
			if cmd.Flags().Changed("depth") {
				depthArg = &depth
			}
			w, err := link.NewDiscoverWriter(base, depthArg)
			if err != nil {
				return err
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				p, err := numfmt.ParseAbsolutePath(line)
				if err != nil {
					return fmt.Errorf("invalid path %q: %w", line, err)
				}
				if err := w.WriteEntry(p, nil, "", nil); err != nil {
					return err
				}
			}
			if err := scanner.Err(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(w.Close()))
			return nil
		},
	}
	cmd.Flags().StringVar(&baseStr, "base", "/", "absolute LwM2M base path for the Discover operation")
	cmd.Flags().IntVar(&depth, "depth", 0, "Discover depth 0..3 (default: LwM2M's implicit default)")
	return cmd
}
