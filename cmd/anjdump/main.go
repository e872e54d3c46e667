// Command anjdump exercises the codec façade end to end: encode a
// resource value to any wire format, decode wire bytes back, or build a
// Discover link-format payload from a list of paths.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).With().Timestamp().Logger()

	root := &cobra.Command{
		Use:           "anjdump",
		Short:         "Encode, decode, and discover LwM2M wire-format payloads",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newEncodeCmd())
	root.AddCommand(newDecodeCmd())
	root.AddCommand(newDiscoverCmd())

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("anjdump failed")
		os.Exit(1)
	}
}
