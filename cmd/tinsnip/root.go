package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chazu/tinsnip/pkg/config"
)

// cli carries the state shared by every subcommand once the root command
// has loaded the configuration.
type cli struct {
	configPath string
	cfg        *config.Config
	log        zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "tinsnip",
		Short: "Sheet-metal part engine",
		Long: `tinsnip - flat patterns, exports and meshes for sheet-metal parts

Parts are read from a part script (.tinsnip) or a JSON5 snapshot:

  (sheet :thickness 1 :k-factor 0.44)
  (profile (rect 0 0 100 60))
  (flange "f1" :edge (edge 0) :height 20)

The configuration file is taken from --config, then $` + config.EnvVar + `.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Resolve(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.log = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
				Level(cfg.Level()).With().Timestamp().Logger()
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a JSON5 config file")

	root.AddCommand(
		newUnfoldCmd(c),
		newExportCmd(c),
		newMeshCmd(c),
		newEdgesCmd(c),
		newClassifyCmd(c),
		newHistoryCmd(c),
		newVersionCmd(),
	)
	return root
}
