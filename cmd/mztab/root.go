package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oleg578/mztab/internal/logger"
)

// exitUserError is the exit code for any failed command.
const exitUserError = 1

// app carries the state shared by all subcommands once configuration is loaded.
type app struct {
	configFile string
	v          *viper.Viper
	log        zerolog.Logger
	stdout     io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{stdout: os.Stdout}
	root := &cobra.Command{
		Use:   "mztab",
		Short: "Check and reformat mzTab-M files",
		Long: `mztab decodes mzTab-M files, reports lines and cells that do not follow
the format, and writes documents back in canonical column order.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default: ./mztab.yaml or ~/.mztab/mztab.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().Bool("log-pretty", false, "human readable log output")
	root.PersistentFlags().Bool("strict", false, "treat recoverable decode failures as errors")

	root.AddCommand(newCheckCmd(a))
	root.AddCommand(newFormatCmd(a))
	root.AddCommand(newVersionCmd(a))
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	v, err := loadConfig(a.configFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	for key, flag := range map[string]string{
		cfgKeyLogLevel:  "log-level",
		cfgKeyLogPretty: "log-pretty",
		cfgKeyStrict:    "strict",
		cfgKeyCRLF:      "crlf",
	} {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	a.v = v
	a.log = logger.New(logger.Config{
		Level:  v.GetString(cfgKeyLogLevel),
		Pretty: v.GetBool(cfgKeyLogPretty),
		Output: cmd.ErrOrStderr(),
	})
	a.stdout = cmd.OutOrStdout()
	return nil
}

// openInput opens path, or stdin for "-".
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}
