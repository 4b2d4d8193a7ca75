package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/oleg578/mztab"
)

func newFormatCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "format <file>",
		Short: "Rewrite a file in canonical column order",
		Long: `format decodes an mzTab-M file ("-" reads stdin) and encodes it again:
metadata first, then every table with its columns sorted by logical position.
Empty metadata lines are dropped and columns the decoder did not recognise are
not written. A cell that fails to decode stops the command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.format(args[0], output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().Bool("crlf", false, "terminate lines with CRLF")
	return cmd
}

func (a *app) format(path, output string) error {
	in, err := openInput(path)
	if err != nil {
		return err
	}
	defer in.Close()

	dec := mztab.NewDecoder(in)
	dec.Strict = a.v.GetBool(cfgKeyStrict)
	dec.Logger = a.log.With().Str("file", path).Logger()
	doc, err := dec.DecodeAll()
	if err != nil {
		return err
	}
	for _, t := range doc.Tables {
		for _, r := range t.Rows {
			if len(r.Errors) > 0 {
				return fmt.Errorf("%s: %v: %w", path, t.Section(), r.Errors[0])
			}
		}
		if n := len(t.Header.Unknown); n > 0 {
			a.log.Warn().Str("section", t.Section().String()).Int("columns", n).Msg("dropping unrecognised columns")
		}
	}

	encode := func(dst io.Writer) error {
		enc := mztab.NewEncoder(dst)
		enc.Writer().UseCRLF = a.v.GetBool(cfgKeyCRLF)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		return nil
	}
	if output == "" {
		return encode(a.stdout)
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	return writeAndClose(f, encode)
}

// writeAndClose runs write on wc and closes it. The write error wins over the
// close error.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) (err error) {
	defer func() {
		if cerr := wc.Close(); err == nil {
			err = cerr
		}
	}()
	return write(wc)
}
