package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/oleg578/mztab"
	"github.com/oleg578/mztab/internal/metrics"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Decode a file and report format problems",
		Long: `check decodes an mzTab-M file ("-" reads stdin), prints a summary of its
metadata and tables, and exits non-zero when any line or cell failed to decode.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.check(args[0])
		},
	}
}

func (a *app) check(path string) error {
	in, err := openInput(path)
	if err != nil {
		return err
	}
	defer in.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	dec := mztab.NewDecoder(in)
	dec.Strict = a.v.GetBool(cfgKeyStrict)
	dec.Logger = a.log.With().Str("file", path).Logger()
	dec.Metrics = m

	doc, err := dec.DecodeAll()
	if err != nil {
		return err
	}

	out := a.stdout
	fmt.Fprintf(out, "%s: %d metadata lines, %d elements\n", path, len(doc.Metadata), doc.Elements.Len())
	problems := 0
	for _, t := range doc.Tables {
		cellErrors := 0
		for _, r := range t.Rows {
			cellErrors += len(r.Errors)
		}
		problems += cellErrors + len(t.Header.Unknown)
		fmt.Fprintf(out, "  %s: %d columns, %d rows, %d unknown headers, %d bad cells\n",
			t.Section(), len(t.Header.Columns), len(t.Rows), len(t.Header.Unknown), cellErrors)
	}

	failures, err := writeCounters(out, reg)
	if err != nil {
		return err
	}
	if problems > 0 || failures > 0 {
		return fmt.Errorf("%s: %d problems found", path, max(problems, failures))
	}
	return nil
}

// writeCounters prints every counter of reg and returns the total of the
// decode failure counter.
func writeCounters(out io.Writer, reg *prometheus.Registry) (int, error) {
	families, err := reg.Gather()
	if err != nil {
		return 0, fmt.Errorf("gather metrics: %w", err)
	}
	failures := 0
	var lines []string
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			label := ""
			for _, lp := range metric.GetLabel() {
				label = lp.GetValue()
			}
			value := metric.GetCounter().GetValue()
			if mf.GetName() == "mztab_decode_failures_total" {
				failures += int(value)
			}
			lines = append(lines, fmt.Sprintf("  %s{%s} %g", mf.GetName(), label, value))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(out, l)
	}
	return failures, nil
}
