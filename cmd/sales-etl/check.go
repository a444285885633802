package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/David-Botos/sales-etl/pkg/config"
	"github.com/David-Botos/sales-etl/pkg/converter"
	"github.com/David-Botos/sales-etl/pkg/model"
)

func newCheckConfigCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate config.yaml and data_types.yaml without touching the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := global.loadSettings(cmd)
			if err != nil {
				return err
			}

			connCfg, err := config.LoadConnection(settings.ConfigDir)
			if err != nil {
				return err
			}
			schema, err := config.LoadSchema(settings.ConfigDir)
			if err != nil {
				if errors.Is(err, config.ErrUnknownType) {
					fmt.Fprintf(cmd.ErrOrStderr(), "accepted types: %s\n", strings.Join(converter.KnownTypes(), ", "))
				}
				return err
			}
			for _, table := range []string{model.TableCustomers, model.TableSales} {
				if _, err := schema.Table(table); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "source: %s\n", connCfg.Redacted())
			for _, table := range []string{model.TableCustomers, model.TableSales} {
				ts, _ := schema.Table(table)
				cols := make([]string, 0, len(ts))
				for _, col := range ts.Columns() {
					typeName, _ := ts.TypeOf(col)
					cols = append(cols, col+":"+typeName)
				}
				fmt.Fprintf(out, "%s: %s\n", table, strings.Join(cols, ", "))
			}
			fmt.Fprintln(out, "configuration OK")
			return nil
		},
	}
}
