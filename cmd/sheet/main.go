package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var (
		configPath string
		storeKind  string
		storePath  string
		sheetName  string
		contents   bool
	)

	run := func(cmd *cobra.Command, fn func(*app) error) error {
		a, err := newApp(cmd.Context(), configPath, storeKind, storePath, cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		return a.close(fn(a))
	}

	rootCmd := &cobra.Command{
		Use:           "sheet",
		Short:         "Spreadsheet cells, formulas and recalculation from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "", "Snapshot store: file, pebble or s3 (overrides config)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store-path", "", "Directory of the file or pebble store (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&sheetName, "sheet", "s", "sheet.json", "Name of the spreadsheet in the store")

	setCmd := &cobra.Command{
		Use:   "set CELL CONTENTS",
		Short: "Set the contents of a cell and print every recalculated cell",
		Long: "Set the contents of a cell. CONTENTS is a number, a formula starting with '='\n" +
			"or text; an empty string clears the cell. The spreadsheet is created if needed.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(a *app) error {
				return a.set(cmd.Context(), sheetName, args[0], args[1])
			})
		},
	}

	getCmd := &cobra.Command{
		Use:   "get CELL...",
		Short: "Print the value of cells",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(a *app) error {
				return a.get(cmd.Context(), sheetName, args, contents)
			})
		},
	}
	getCmd.Flags().BoolVar(&contents, "contents", false, "Print contents instead of values")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print every non-empty cell with its contents and value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(a *app) error {
				return a.show(cmd.Context(), sheetName)
			})
		},
	}

	evalCmd := &cobra.Command{
		Use:   "eval FORMULA",
		Short: "Evaluate a formula against the spreadsheet without changing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(a *app) error {
				return a.eval(cmd.Context(), sheetName, args[0])
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the spreadsheets in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(a *app) error {
				return a.list(cmd.Context())
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the spreadsheet from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(a *app) error {
				return a.delete(cmd.Context(), sheetName)
			})
		},
	}

	rootCmd.AddCommand(setCmd, getCmd, showCmd, evalCmd, listCmd, deleteCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
