package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"roster-server-go/spreadsheet"
)

// NewImportCommand creates the import command, which loads students from an .xlsx file
// straight into the database.
func NewImportCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import students from a spreadsheet",
		Long: "Import students from the first sheet of an .xlsx workbook. The first row is a header " +
			"naming the columns studentId, name, age, className and address.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			a, err := openApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := spreadsheet.ImportStudents(cmd.Context(), f, a.students, logger)
			if err != nil {
				return fmt.Errorf("import %s: %w (%d students imported before the failure)", args[0], err, result.Imported)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imported %d students\n", result.Imported)
			for _, s := range result.Skipped {
				fmt.Fprintf(out, "  skipped row %d: %s\n", s.Row, s.Reason)
			}
			return nil
		},
	}
}
