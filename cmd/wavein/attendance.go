package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/wavein/internal/app"
	"github.com/ayusman/wavein/internal/attendance"
)

var attendanceDate string

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Read the attendance ledger",
}

var attendanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attendance records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, closeFn, err := openLedger()
		if err != nil {
			return err
		}
		defer closeFn()

		var records []attendance.Record
		switch attendanceDate {
		case "":
			records, err = ledger.List()
		case "today":
			records, err = ledger.Today()
		default:
			if _, perr := time.Parse(attendance.DateLayout, attendanceDate); perr != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD or today: %w", perr)
			}
			records, err = ledger.ByDate(attendanceDate)
		}
		if err != nil {
			return fmt.Errorf("read attendance: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("No attendance records.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tDATE\tTIME\tSTATUS")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.Date, r.Time, r.Status)
		}
		return w.Flush()
	},
}

var attendanceExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the ledger as CSV to file, or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, closeFn, err := openLedger()
		if err != nil {
			return err
		}
		defer closeFn()

		if len(args) == 0 {
			return ledger.Export(os.Stdout)
		}

		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("create %s: %w", args[0], err)
		}
		if err := ledger.Export(f); err != nil {
			f.Close()
			return fmt.Errorf("export attendance: %w", err)
		}
		return f.Close()
	},
}

func init() {
	attendanceListCmd.Flags().StringVar(&attendanceDate, "date", "", "only records for this day (YYYY-MM-DD or today)")
	attendanceCmd.AddCommand(attendanceListCmd, attendanceExportCmd)
	rootCmd.AddCommand(attendanceCmd)
}

// openLedger opens the ledger without starting the camera or loading models.
func openLedger() (*attendance.Ledger, func(), error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	ledger, err := app.OpenLedger(cfg, st, time.Now)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return ledger, func() { st.Close() }, nil
}
