package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/wavein/internal/store"
)

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "Manage the student roster",
}

var studentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List students on the roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		students, err := st.Students().List()
		if err != nil {
			return fmt.Errorf("list students: %w", err)
		}
		if len(students) == 0 {
			fmt.Println("No students on the roster.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTUDENT ID\tDEPARTMENT\tREGISTERED")
		for _, s := range students {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.StudentID, s.Department, s.RegisteredAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var studentsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a student and capture their face samples",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEnroll(cmd.Context(), &store.Student{
			Name:       args[0],
			StudentID:  enrollStudentID,
			Department: enrollDepartment,
		})
	},
}

var studentsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a student from the roster; gallery samples are kept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Students().Delete(args[0]); err != nil {
			return fmt.Errorf("remove student %s: %w", args[0], err)
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

func init() {
	studentsAddCmd.Flags().StringVar(&enrollStudentID, "id", "", "student ID recorded on the roster")
	studentsAddCmd.Flags().StringVar(&enrollDepartment, "department", "", "department recorded on the roster")

	studentsCmd.AddCommand(studentsListCmd, studentsAddCmd, studentsRemoveCmd)
	rootCmd.AddCommand(studentsCmd)
}
