package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ayusman/wavein/internal/app"
	"github.com/ayusman/wavein/internal/store"
)

var (
	enrollStudentID  string
	enrollDepartment string
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <name>",
	Short: "Capture face samples for a person from the camera",
	Long: `Capture face samples for a person from the camera.

The person is added to the roster if no student with that name exists.
Press Ctrl+C to stop early and keep the samples captured so far.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEnroll(cmd.Context(), &store.Student{
			Name:       args[0],
			StudentID:  enrollStudentID,
			Department: enrollDepartment,
		})
	},
}

func init() {
	enrollCmd.Flags().StringVar(&enrollStudentID, "id", "", "student ID recorded on the roster")
	enrollCmd.Flags().StringVar(&enrollDepartment, "department", "", "department recorded on the roster")
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(ctx context.Context, st *store.Student) error {
	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" {
		return errors.New("name is required")
	}

	rt, err := app.Open(cfg, app.Options{})
	if err != nil {
		return err
	}
	defer rt.Close()

	existing, err := rt.Store.Students().GetByName(st.Name)
	switch {
	case err == nil:
		log.Printf("%s is already on the roster (%s), adding samples", existing.Name, existing.ID)
		err = rt.Session.Start(st.Name)
	case errors.Is(err, store.ErrNotFound):
		err = rt.AddStudent(st)
	}
	if err != nil {
		return err
	}

	if err := rt.App.Start(); err != nil {
		return fmt.Errorf("start camera: %w", err)
	}

	bar := progressbar.NewOptions(cfg.Enroll.Samples,
		progressbar.OptionSetDescription("Enrolling "+st.Name),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		status := rt.Session.Status()
		bar.Set(status.SamplesCollected)
		if !status.Active {
			bar.Finish()
			fmt.Fprintln(os.Stderr)
			fmt.Printf("Enrolled %s with %d samples (%d gallery entries)\n", st.Name, status.SamplesCollected, rt.Gallery.Count(st.Name))
			return nil
		}

		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr)
			if err := rt.Session.Complete(); err != nil {
				return err
			}
			fmt.Printf("Stopped early: kept %d samples for %s\n", rt.Session.Status().SamplesCollected, st.Name)
			return nil
		case <-rt.App.Done():
			return errors.New("camera stopped before enrollment finished")
		case <-ticker.C:
		}
	}
}
