package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/wavein/internal/app"
	"github.com/ayusman/wavein/internal/server"
	"github.com/ayusman/wavein/internal/tray"
)

var (
	serveListen string
	serveWebDir string
	serveTray   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the camera pipeline and the dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("listen") {
			cfg.Server.Listen = serveListen
		}
		if cmd.Flags().Changed("tray") {
			cfg.Tray = serveTray
		}
		webDir := serveWebDir
		if webDir == "" {
			webDir = findWebDir()
		}
		return runServe(cmd.Context(), webDir)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&serveWebDir, "web", "", "directory with the dashboard's static files")
	serveCmd.Flags().BoolVar(&serveTray, "tray", false, "show a system tray menu")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, webDir string) error {
	rt, err := app.Open(cfg, app.Options{})
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.App.Start(); err != nil {
		return fmt.Errorf("start camera: %w", err)
	}

	if webDir != "" {
		log.Printf("Serving static files from: %s", webDir)
	}
	srv := server.New(server.FromRuntime(rt, webDir))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(cfg.Server.Listen); err != nil {
			errCh <- err
			cancel()
		}
	}()
	go func() {
		select {
		case <-rt.App.Done():
			log.Println("Capture loop stopped")
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.Tray {
		runTray(ctx, cancel, rt)
	} else {
		<-ctx.Done()
	}

	log.Println("Shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// runTray blocks in the tray's event loop until ctx is done or Quit is chosen.
func runTray(ctx context.Context, cancel context.CancelFunc, rt *app.Runtime) {
	t := tray.New(func() tray.Status {
		name, at := rt.Pipeline.LastMark()
		st := tray.Status{LastName: name, LastAt: at}
		if s := rt.Session.Status(); s.Active {
			st.Enrolling = s.Name
		}
		return st
	}, time.Second)

	t.OnToggle(func(enabled bool) {
		rt.App.SetEnabled(enabled)
		log.Printf("Detection enabled: %v", enabled)
	})
	t.OnDashboard(func() {
		if err := openBrowser(dashboardURL(cfg.Server.Listen)); err != nil {
			log.Printf("Failed to open dashboard: %v", err)
		}
	})
	t.OnQuit(cancel)

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

func dashboardURL(listen string) string {
	if strings.HasPrefix(listen, ":") {
		listen = "localhost" + listen
	}
	return "http://" + listen + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and the data directory.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	dataWeb := filepath.Join(cfg.DataDir, "web")
	if info, err := os.Stat(dataWeb); err == nil && info.IsDir() {
		return dataWeb
	}
	return ""
}
