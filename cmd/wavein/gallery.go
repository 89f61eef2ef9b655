package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/wavein/internal/gallery"
	"github.com/ayusman/wavein/internal/plugin"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Inspect the face gallery",
}

var galleryInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show enrolled identities and their sample counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := gallery.NewFileStore(cfg.GalleryPath())
		names, _, err := fs.Load()
		if err != nil {
			return fmt.Errorf("load gallery %s: %w", fs.Path(), err)
		}

		fmt.Printf("Gallery: %s\n", fs.Path())
		fmt.Printf("Entries: %d\n", len(names))
		if len(names) == 0 {
			return nil
		}

		var order []string
		counts := make(map[string]int)
		for _, n := range names {
			if counts[n] == 0 {
				order = append(order, n)
			}
			counts[n]++
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tSAMPLES")
		for _, n := range order {
			fmt.Fprintf(w, "%s\t%d\n", n, counts[n])
		}
		return w.Flush()
	},
}

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List discovered hook plugins",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := plugin.NewManager(cfg.PluginsDir())
		if err := m.Discover(); err != nil {
			return err
		}
		plugins := m.List()
		if len(plugins) == 0 {
			fmt.Printf("No plugins in %s\n", m.PluginDir())
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tVERSION\tACTIONS\tEVENTS")
		for _, p := range plugins {
			fmt.Fprintf(w, "%s\t%s\t%v\t%v\n", p.Manifest.Name, p.Manifest.Version, p.Manifest.Actions, p.Manifest.Events)
		}
		return w.Flush()
	},
}

func init() {
	galleryCmd.AddCommand(galleryInfoCmd)
	rootCmd.AddCommand(galleryCmd, pluginsCmd)
}
