package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/servnest/servnest"
	"github.com/servnest/servnest/internal/logger"
	"github.com/servnest/servnest/pkg/client"
)

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
}

// RunFlags holds overrides for the run command on top of the config file.
type RunFlags struct {
	Command   string
	URL       string
	WorkDir   string
	NoBrowser bool
}

// ClientFlags holds connection flags for commands that talk to a running
// launcher over its control API.
type ClientFlags struct {
	APIUrl     string
	APITimeout time.Duration
}

func buildRoot() *cobra.Command {
	gf := &GlobalFlags{}

	root := &cobra.Command{
		Use:   "servnest",
		Short: "Launcher and supervisor for a locally hosted web service",
		Long: "servnest spawns one local web server, shows its classified output,\n" +
			"polls the URL until the service is ready and opens it in the browser.",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if gf.Verbose {
				level = slog.LevelDebug
			}
			logger.Setup(os.Stderr, level, true)
		},
	}
	root.PersistentFlags().StringVarP(&gf.ConfigPath, "config", "c", "servnest.toml", "path to TOML config file")
	root.PersistentFlags().BoolVarP(&gf.Verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRunCmd(gf))
	root.AddCommand(newStatusCmd())
	root.AddCommand(newStopCmd())
	root.AddCommand(newEventsCmd())
	return root
}

func loadConfig(gf *GlobalFlags) (*servnest.Config, error) {
	if _, err := os.Stat(gf.ConfigPath); err != nil {
		if os.IsNotExist(err) {
			return servnest.DefaultConfig(), nil
		}
		return nil, err
	}
	return servnest.LoadConfig(gf.ConfigPath)
}

func newRunCmd(gf *GlobalFlags) *cobra.Command {
	rf := &RunFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the server and supervise it until interrupted",
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := loadConfig(gf)
			if err != nil {
				return err
			}
			if rf.Command != "" {
				c.Command = rf.Command
				c.Candidates = nil
			}
			if rf.URL != "" {
				c.URL = rf.URL
			}
			if rf.WorkDir != "" {
				c.WorkDir = rf.WorkDir
			}
			if rf.NoBrowser {
				c.OpenBrowser = false
			}
			return runLauncher(c)
		},
	}
	cmd.Flags().StringVar(&rf.Command, "command", "", "server command (overrides config)")
	cmd.Flags().StringVar(&rf.URL, "url", "", "server base URL (overrides config)")
	cmd.Flags().StringVar(&rf.WorkDir, "workdir", "", "server working directory (overrides config)")
	cmd.Flags().BoolVar(&rf.NoBrowser, "no-browser", false, "do not open the URL when the server is ready")
	return cmd
}

func addClientFlags(cmd *cobra.Command, cf *ClientFlags) {
	cmd.Flags().StringVar(&cf.APIUrl, "api-url", client.DefaultConfig().BaseURL, "control API base URL")
	cmd.Flags().DurationVar(&cf.APITimeout, "api-timeout", client.DefaultConfig().Timeout, "control API request timeout")
}

func newAPIClient(cf *ClientFlags) *client.Client {
	return client.New(client.Config{BaseURL: cf.APIUrl, Timeout: cf.APITimeout})
}

func newStatusCmd() *cobra.Command {
	cf := &ClientFlags{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of a running launcher",
		RunE: func(_ *cobra.Command, _ []string) error {
			st, err := newAPIClient(cf).Status(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("name    : %s\n", st.Name)
			fmt.Printf("state   : %s\n", st.State)
			fmt.Printf("running : %v\n", st.Running)
			if st.Running {
				fmt.Printf("pid     : %d\n", st.PID)
				fmt.Printf("since   : %s\n", st.StartedAt.Format(time.RFC3339))
			}
			fmt.Printf("url     : %s\n", st.URL)
			return nil
		},
	}
	addClientFlags(cmd, cf)
	return cmd
}

func newStopCmd() *cobra.Command {
	cf := &ClientFlags{}
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Ask a running launcher to stop its server",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := newAPIClient(cf).Stop(context.Background()); err != nil {
				return err
			}
			fmt.Println("stop requested")
			return nil
		},
	}
	addClientFlags(cmd, cf)
	return cmd
}

func newEventsCmd() *cobra.Command {
	cf := &ClientFlags{}
	var n int
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print recent server output from a running launcher",
		RunE: func(_ *cobra.Command, _ []string) error {
			evs, err := newAPIClient(cf).Events(context.Background(), n)
			if err != nil {
				return err
			}
			for _, e := range evs {
				fmt.Println(renderLine(e.At, e.Text, servnest.Severity(e.Severity)))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 100, "maximum number of events")
	addClientFlags(cmd, cf)
	return cmd
}
