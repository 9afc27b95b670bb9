package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arnavgupta/headguard/internal/announce"
	"github.com/arnavgupta/headguard/internal/app"
	"github.com/arnavgupta/headguard/internal/clip"
	"github.com/arnavgupta/headguard/internal/server"
	"github.com/arnavgupta/headguard/internal/store"
	"github.com/arnavgupta/headguard/internal/tray"
)

var runFlags struct {
	cameraID   int
	addr       string
	dbPath     string
	staticDir  string
	clipDir    string
	clipWindow float64
	saveVideo  bool
	noTray     bool
	silent     bool
	mock       bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the collision monitor",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitor()
	},
}

func init() {
	runCmd.Flags().IntVar(&runFlags.cameraID, "camera", 0, "capture device index")
	runCmd.Flags().StringVar(&runFlags.addr, "addr", ":8080", "HTTP listen address")
	runCmd.Flags().StringVar(&runFlags.dbPath, "db", "", "SQLite database path (default ~/.headguard/headguard.db)")
	runCmd.Flags().StringVar(&runFlags.staticDir, "static", "", "dashboard static file directory")
	runCmd.Flags().StringVar(&runFlags.clipDir, "clip-dir", clip.DefaultDir, "directory for collision clips")
	runCmd.Flags().Float64Var(&runFlags.clipWindow, "clip-window", clip.DefaultWindowSeconds, "pre-event clip window in seconds")
	runCmd.Flags().BoolVar(&runFlags.saveVideo, "save-video", false, "also record the whole session to a video file")
	runCmd.Flags().BoolVar(&runFlags.noTray, "no-tray", false, "run headless without the system tray")
	runCmd.Flags().BoolVar(&runFlags.silent, "silent", false, "disable spoken alerts")
	runCmd.Flags().BoolVar(&runFlags.mock, "mock", false, "use the mock face detector instead of the MediaPipe service")
}

func runMonitor() error {
	dbPath := runFlags.dbPath
	if dbPath == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return fmt.Errorf("failed to resolve data directory: %w", err)
		}
		dbPath = filepath.Join(dir, "headguard.db")
	}

	st, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	var announcer announce.Announcer = announce.Noop{}
	if !runFlags.silent {
		announcer = announce.NewSpeech()
	}

	clipCfg := clip.DefaultConfig()
	clipCfg.Dir = runFlags.clipDir
	clipCfg.WindowSeconds = runFlags.clipWindow

	hub := server.NewHub()
	a, err := app.New(app.Config{
		Store:        st,
		Hub:          hub,
		Announcer:    announcer,
		CameraID:     runFlags.cameraID,
		SaveVideo:    runFlags.saveVideo,
		Clip:         clipCfg,
		MockDetector: runFlags.mock,
	})
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		StaticDir: runFlags.staticDir,
		Store:     st,
		Hub:       hub,
	})
	go func() {
		log.Printf("HTTP server listening on %s", runFlags.addr)
		if err := srv.ListenAndServe(runFlags.addr); err != nil {
			log.Printf("HTTP server failed: %v", err)
		}
	}()

	if err := a.Start(); err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}

	if runFlags.noTray {
		waitForSignal()
		a.Stop()
		return nil
	}

	t := tray.New()
	t.SetEnabled(a.IsEnabled())
	t.OnToggle(a.SetEnabled)
	t.OnDashboard(func() { openBrowser(dashboardURL(runFlags.addr)) })
	t.OnQuit(a.Stop)
	a.OnCollision(t.SetCollisionCount)

	// Blocks until quit is chosen from the menu.
	t.Run()
	return nil
}

func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("Shutting down")
}

func dashboardURL(addr string) string {
	if addr != "" && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// openBrowser opens the dashboard in the platform's default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}
