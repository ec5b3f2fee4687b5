package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	camera := flag.Bool("camera", false, "enable hand tracking (overrides config)")
	flag.Parse()

	fmt.Println("Mudra - Pointer Gesture Recognition")

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *camera {
		cfg.Camera.Enabled = true
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = findWebDir(cfg.DataDir)
	}

	// Initialize the store
	dbPath := cfg.DatabasePath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	a, err := app.New(app.Config{Settings: cfg, Store: st})
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer a.Close()

	if err := a.DiscoverPlugins(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}

	if cfg.Server.StaticDir != "" {
		fmt.Printf("Serving static files from: %s\n", cfg.Server.StaticDir)
	}
	srv := server.New(server.Config{
		StaticDir: cfg.Server.StaticDir,
		Store:     st,
		Engine:    a.Engine(),
		Plugins:   a.PluginManager(),
		Camera:    a.Camera(),
	})

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
		if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()

	if !cfg.Tray {
		<-ctx.Done()
		return
	}

	t := tray.New()
	t.SetPaused(a.IsPaused())
	t.OnPause(a.SetPaused)
	t.OnSettings(func() { openBrowser(settingsURL(cfg.Server.Addr)) })
	t.OnQuit(stop)
	a.OnEvent(func(ev engine.Event) { t.SetLastGesture(ev.Type) })

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if absPath, err := filepath.Abs(p); err == nil {
				return absPath
			}
			return p
		}
	}

	if dataDir == "" {
		return ""
	}
	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}
	return ""
}

func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

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
