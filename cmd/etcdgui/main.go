package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Evanescentum/etcd-gui/pkg/config"
	"github.com/Evanescentum/etcd-gui/pkg/debug"
	"github.com/Evanescentum/etcd-gui/pkg/etcdkv"
	"github.com/Evanescentum/etcd-gui/pkg/history"
	"github.com/Evanescentum/etcd-gui/pkg/ui"
	"github.com/Evanescentum/etcd-gui/pkg/version"
	"github.com/Evanescentum/etcd-gui/pkg/watcher"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	configPath := flag.String("config", "", "Path to config.json (defaults to the XDG config directory)")
	debugFlag := flag.Bool("debug", false, "Write a debug log to the state directory")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *help {
		fmt.Println("Usage: etcdgui [options]")
		fmt.Println("\nA TUI client for browsing and editing etcd key-value data.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("etcdgui %s\n", version.Version)
		os.Exit(0)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *debugFlag {
		debug.Enable("")
	}

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = config.Path()
	}
	if cfgPath == "" {
		fmt.Fprintln(os.Stderr, "Cannot determine config directory; pass --config")
		os.Exit(1)
	}

	cfg, err := config.LoadFrom(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Path history is a convenience; a broken database must not keep the
	// browser from starting.
	hist, err := history.Open()
	if err != nil {
		debug.Log("opening path history: %v", err)
		hist = nil
	}
	if hist != nil {
		defer hist.Close()
	}

	sess := etcdkv.NewSession()
	sess.SetProfile(cfg.Current())

	// Watch the config file so edits from other tools are picked up live.
	var cfgWatcher *watcher.Watcher
	if w, err := watcher.New(cfgPath); err == nil {
		if err := w.Start(); err == nil {
			cfgWatcher = w
			defer w.Stop()
		}
	}

	m := ui.NewModel(cfg, cfgPath, sess, hist, cfgWatcher)
	if err := runTUIProgram(m); err != nil {
		fmt.Fprintf(os.Stderr, "Error running etcdgui: %v\n", err)
		os.Exit(1)
	}
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set ETCD_GUI_AUTOCLOSE_MS.
	if v := os.Getenv("ETCD_GUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted)) {
		return nil
	}
	return err
}
