// ABOUTME: Entry point for the multitrack player
// ABOUTME: Parses CLI flags, loads the session and runs the player application
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/Sendspin/multitrack-go/internal/app"
	"github.com/Sendspin/multitrack-go/internal/config"
	"github.com/Sendspin/multitrack-go/internal/version"
)

var (
	configPath  = pflag.StringP("config", "c", "", "Session file (TOML)")
	tracks      = pflag.StringArrayP("track", "t", nil, "Track to add as path[@delay[:gain]] (repeatable)")
	engine      = pflag.String("engine", "", "Render engine: oto or memory")
	loop        = pflag.Bool("loop", false, "Restart from the top when the group finishes")
	paused      = pflag.Bool("paused", false, "Load the session without starting playback")
	remoteOn    = pflag.Bool("remote", false, "Enable the websocket remote control")
	port        = pflag.Int("port", 8928, "Remote control port")
	noMDNS      = pflag.Bool("no-mdns", false, "Disable mDNS advertisement of the remote control")
	name        = pflag.String("name", "", "Player friendly name (default: hostname-multitrack)")
	logFile     = pflag.String("log-file", "", "Log file path (default from config: multitrack.log)")
	logLevel    = pflag.String("log-level", "", "Log level: trace, debug, info, warn, error")
	noTUI       = pflag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	streamLogs  = pflag.Bool("stream-logs", false, "Alias for --no-tui")
	showVersion = pflag.Bool("version", false, "Print version and exit")
)

func main() {
	pflag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	session, err := loadSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	useTUI := !(*noTUI || *streamLogs)

	// Set up logging
	logrus.SetLevel(session.LogLevel())
	f, err := os.OpenFile(session.Logging.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		logrus.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		logrus.SetOutput(f)
	} else {
		logrus.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	playerName := *name
	if playerName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		playerName = fmt.Sprintf("%s-multitrack", hostname)
	}

	log := logrus.WithField("player", playerName)
	log.Infof("Starting %s", version.String())

	player, err := app.New(app.Config{
		Session: session,
		Name:    playerName,
		UseTUI:  useTUI,
		OnError: func(err error) {
			log.WithError(err).Error("Player error")
		},
		Logger: log,
	})
	if err != nil {
		log.Fatalf("Failed to create player: %v", err)
	}

	if err := player.LoadTracks(); err != nil {
		// Keep going with whatever loaded
		log.Warnf("Some tracks could not be loaded: %v", err)
	}

	if err := player.Start(!*paused); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := player.Run(ctx); err != nil {
		log.Errorf("Run error: %v", err)
	}

	if err := player.Close(); err != nil {
		log.Errorf("Error closing player: %v", err)
	}
}

// loadSession merges the config file, positional tracks and flags.
// Flags win over file values.
func loadSession() (*config.Config, error) {
	session := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		session = loaded
	}

	specs := append(append([]string{}, *tracks...), pflag.Args()...)
	for _, spec := range specs {
		t, err := config.ParseTrack(spec)
		if err != nil {
			return nil, err
		}
		session.Tracks = append(session.Tracks, t)
	}

	flags := pflag.CommandLine
	if flags.Changed("engine") {
		session.Player.Engine = *engine
	}
	if flags.Changed("loop") {
		session.Player.Loop = *loop
	}
	if flags.Changed("remote") {
		session.Remote.Enabled = *remoteOn
	}
	if flags.Changed("port") {
		session.Remote.Port = *port
	}
	if flags.Changed("no-mdns") {
		session.Remote.MDNS = !*noMDNS
	}
	if flags.Changed("name") {
		session.Remote.Name = *name
	}
	if flags.Changed("log-file") {
		session.Logging.File = *logFile
	}
	if flags.Changed("log-level") {
		session.Logging.Level = *logLevel
	}

	if len(session.Tracks) == 0 {
		return nil, fmt.Errorf("no tracks: pass --config, --track or file arguments")
	}
	if err := session.Validate(); err != nil {
		return nil, err
	}
	return session, nil
}
