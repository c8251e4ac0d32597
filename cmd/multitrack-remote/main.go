// ABOUTME: Command-line remote control for a multitrack player
// ABOUTME: Discovers players via mDNS and sends transport commands over websocket
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/Sendspin/multitrack-go/internal/config"
	"github.com/Sendspin/multitrack-go/internal/discovery"
	"github.com/Sendspin/multitrack-go/pkg/protocol"
)

var (
	serverAddr = pflag.StringP("server", "s", "", "Player address host:port (skip mDNS)")
	timeout    = pflag.Duration("timeout", 3*time.Second, "mDNS discovery timeout")
	watch      = pflag.BoolP("watch", "w", false, "Keep running and print transport events")
	debug      = pflag.Bool("debug", false, "Enable debug logging")
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: multitrack-remote [flags] <command> [args]

Commands:
  list                      discover players on the network
  status                    print the player's tracks and state
  play | pause | stop | reload
  seek <delta>              move by a signed delta (e.g. -10s)
  seek_to <position>        jump to an absolute position
  set_delay <index> <delay> change one track's delay
  set_gain <index> <gain>   change one track's gain

`)
		pflag.PrintDefaults()
	}
	pflag.Parse()

	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(logrus.WarnLevel)
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := run(pflag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		pflag.Usage()
		return fmt.Errorf("missing command")
	}

	if args[0] == "list" {
		return list()
	}

	var cmd *protocol.TransportCommand
	if args[0] != "status" {
		c, err := parseCommand(args)
		if err != nil {
			return err
		}
		cmd = &c
	}

	addr, path, err := resolve()
	if err != nil {
		return err
	}

	client := protocol.NewClient(protocol.Config{
		ServerAddr: addr,
		Path:       path,
		Name:       "multitrack-remote",
	})
	if err := client.Connect(); err != nil {
		return err
	}
	defer client.Close()

	if cmd == nil {
		printHello(client.Hello())
	} else if err := client.SendCommand(*cmd); err != nil {
		return fmt.Errorf("failed to send %s: %w", cmd.Command, err)
	}

	if !*watch {
		// Give the server a moment to report a rejected command
		select {
		case em := <-client.Errors:
			return fmt.Errorf("%s: %s", em.Command, em.Message)
		case <-time.After(200 * time.Millisecond):
			return nil
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case st := <-client.States:
			fmt.Printf("state %s at %s\n", st.State, protocol.FromMillis(st.PositionMs))
		case pos := <-client.Positions:
			fmt.Printf("\rposition %s   ", protocol.FromMillis(pos.PositionMs))
		case fin := <-client.Finished:
			fmt.Printf("\nfinished after %s\n", protocol.FromMillis(fin.DurationMs))
		case em := <-client.Errors:
			fmt.Printf("\nerror: %s: %s\n", em.Command, em.Message)
		case <-sigChan:
			fmt.Println()
			return nil
		}
		if !client.IsConnected() {
			return fmt.Errorf("connection lost")
		}
	}
}

// parseCommand builds a transport command from CLI words
func parseCommand(args []string) (protocol.TransportCommand, error) {
	cmd := protocol.TransportCommand{Command: args[0]}

	need := func(n int) error {
		if len(args) != n+1 {
			return fmt.Errorf("%s takes %d argument(s)", args[0], n)
		}
		return nil
	}

	switch args[0] {
	case protocol.CommandPlay, protocol.CommandPause, protocol.CommandStop, protocol.CommandReload:
		if err := need(0); err != nil {
			return cmd, err
		}

	case protocol.CommandSeek, protocol.CommandSeekTo:
		if err := need(1); err != nil {
			return cmd, err
		}
		d, err := parseSigned(args[1])
		if err != nil {
			return cmd, err
		}
		if args[0] == protocol.CommandSeek {
			cmd.DeltaMs = protocol.Millis(d)
		} else {
			cmd.PositionMs = protocol.Millis(d)
		}

	case protocol.CommandSetDelay, protocol.CommandSetGain:
		if err := need(2); err != nil {
			return cmd, err
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return cmd, fmt.Errorf("invalid track index %q", args[1])
		}
		cmd.Index = index
		if args[0] == protocol.CommandSetDelay {
			d, err := config.ParseDuration(args[2])
			if err != nil {
				return cmd, err
			}
			cmd.DelayMs = protocol.Millis(d)
		} else {
			g, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return cmd, fmt.Errorf("invalid gain %q", args[2])
			}
			cmd.Gain = g
		}

	default:
		return cmd, fmt.Errorf("unknown command %q", args[0])
	}

	return cmd, nil
}

// parseSigned accepts "-10s", "+2.5s" or bare seconds
func parseSigned(s string) (time.Duration, error) {
	if len(s) > 0 && s[0] == '+' {
		s = s[1:]
	}
	return config.ParseDuration(s)
}

// resolve returns the explicit server or the first player found via mDNS
func resolve() (string, string, error) {
	if *serverAddr != "" {
		return *serverAddr, protocol.DefaultPath, nil
	}

	mgr := discovery.NewManager(discovery.Config{})
	defer mgr.Stop()

	players := mgr.Lookup(*timeout)
	if len(players) == 0 {
		return "", "", fmt.Errorf("no player found after %s (use --server)", *timeout)
	}
	return players[0].Addr(), players[0].Path, nil
}

func list() error {
	mgr := discovery.NewManager(discovery.Config{})
	defer mgr.Stop()

	players := mgr.Lookup(*timeout)
	if len(players) == 0 {
		fmt.Println("no players found")
		return nil
	}
	for _, p := range players {
		fmt.Printf("%-24s %s%s\n", p.Name, p.Addr(), p.Path)
	}
	return nil
}

func printHello(h protocol.ServerHello) {
	fmt.Printf("%s (protocol v%d): %s at %s of %s\n",
		h.Name, h.Version, h.State, protocol.FromMillis(h.PositionMs), protocol.FromMillis(h.DurationMs))
	for i, t := range h.Tracks {
		fmt.Printf("  %d %-24s delay %s gain %.2f length %s\n",
			i, t.Name, protocol.FromMillis(t.DelayMs), t.Gain, protocol.FromMillis(t.DurationMs))
	}
}
