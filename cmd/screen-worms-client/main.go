// Command screen-worms-client runs a headless screen-worms client,
// bridging a UDP game server and a line-oriented TCP GUI.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Kulezi/SK-Screen-Worms/client"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s game_server [-n player_name] [-p n] [-i addr] [-r n]\n", os.Args[0])
		flag.PrintDefaults()
	}

	port := flag.Int("p", client.DefaultServerPort, "server port")
	guiHost := flag.String("i", client.DefaultGUIHost, "gui server address")
	guiPort := flag.Int("r", client.DefaultGUIPort, "gui server port")
	name := flag.String("n", "", "player name")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := client.Config{
		PlayerName: *name,
		ServerHost: flag.Arg(0),
		ServerPort: *port,
		GUIHost:    *guiHost,
		GUIPort:    *guiPort,
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)

	c, err := client.NewClient(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "screen-worms-client:", err)
		os.Exit(1)
	}

	if err := c.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "screen-worms-client:", err)
		os.Exit(1)
	}
}
