// Package repl is the external REPL collaborator of spec §2: it parses
// commands typed at the ">> " prompt and calls the router package's
// client originators. It is deliberately thin — the protocol engine in
// internal/router is the tested core.
package repl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/lsrsim/sospf/internal/router"
	"github.com/lsrsim/sospf/internal/topo"
)

// Run drives the interactive command loop until "quit" or EOF, grounded
// on veesix-networks-osvbng/cmd/osvbngcli/cli.go's readline.NewEx loop.
func Run(n *router.Node) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">> ",
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				n.Quit()
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if quit := dispatch(n, line); quit {
			return nil
		}
	}
}

// dispatch runs one command line, returning true if the REPL should exit.
// Unknown commands print an error and continue; exceptions are caught and
// logged so the REPL never crashes (spec §6/§7).
func dispatch(n *router.Node, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	var err error
	switch cmd {
	case "attach":
		err = cmdAttach(n, args)
	case "start":
		err = n.Start()
	case "connect":
		err = cmdConnect(n, args)
	case "disconnect":
		err = cmdDisconnect(n, args)
	case "neighbors":
		cmdNeighbors(n)
	case "detect":
		err = cmdDetect(n, args)
	case "quit":
		n.Quit()
		return true
	default:
		fmt.Printf("unknown command: %s\n", cmd)
		return false
	}

	if err != nil {
		fmt.Printf("error: %v\n", err)
	}
	return false
}

func cmdAttach(n *router.Node, args []string) error {
	endpoint, id, weight, err := parseNeighborArgs(args)
	if err != nil {
		return err
	}
	return n.Attach(endpoint, id, weight)
}

func cmdConnect(n *router.Node, args []string) error {
	endpoint, id, weight, err := parseNeighborArgs(args)
	if err != nil {
		return err
	}
	return n.Connect(endpoint, id, weight)
}

func cmdDisconnect(n *router.Node, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: disconnect <portIndex>")
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid port index %q", args[0])
	}
	return n.Disconnect(idx, false)
}

func cmdDetect(n *router.Node, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: detect <nodeId>")
	}
	path, ok := n.LSD.ShortestPath(topo.NodeId(args[0]))
	if !ok {
		fmt.Println("no shortest path to destination found")
		return nil
	}
	fmt.Println(path)
	return nil
}

func cmdNeighbors(n *router.Node) {
	slots := n.Ports.Snapshot()
	if len(slots) == 0 {
		fmt.Println("no attached neighbors")
		return
	}
	for _, s := range slots {
		fmt.Printf("port %d: %s (%s) weight=%d status=%s\n",
			s.Index, s.Link.Target.NodeId, s.Link.Target.Endpoint, s.Link.Weight, s.Link.Target.Status)
	}
}

func parseNeighborArgs(args []string) (topo.ProcessEndpoint, topo.NodeId, int, error) {
	if len(args) != 4 {
		return topo.ProcessEndpoint{}, "", 0, fmt.Errorf("usage: <cmd> <procIp> <procPort> <nodeId> <weight>")
	}
	port, err := strconv.Atoi(args[1])
	if err != nil {
		return topo.ProcessEndpoint{}, "", 0, fmt.Errorf("invalid port %q", args[1])
	}
	weight, err := strconv.Atoi(args[3])
	if err != nil {
		return topo.ProcessEndpoint{}, "", 0, fmt.Errorf("invalid weight %q", args[3])
	}
	return topo.ProcessEndpoint{Host: args[0], Port: port}, topo.NodeId(args[2]), weight, nil
}
