package main

import (
	"fmt"
	"os"

	cli "github.com/spf13/pflag"

	"jarvis/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", "", "Daemon control socket path")
	cli.Parse()

	cmd := "trigger"
	if args := cli.Args(); len(args) > 0 {
		cmd = args[0]
	}

	reply, err := ipc.Send(*socket, cmd)
	if err != nil {
		fmt.Println("jarvis-daemon not running:", err)
		os.Exit(1)
	}

	if reply.Err != "" {
		fmt.Println("error:", reply.Err)
		os.Exit(1)
	}
	if reply.State != "" {
		fmt.Println(reply.State)
	}
}
