package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loopkv/loopkv/pkg/client"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "loopkv-client <set|get|del> key [value]",
		Short: "Send one framed request to a loopkv server and print the response",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(addr, args)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:3333", "loopkv server address")
	return cmd
}

func runCommand(addr string, args []string) error {
	c, err := client.New(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	verb, key := args[0], args[1]
	switch verb {
	case "set":
		if len(args) != 3 {
			return fmt.Errorf("set requires a key and a value")
		}
		if err := c.Set(key, args[2]); err != nil {
			return err
		}
		fmt.Printf("set %s to %s\n", key, args[2])
	case "get":
		value, err := c.Get(key)
		if err == client.ErrKeyNotFound {
			fmt.Println("key not found")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("get %s = %s\n", key, value)
	case "del":
		err := c.Del(key)
		if err == client.ErrKeyNotFound {
			fmt.Printf("key %s not found\n", key)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("key %s deleted\n", key)
	default:
		return fmt.Errorf("unknown command: %s", verb)
	}
	return nil
}
