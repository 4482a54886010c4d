package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ConfigFlag string

func main() {
	rootCmd := &cobra.Command{
		Use:   "mimic",
		Short: "Fake Minecraft server and related tools",
		Run:   ServeCommand,
	}
	rootCmd.PersistentFlags().StringVarP(&ConfigFlag, "config", "c", "./", "Path to the directory containing the server config file")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(uuidCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
	}
}
