package main

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running nuptune server for this app-data directory",
	RunE:  runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	pid, err := readPIDFile()
	if err != nil {
		fmt.Println("not running (no pid file)")
		return nil
	}
	if !processAlive(pid) {
		fmt.Printf("not running (removing stale pid file for pid %d)\n", pid)
		os.Remove(pidFilePath())
		return nil
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal process %d: %w", pid, err)
	}

	for i := 0; i < 50; i++ {
		if !processAlive(pid) {
			fmt.Printf("stopped (pid %d)\n", pid)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("process %d did not exit within 5s of SIGTERM", pid)
}
