package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether a nuptune server is running for this app-data directory",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	pid, err := readPIDFile()
	if err != nil {
		fmt.Println("not running (no pid file)")
		return nil
	}

	if !processAlive(pid) {
		fmt.Printf("not running (stale pid file for pid %d)\n", pid)
		return nil
	}

	baseURL := "http://" + localAddr(viper.GetString("bind"))
	if probeHealthz(baseURL) {
		fmt.Printf("running (pid %d, %s)\n", pid, baseURL)
		return nil
	}

	fmt.Printf("pid %d is alive but not responding on %s\n", pid, baseURL)
	return nil
}

// readPIDFile reads and parses the PID recorded by a running server.
func readPIDFile() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// processAlive reports whether pid refers to a live process, using the
// signal-0 convention: FindProcess always succeeds on Unix, so Signal(0)
// is what actually probes for existence.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

func probeHealthz(baseURL string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
