// Command healthcheck checks a local credpanel server and exits 0 when
// /api/v1/health reports status "ok". It is meant for container HEALTHCHECK
// directives, so it prints nothing.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"
)

const (
	defaultAddr  = "127.0.0.1:8080"
	requestTimeout = 2 * time.Second
)

func main() {
	if err := checkHealth(context.Background(), http.DefaultClient, targetAddr(os.Getenv("CREDPANEL_LISTEN_ADDR"))); err != nil {
		os.Exit(1)
	}
}

// checkHealth fetches the health endpoint at addr and checks its status field.
func checkHealth(ctx context.Context, client *http.Client, addr string) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/api/v1/health", nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health returned %d", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	if body.Status != "ok" {
		return fmt.Errorf("health status %q", body.Status)
	}
	return nil
}

// targetAddr maps the server's listen address onto one the check can dial.
// Wildcard hosts become loopback since the check runs next to the server.
func targetAddr(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return defaultAddr
	}

	switch host {
	case "", "0.0.0.0":
		host = "127.0.0.1"
	case "::":
		host = "::1"
	}
	return net.JoinHostPort(host, port)
}
