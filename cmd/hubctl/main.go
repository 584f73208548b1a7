// Command hubctl is a thin HTTP client for operational smoke-checks
// against a running hub: pinging its health endpoint and listing rooms.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	addr := flag.String("addr", "http://localhost:3000", "hub base URL")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: hubctl [-addr URL] <ping|rooms|stats>")
		os.Exit(2)
	}

	client := &http.Client{Timeout: 5 * time.Second}

	var err error
	switch flag.Arg(0) {
	case "ping":
		err = get(client, *addr+"/healthz")
	case "rooms":
		err = get(client, *addr+"/api/rooms")
	case "stats":
		err = get(client, *addr+"/api/stats")
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", flag.Arg(0))
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func get(client *http.Client, url string) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty map[string]any
	if err := json.Unmarshal(body, &pretty); err != nil {
		fmt.Println(string(body))
		return nil
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s returned %s", url, resp.Status)
	}
	return nil
}
