package logging

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mdp/qrterminal/v3"
)

// ANSI color codes.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	cyan   = "\033[36m"
	green  = "\033[32m"
	dim    = "\033[2m"
)

var logoLines = [5]string{
	`  __ _  __ _  ___ _ __ | |_  | |__  _   _| |__  `,
	` / _` + "`" + ` |/ _` + "`" + ` |/ _ \ '_ \| __| | '_ \| | | | '_ \ `,
	`| (_| | (_| |  __/ | | | |_  | | | | |_| | |_) |`,
	` \__,_|\__, |\___|_| |_|\__| |_| |_|\__,_|_.__/ `,
	`       |___/                                     `,
}

// PrintBanner prints the hub's ASCII art logo, version, and listen address
// to stderr. Colors are used only when stderr is a TTY.
func PrintBanner(ver, addr string) {
	color := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

	for _, line := range logoLines {
		if color {
			fmt.Fprintf(os.Stderr, "%s%s%s\n", bold+cyan, line, reset)
		} else {
			fmt.Fprintln(os.Stderr, line)
		}
	}

	if color {
		fmt.Fprintf(os.Stderr, "\n  %sversion%s %s   %saddr%s %s\n\n",
			dim, reset, ver, dim, reset, addr)
	} else {
		fmt.Fprintf(os.Stderr, "\n  version %s   addr %s\n\n", ver, addr)
	}
}

// addrToURL converts a listen address (e.g. ":3000", "0.0.0.0:3000") into
// an http://localhost:<port> URL.
func addrToURL(addr string) string {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		port = strings.TrimPrefix(addr, ":")
	}
	if port == "" || port == "80" {
		return "http://localhost"
	}
	return "http://localhost:" + port
}

// PrintAccessURL prints the full access URL and, on a TTY, a QR code
// encoding it -- handy when the hub is reached from a phone/tablet agent.
func PrintAccessURL(addr string) {
	url := addrToURL(addr)
	isTTY := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

	if isTTY {
		fmt.Fprintf(os.Stderr, "  %s%s➜%s  %s%s%s\n\n", bold, green, reset, bold, url, reset)
	} else {
		fmt.Fprintf(os.Stderr, "  ➜  %s\n\n", url)
	}

	if isTTY {
		qrterminal.GenerateWithConfig(url, qrterminal.Config{
			Level:          qrterminal.L,
			Writer:         os.Stderr,
			QuietZone:      1,
			HalfBlocks:     true,
			BlackChar:      qrterminal.BLACK_BLACK,
			WhiteChar:      qrterminal.WHITE_WHITE,
			BlackWhiteChar: qrterminal.BLACK_WHITE,
			WhiteBlackChar: qrterminal.WHITE_BLACK,
		})
		fmt.Fprintln(os.Stderr)
	}
}
