package cli

import (
	"fmt"
	"strings"

	"cybercase/internal/commands"
	"cybercase/internal/output"
	"cybercase/internal/version"
)

func Run(args []string) int {
	if len(args) < 2 {
		return commands.RunServe(nil)
	}

	switch args[1] {
	case "-h", "--help", "help":
		output.Println(usage())
		return 0
	case "-v", "--version", "version":
		output.Printf("cybercase %s (build %s)\n", version.Version, version.Build)
		return 0
	case "reset-password":
		return commands.ResetPassword(args[2:])
	case "serve":
		return commands.RunServe(args[2:])
	default:
		// everything else is a serve flag
		return commands.RunServe(args[1:])
	}
}

func usage() string {
	b := &strings.Builder{}
	fmt.Fprintln(b, "Cybercase - cybercrime case management server")
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, "Usage:")
	fmt.Fprintln(b, "  cybercase [flags]                  start the API server")
	fmt.Fprintln(b, "  cybercase <command> [args]")
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, "Flags:")
	fmt.Fprintln(b, "  -p, --port PORT       listen port")
	fmt.Fprintln(b, "  -b, --bind ADDR       bind address (default 0.0.0.0)")
	fmt.Fprintln(b, "      --debug           debug logging and SQL tracing")
	fmt.Fprintln(b, "  -h, --help            show this help")
	fmt.Fprintln(b, "  -v, --version         show version")
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, "Commands:")
	fmt.Fprintln(b, "  serve            start the API server (default)")
	fmt.Fprintln(b, "  reset-password   set a user's password without the current one")
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, "Configuration is read from CYBERCASE_CONFIG (or data/cybercase.json next")
	fmt.Fprintln(b, "to the binary), then .env, then CYBERCASE_* environment variables.")
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, "Examples:")
	fmt.Fprintln(b, "  cybercase                               # start the server")
	fmt.Fprintln(b, "  cybercase -p 9090 -b 127.0.0.1          # custom port and address")
	fmt.Fprintln(b, "  cybercase reset-password admin s3cret!  # recover the admin account")
	return b.String()
}
