package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "init":
		cmdInit()
	case "keys":
		cmdKeys(os.Args[2:])
	case "config-export":
		cmdConfigExport(os.Args[2:])
	case "config-import":
		cmdConfigImport(os.Args[2:])
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: tiercache <command> [options]

Commands:
  serve           Run the debug/inspect HTTP server in the foreground
  init            Generate default config file
  keys            Manage cipher keys (list|set|get|delete|rotate <name>)
  config-export   Export current config to a TOML file
  config-import   Import config from a TOML file
  help            Show this help message

Options (with 'serve'):
  --config <path>    Config file to load instead of the default search path
  --profile <name>   Profile to serve (default: "default")`)
}
