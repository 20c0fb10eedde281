// Command validate-config resolves the configuration the server would use and prints it with secrets masked.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/cppla/caltrack/config"
)

func main() {
	path := flag.String("config", config.DefaultPath, "path to the JSON config file")
	envFile := flag.String("env", ".env", "dotenv file loaded before resolving")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	cfg, err := config.LoadFrom(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration invalid:\n%v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(cfg.Masked(), "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to render configuration: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
