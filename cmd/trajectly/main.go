// Command trajectly is the CLI entrypoint: record baselines, run
// specs, inspect them, and serve or audit the results it persists.
package main

import "github.com/trajectly/trajectly/internal/cli"

func main() {
	cli.Execute()
}
