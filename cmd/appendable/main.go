// Command appendable tracks time as blocks and nested entries.
package main

import "github.com/mesh-intelligence/appendable/internal/cli"

func main() {
	cli.Execute()
}
