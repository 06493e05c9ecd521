// The main package for the golunch executable.
package main

import "golunch/cmd"

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
