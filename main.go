// ABOUTME: Entry point for the vcfmerge CLI
// ABOUTME: Hands control to the cobra command tree
package main

import "github.com/harperreed/vcfmerge/cli"

func main() {
	cli.Execute()
}
