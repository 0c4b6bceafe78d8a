package main

import "github.com/philipz/deepwiki-md-chrome-extension/cmd"

func main() {
	cmd.Execute()
}
