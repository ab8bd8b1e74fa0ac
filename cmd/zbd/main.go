package main

import "github.com/deploymenttheory/go-zbd/cmd"

func main() {
	cmd.Execute()
}
