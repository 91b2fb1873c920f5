package main

import "github.com/cardiokit/ecg-pipeline/cmd"

func main() {
	cmd.Execute()
}
