package main

import "github.com/faffage/faff/cmd"

func main() {
	cmd.Execute()
}
