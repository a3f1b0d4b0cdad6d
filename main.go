package main

import "github.com/iksnae/modular-chat/cmd"

func main() {
	cmd.Execute()
}
