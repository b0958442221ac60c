package main

import "github.com/apdq/deliver-backend/cmd"

func main() {
	cmd.Execute()
}
