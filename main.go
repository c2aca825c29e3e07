package main

import "github.com/strrl/torque-analyzer/internal/cmd"

func main() {
	cmd.Execute()
}
