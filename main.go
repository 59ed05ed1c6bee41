package main

import "github.com/eryajf/medqa/cmd"

func main() {
	cmd.Execute()
}
