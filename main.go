package main

import "github.com/iksnae/llmcan/cmd"

func main() {
	cmd.Execute()
}
