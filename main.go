package main

import "github.com/KaramelBytes/codeloom/cmd"

func main() {
	cmd.Execute()
}
