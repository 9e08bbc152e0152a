package main

import "shortlink/cmd"

func main() {
	cmd.Execute()
}
