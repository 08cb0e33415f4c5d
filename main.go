package main

import "github.com/soocke/sputnik-relay/cmd"

func main() {
	cmd.Execute()
}
