package main

import "github.com/aweris/dircache/cmd/dircache/cmd"

func main() {
	cmd.Execute()
}
