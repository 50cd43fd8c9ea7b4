package main

import "github.com/ByLCY/weeed/cmd"

func main() {
	cmd.Execute()
}
