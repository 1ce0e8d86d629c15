package main

import "github.com/user/adboard/cmd"

func main() {
	cmd.Execute()
}
