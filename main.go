package main

import "github.com/mj1618/focusorder/cmd"

func main() {
	cmd.Execute()
}
