package main

import "clia-tracker/cmd"

func main() {
	cmd.Execute()
}
