package main

import "github.com/wagetrack/wagetrack/cmd"

func main() {
	cmd.Execute()
}
