package main

import "github.com/e-mutai/pesa-smart-guide/cmd"

func main() {
	cmd.Execute()
}
