package main

import "github.com/tcx-health/scanbar/cmd/scanbar/cmd"

func main() {
	cmd.Execute()
}
