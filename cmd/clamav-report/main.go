package main

import (
	"github.com/kidoz/clamav-report-go/cmd"
)

func main() {
	cmd.Execute()
}
