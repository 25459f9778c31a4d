package main

import (
	"github.com/NVIDIA/grafana-provisioner/pkg/cli"
)

func main() {
	cli.Execute()
}
