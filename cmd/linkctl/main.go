package main

import "github.com/tessro/linkctl/internal/cli"

func main() {
	cli.Execute()
}
