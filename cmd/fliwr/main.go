package main

import "github.com/kingoftheravens/fliwr.io/internal/cli"

func main() {
	cli.Execute()
}
