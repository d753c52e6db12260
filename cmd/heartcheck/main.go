package main

import "github.com/koscakluka/ema-heartcheck/internal/cli"

func main() {
	cli.Execute()
}
