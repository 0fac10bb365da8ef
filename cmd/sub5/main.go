package main

import "github.com/Pavlovskyi-Andrii/sub5-project/internal/cmd"

func main() {
	cmd.Execute()
}
