package main

import (
	"fmt"
	"os"

	"go-zhipin-automation/cmd/zptool/commands"
)

func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
