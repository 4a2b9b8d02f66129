package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/academia/core"
	logsvc "github.com/trezcool/academia/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	cli := commandLine{
		conf:   conf,
		logger: logger,
		in:     os.Stdin,
		out:    os.Stdout,
	}
	err := cli.run(os.Args[1:])
	cli.close()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", errorMessage(err))
		}
		os.Exit(1)
	}
}
