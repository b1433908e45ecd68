package main

import (
	"os"

	"github.com/zhengshuai-xiao/HuffPar/cmd"
	"github.com/zhengshuai-xiao/HuffPar/internal"
)

var logger = internal.GetLogger("huffpar_main")

func main() {
	err := cmd.Main(os.Args)
	if err != nil {
		logger.Fatal(err)
	}
}
