package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"edulift.app/membership/tools/linters/enumvalidator"
)

func main() {
	singlechecker.Main(enumvalidator.Analyzer)
}
