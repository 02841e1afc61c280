package main

import "github.com/oshokin/anya-manifestgen/cmd/manifestgen/cmd"

func main() {
	cmd.Execute()
}
