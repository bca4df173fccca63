package main

import "github.com/ValentinKolb/dObs/cmd"

func main() {
	cmd.Execute()
}
