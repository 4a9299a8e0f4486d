/*
Copyright © 2022 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/redneckbeard/rbprof/cmd"

func main() {
	cmd.Execute()
}
