/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/earshot-fm/earshot/cmd"

func main() {
	cmd.Execute()
}
