package main

import "github.com/lepinkainen/notion-books/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
