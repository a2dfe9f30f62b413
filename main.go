package main

import "github.com/voxnote/snippets-api/cmd"

func main() {
	cmd.Execute()
}
