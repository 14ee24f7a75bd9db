package main

import "go-wanandroid/internal/cli"

func main() {
	cli.Execute()
}
