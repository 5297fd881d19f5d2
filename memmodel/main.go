// Package main provides the memmodel command-line tool.
package main

import "github.com/sarchlab/memmodel/memmodel/cmd"

func main() {
	cmd.Execute()
}
