// cmd/tools/isp-context/main.go
package main

import "os"

func main() {
	os.Exit(int(Run(os.Args[1:])))
}
