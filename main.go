package main

import "github.com/frahmantamala/asset-lifecycle/cmd"

func main() {
	cmd.Execute()
}
