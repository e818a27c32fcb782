// The main package for the url-insights executable.
package main

import (
	"github.com/JakeFAU/url-insights/cmd"
)

func main() {
	cmd.Execute()
}
