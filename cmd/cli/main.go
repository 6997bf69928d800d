// trackstat answers questions about comma separated music track datasets.
package main

import (
	"os"

	"github.com/ccollicutt/trackstat/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
