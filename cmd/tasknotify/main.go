// tasknotify - Task deadline notifications for the CRM
// Author: Ariel Frischer

package main

import (
	"os"

	"github.com/ariel-frischer/tasknotify/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
