package logging

import (
	"log"
	"os"

	"github.com/safetyserv/safetyserv/version"
)

func init() {
	log.SetOutput(os.Stdout)
	log.SetPrefix("[safetyserv] ")
	log.SetFlags(log.LstdFlags | log.Lshortfile | log.Lmicroseconds)

	log.Println("Version:", version.Short())
}
