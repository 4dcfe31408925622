// Package session tags one CLI invocation with a correlation id so
// interleaved log output from concurrent commands stays attributable.
package session

import (
	"log"
	"os"

	"github.com/google/uuid"
)

// New generates a session id and a *log.Logger prefixed with it,
// writing to stderr like the rest of this CLI's output.
func New() (id string, logger *log.Logger) {
	id = uuid.NewString()
	logger = log.New(os.Stderr, "[sess="+id+"] ", log.LstdFlags)
	return id, logger
}
