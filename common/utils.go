package common

import (
	uuid "github.com/nu7hatch/gouuid"
)

// GenUUID returns a random uuid, ex: to identify a run in logs.
func GenUUID() string {
	// uuid.NewV4() only fails if crypto/rand does, retry rather than surface it
	for {
		if id, err := uuid.NewV4(); err == nil {
			return id.String()
		}
	}
}
