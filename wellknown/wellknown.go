// package wellknown serves the discovery endpoints: webfinger, host-meta, and
// the ActivityPub actor documents for bridged domains.
package wellknown

import (
	"github.com/fedbridge/fedbridge/models"
)

type Env struct {
	*models.Env
}
