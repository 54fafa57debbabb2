package custodian

import "github.com/xraph/custodian/id"

// ID is the primary identifier type for all Custodian entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
