package badger

import (
	"fmt"

	"github.com/poiesic/docdex/core"
)

// Key prefixes for different data types
const (
	documentPrefix = "docrec"
	counterPrefix  = "rlcnt"
	jobPrefix      = "jobrec"
	vectorPrefix   = "vecrec"
)

// makeDocumentKey generates a key for a document record.
// Format: prefix:owner:hash — owner first so one owner's records are
// contiguous in key order.
func makeDocumentKey(hash core.ContentHash, owner string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", documentPrefix, owner, hash))
}

// makeCounterKey generates a key for a rate-limit counter.
// Format: prefix:subject:action
func makeCounterKey(subject, action string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", counterPrefix, subject, action))
}

// makeJobKey generates a key for a job record by ID.
func makeJobKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", jobPrefix, id))
}

// makeVectorKey generates a key for a vector record.
// Format: prefix:namespace:id
func makeVectorKey(namespace, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", vectorPrefix, namespace, id))
}

// makeVectorNamespacePrefix generates the iteration prefix for one
// namespace's vector records.
func makeVectorNamespacePrefix(namespace string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", vectorPrefix, namespace))
}
