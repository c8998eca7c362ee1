// Package policy holds the per-object authorization predicates used by the API.
package policy

import "net/http"

type Operation int

const (
	Read Operation = iota
	Write
)

// Object is anything with an owning user and a visibility flag.
type Object interface {
	OwnerID() int64
	Public() bool
}

// OperationFor classifies an HTTP method. GET, HEAD and OPTIONS are reads.
func OperationFor(method string) Operation {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return Read
	default:
		return Write
	}
}

// IsOwner allows the operation only to the object's owner.
func IsOwner(callerID int64, obj Object) bool {
	return obj.OwnerID() == callerID
}

// IsOwnerOrPublicRead allows the owner anything and everyone else reads of
// public objects.
func IsOwnerOrPublicRead(callerID int64, obj Object, op Operation) bool {
	if IsOwner(callerID, obj) {
		return true
	}
	return obj.Public() && op == Read
}
