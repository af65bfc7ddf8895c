// Package docs contains types which only exist so go-swagger can generate the API
// specification from them.
package docs

// Error is the plain text body returned with every non 2xx response.
//
// swagger:response
type Error struct {
	// in: body
	Message string
}
