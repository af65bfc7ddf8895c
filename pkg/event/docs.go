package event

// swagger:response EventStream
type _ struct {
	// Server-sent event stream, each event carries a JSON payload
	//in: body
	_ string
}
