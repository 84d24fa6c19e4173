package types

// Envelope is the wire shape of every API response: {result, msg, data}.
// Errors carry result=false and a human-readable msg; the machine-readable
// code rides inside data.
type Envelope struct {
	Result bool   `json:"result"`
	Msg    string `json:"msg"`
	Data   any    `json:"data"`
}

// ErrorData is placed in Envelope.Data for failed requests.
type ErrorData struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
