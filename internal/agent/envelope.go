package agent

// Action-invocation envelope exchanged with the conversational-agent
// platform. The wire shape is fixed by the platform contract and must be
// preserved exactly, including the string-typed body values.

type Invocation struct {
	MessageVersion string      `json:"messageVersion"`
	ActionGroup    string      `json:"actionGroup"`
	APIPath        string      `json:"apiPath"`
	HTTPMethod     string      `json:"httpMethod"`
	Parameters     []Parameter `json:"parameters"`
	RequestBody    RequestBody `json:"requestBody"`

	// Opaque pass-through; echoed in the response.
	SessionAttributes       map[string]string `json:"sessionAttributes"`
	PromptSessionAttributes map[string]string `json:"promptSessionAttributes"`
}

type Parameter struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
}

type RequestBody struct {
	Content map[string]Content `json:"content"`
}

type Content struct {
	Properties []Parameter `json:"properties"`
}

// PathParameter scans the parameters list for name. Missing parameters yield
// an empty string; extraction never fails.
func (inv Invocation) PathParameter(name string) string {
	for _, p := range inv.Parameters {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

// FieldValue is a decoded body value: either a string or a coerced boolean.
// The platform sends every value as a string, including booleans.
type FieldValue struct {
	Kind FieldKind
	Str  string
	Bool bool
}

type FieldKind int

const (
	FieldString FieldKind = iota
	FieldBool
)

// coerce applies the platform's stringly-typed boolean convention:
// "true"/"True" and "false"/"False" become booleans, everything else passes
// through as a string.
func coerce(raw string) FieldValue {
	switch raw {
	case "true", "True":
		return FieldValue{Kind: FieldBool, Bool: true}
	case "false", "False":
		return FieldValue{Kind: FieldBool, Bool: false}
	default:
		return FieldValue{Kind: FieldString, Str: raw}
	}
}

// Body is the decoded request body: field name to coerced value.
type Body map[string]FieldValue

// Body extracts the named properties from
// requestBody.content["application/json"]. Missing nesting levels yield an
// empty body rather than an error.
func (inv Invocation) Body() Body {
	body := Body{}
	content, ok := inv.RequestBody.Content["application/json"]
	if !ok {
		return body
	}
	for _, p := range content.Properties {
		body[p.Name] = coerce(p.Value)
	}
	return body
}

// String returns the string value of a field, or "" when the field is
// absent or was coerced to a boolean.
func (b Body) String(name string) string {
	v, ok := b[name]
	if !ok || v.Kind != FieldString {
		return ""
	}
	return v.Str
}

// Bool returns the boolean value of a field, or false when the field is
// absent or is a plain string.
func (b Body) Bool(name string) bool {
	v, ok := b[name]
	if !ok || v.Kind != FieldBool {
		return false
	}
	return v.Bool
}

// Response is the fixed reply envelope. The status code inside is always
// 200; operation-level errors travel inside the JSON-encoded body string.
type Response struct {
	MessageVersion string          `json:"messageVersion"`
	Response       ResponseDetails `json:"response"`

	SessionAttributes       map[string]string `json:"sessionAttributes"`
	PromptSessionAttributes map[string]string `json:"promptSessionAttributes"`
}

type ResponseDetails struct {
	ActionGroup    string                     `json:"actionGroup"`
	APIPath        string                     `json:"apiPath"`
	HTTPMethod     string                     `json:"httpMethod"`
	HTTPStatusCode int                        `json:"httpStatusCode"`
	ResponseBody   map[string]ResponseContent `json:"responseBody"`
}

type ResponseContent struct {
	Body string `json:"body"`
}
