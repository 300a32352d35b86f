/*
Package req provides ergonomics for handling an HTTP request.

Package req provides a helper for parsing payloads in an HTTP request.
It supports JSON-encoded payloads and payloads encoded in query parameters.
In both cases, package req expects to parse payloads into a pointer to a struct.
That struct ought to leverage the appropriate struct tags for performing two tasks.
First, matching keys in the payload to fields on the struct.
Second, for validating the payload's data meets requirements.

By leveraging req, handlers can get data out of an HTTP request into its application specific structs.
Notably, the parade of errors that may propagate from such a task
are translated to trailhead sentinel errors in order to provide a consistent interface
for issues that arise across encoding types.

Errors from a malformed or invalid payload know to produce a 400,
so handlers answer them through the negotiate response:

	var body withdrawal
	if err := parser.ParseBody(r.Body, &body); err != nil {
		responses.For(w, r).Negotiate(err)
		return
	}

ValidationErrors list each issue under "validationErrors" in the error body.

Beyond the rules built into go-playground/validator, a Parser understands two tags.
"enum" requires a trailhead.Enumerable whose Valid method reports no error.
"response" requires a string usable as a response name:

	type preview struct {
		As string `json:"as" validate:"response"`
	}
*/
package req
