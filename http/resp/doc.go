/*
The resp package provides a high-level API for writing HTTP responses
with an easy way to configure the responses application-wide.

resp provides four main ways of responding to an HTTP request:
- rendering HTML templates
- rendering JSON data
- negotiating between the two based on what the client accepts
- redirecting

Named responses, as found in package responses, build on a Responder.
*/
package resp
