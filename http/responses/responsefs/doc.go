/*
Package responsefs discovers responses declared in files.

Each file in a responses directory declares one response, named by the file name
less its extension. TOML, YAML and HCL are understood:

	# api/responses/insufficientFunds.toml
	base    = "badRequest"
	message = "insufficient funds"

	[fields]
	docs = "https://example.com/docs/errors#insufficient-funds"

	# api/responses/gone.yaml
	status: 410
	view: tmpl/gone.tmpl
	headers:
	  Cache-Control: no-store

	# api/responses/unavailable.hcl
	status  = 503
	headers = { "Retry-After" = "120" }

A declared response delegates to its base response, or to the built-in response
matching its status, passing along its declared options before those of calling code.
Bases are checked by Registry.Validate once every response is registered,
so a misspelled base or a cycle of bases fails at startup rather than on a request.
A 3xx status must declare a Location header.
*/
package responsefs
