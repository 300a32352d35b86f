/*
Package responses maps response names to the handlers that finalize HTTP responses.

A Registry starts out with built-in responses:

	ok              200
	created         201
	badRequest      400
	forbidden       403
	notFound        404
	tooManyRequests 429
	serverError     500
	negotiate       picks one of the above from the error it is given

Applications add their own, or override built-ins, during start up:

	reg := responses.New(responses.WithEnv(trailhead.Production))
	reg.Register("insufficientFunds", func(c *responses.Context, args ...any) error {
		return c.Send(responses.BadRequest, append(args, responses.Message("insufficient funds"))...)
	})
	if err := reg.Validate(responses.Baseline...); err != nil {
		// fail start up
	}
	reg.Seal()

Handlers receive the request and response they answer through an explicit *Context,
built fresh for every invocation.
Action code reaches responses through a request-bound *Res:

	func (h *handler) withdraw(w http.ResponseWriter, r *http.Request) {
		res := responses.For(w, r)
		if err := h.bank.Withdraw(r.Context(), amount); err != nil {
			res.Send("insufficientFunds", err, responses.Merge(map[string]any{"balance": 10}))
			return
		}

		res.OK(receipt)
	}

Built-in responses negotiate between JSON and HTML.
Whether errors carry internal details, like their message or a stack trace,
depends on the environment; see WithEnv and WithExposeErrors.
Wrap an error with Public for clients to read its message in production.

Registration happens before serving requests. Seal ends it;
afterwards, a Registry is safe for concurrent use.
*/
package responses
