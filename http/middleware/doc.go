/*
The middleware package defines what a middleware is in trailhead and a set of basic middlewares.

The available middlewares are:
- CORS
- ForceHTTPS
- InjectIPAddress
- InjectResponses
- LogRequest
- RateLimit
- Recover
- ReportPanic
- RequestID

Due to the amount of configuration required, middleware does not provide a default middleware chain
Instead, the following can be copy-pasted:

	vs := middleware.NewVisitors()
	adpts := []middleware.Adapter{
		middleware.Recover(reg),
		middleware.ReportPanic(env),
		middleware.InjectResponses(reg),
		middleware.RateLimit(vs, reg),
		middleware.ForceHTTPS(env),
		middleware.RequestID(),
		middleware.InjectIPAddress(),
		middleware.LogRequest(log),
		middleware.CORS(baseURL),
	}
*/
package middleware
