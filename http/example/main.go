/*
Package main provides a toy example use of trailhead's named responses.

Run it, then try:

	curl -i localhost:3000/accounts/1
	curl -i -X POST 'localhost:3000/accounts/1/withdraw?amount=20'
	curl -i -X POST 'localhost:3000/accounts/1/withdraw?amount=-5'
	curl -i localhost:3000/accounts/2
	curl -i localhost:3000/accounts/3/frozen
	curl -i localhost:3000/panic
*/
package main

import (
	"embed"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/xy-planning-network/trailhead/http/req"
	"github.com/xy-planning-network/trailhead/http/responses"
	"github.com/xy-planning-network/trailhead/http/router"
	"github.com/xy-planning-network/trailhead/logger"
	"github.com/xy-planning-network/trailhead/ranger"
)

//go:embed responses
var declared embed.FS

var (
	errClosed  = errors.New("account closed")
	errNoFunds = errors.New("insufficient funds")
)

type account struct {
	Balance int  `json:"balance"`
	Closed  bool `json:"closed"`
	Frozen  bool `json:"frozen"`
}

type ledger struct {
	mu       sync.Mutex
	accounts map[string]*account
	parser   *req.Parser
}

type withdrawal struct {
	Amount int `schema:"amount" validate:"gt=0,required"`
}

func (l *ledger) withdraw(id string, amount int) (account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[id]
	if !ok {
		return account{}, responses.WithStatus(errors.New("no such account"), http.StatusNotFound)
	}

	if a.Closed {
		return *a, errClosed
	}

	if a.Balance < amount {
		return *a, errNoFunds
	}

	a.Balance -= amount
	return *a, nil
}

// accountFrozen answers with a 423 status, naming the account.
func accountFrozen(c *responses.Context, args ...any) error {
	id := mux.Vars(c.Request)["id"]
	opts := []any{
		responses.Status(http.StatusLocked),
		responses.Message("account frozen"),
		responses.Merge(map[string]any{"account": id}),
	}

	return c.Send(responses.BadRequest, append(opts, args...)...)
}

func main() {
	l := &ledger{
		accounts: map[string]*account{
			"1": {Balance: 10},
			"2": {Balance: 100, Closed: true},
			"3": {Balance: 100, Frozen: true},
		},
		parser: req.NewParser(),
	}

	rng, err := ranger.New(
		ranger.WithResponsesFS(declared, "responses"),
		ranger.WithResponse("accountFrozen", accountFrozen),
		ranger.WithRequiredResponses("insufficientFunds", "accountClosed", "accountFrozen", "unavailable"),
	)
	if err != nil {
		logger.New().Fatal(err.Error(), nil)
	}

	rng.HandleRoutes([]router.Route{
		{Path: "/accounts/{id}", Method: http.MethodGet, Handler: l.show},
		{Path: "/accounts/{id}/frozen", Method: http.MethodGet, Handler: l.frozen},
		{Path: "/accounts/{id}/withdraw", Method: http.MethodPost, Handler: l.handleWithdraw},
		{Path: "/ledger", Method: http.MethodGet, Handler: unavailable},
		{Path: "/panic", Method: http.MethodGet, Handler: func(w http.ResponseWriter, r *http.Request) { panic("oops") }},
	})

	if err := rng.Guide(); err != nil {
		rng.EmitLogger().Fatal(err.Error(), nil)
	}
}

func (l *ledger) show(w http.ResponseWriter, r *http.Request) {
	res := responses.For(w, r)

	l.mu.Lock()
	a, ok := l.accounts[mux.Vars(r)["id"]]
	l.mu.Unlock()

	switch {
	case !ok:
		res.NotFound()
	case a.Closed:
		res.Send("accountClosed")
	default:
		res.OK(a)
	}
}

func (l *ledger) frozen(w http.ResponseWriter, r *http.Request) {
	res := responses.For(w, r)

	l.mu.Lock()
	a, ok := l.accounts[mux.Vars(r)["id"]]
	l.mu.Unlock()

	if !ok || !a.Frozen {
		res.NotFound()
		return
	}

	res.Send("accountFrozen")
}

func (l *ledger) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	res := responses.For(w, r)

	var q withdrawal
	if err := l.parser.ParseQueryParams(r.URL.Query(), &q); err != nil {
		res.Negotiate(err)
		return
	}

	a, err := l.withdraw(mux.Vars(r)["id"], q.Amount)
	switch {
	case errors.Is(err, errNoFunds):
		res.Send("insufficientFunds", err, responses.Merge(map[string]any{"balance": a.Balance, "requested": q.Amount}))
	case errors.Is(err, errClosed):
		res.Send("accountClosed", err)
	case err != nil:
		res.Negotiate(err)
	default:
		res.OK(a)
	}
}

func unavailable(w http.ResponseWriter, r *http.Request) {
	responses.For(w, r).Send("unavailable")
}
