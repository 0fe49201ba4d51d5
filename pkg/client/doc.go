// Package client is a Go client for the taskgate HTTP API.
//
// # Quick Start
//
//	c := client.New("https://tasks.example.com")
//
//	if err := c.CreateUser(ctx, "alice", "correct horse"); err != nil &&
//	    !errors.Is(err, client.ErrUsernameTaken) {
//	    return err
//	}
//
//	token, err := c.Login(ctx, "alice", "correct horse")
//	if err != nil {
//	    return err // client.ErrBadCredentials on a wrong password
//	}
//	fmt.Println("valid until", token.ExpiresAt)
//
// # Calling Protected Routes
//
// After Login the client attaches "Authorization: Bearer <token>" to every
// request. Me is the built-in protected route; Do sends any request:
//
//	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, base+"/tasks", nil)
//	res, err := c.Do(req)
//
// A token is valid for two days. Once it expires protected routes answer
// ErrUnauthenticated and the caller must Login again; there is no refresh.
//
// # Reusing a Token
//
// A token obtained elsewhere can be supplied up front:
//
//	c := client.New(base, client.WithToken(saved))
package client
