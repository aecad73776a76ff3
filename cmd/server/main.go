// @title Event RSVP API
// @version 1.0
// @description Events, RSVPs and email invitations. Authenticated routes use the HTTP-only sid cookie set by /auth/login.
// @BasePath /api
package main

import "eventrsvp/cmd/server/cmd"

func main() {
	cmd.Execute()
}
