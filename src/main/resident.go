package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"clipboard-buddy/src/messages"
	"clipboard-buddy/src/singleinstance"
)

// verbCommands maps resident verbs to loop commands.
var verbCommands = map[string]messages.Command{
	singleinstance.VerbShow:      messages.CommandShow,
	singleinstance.VerbConfigure: messages.CommandConfigure,
	singleinstance.VerbReload:    messages.CommandReload,
	singleinstance.VerbQuit:      messages.CommandQuit,
}

// serveResident forwards client commands to post until ctx is done.
func serveResident(ctx context.Context, srv singleinstance.Server, post func(messages.MenuCommand)) error {
	for {
		conn, err := srv.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("resident server: %w", err)
		}
		handleConn(conn, post)
	}
}

func handleConn(conn singleinstance.Conn, post func(messages.MenuCommand)) {
	defer conn.Close()
	verb := strings.ToUpper(conn.Request().Verb)
	cmd, ok := verbCommands[verb]
	if !ok {
		_ = conn.RespondError(fmt.Sprintf("unknown command %q", verb))
		return
	}
	log.Printf("Resident: %s requested", verb)
	// respond first: QUIT exits the process from the loop
	if err := conn.RespondSuccess("OK"); err != nil {
		log.Printf("Resident: failed to respond: %v", err)
	}
	post(messages.MenuCommand{Command: cmd})
}
