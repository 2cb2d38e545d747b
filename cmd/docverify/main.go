// Command docverify fingerprints local files and talks to a docverify server.
//
//	docverify fingerprint FILE
//	docverify login -email EMAIL
//	docverify upload FILE
//	docverify verify FILE
//	docverify documents
//	docverify logs
//	docverify delete ID
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "docverify:", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage: docverify [-server URL] [-token-file PATH] COMMAND [ARGS]

commands:
  fingerprint FILE   print the SHA-256 fingerprint of FILE
  login -email E     sign in and store the session token
  upload FILE        register FILE's fingerprint (admin)
  verify FILE        check FILE against the registry
  documents          list registered documents
  logs               list audit entries visible to you
  delete ID          remove a document record (admin)`)
}
