package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"dalnoboi/internal/cli"
)

func main() {
	var (
		sessionID = flag.String("session-id", "", "Map session id (generated when empty)")
		driverID  = flag.String("driver-id", "", "Driver id (generated when empty)")
		secret    = flag.String("secret", "", "Ticket HMAC secret (HS256)")
		ttl       = flag.Duration("ttl", 15*time.Minute, "Ticket lifetime")
	)
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "usage: ticket --secret='<secret>' [--session-id=<uuid>] [--driver-id=<id>] [--ttl=15m]")
		os.Exit(2)
	}

	raw, claims, err := cli.GenerateSessionTicket(*secret, *sessionID, *driverID, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	fmt.Println("TICKET:")
	fmt.Println(raw)
	fmt.Println("\nCLAIMS:")
	fmt.Printf("  sid:  %s\n", claims.SessionID)
	fmt.Printf("  sub:  %s\n", claims.Subject)
	fmt.Printf("  iat:  %s\n", claims.IssuedAt.Time.UTC().Format(time.RFC3339))
	fmt.Printf("  exp:  %s\n", claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
}
