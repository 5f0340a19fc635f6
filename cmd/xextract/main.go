// Command xextract is the operator CLI: one-off extractions, the NATS
// command service, analytics and maintenance tasks.
package main

func main() {
	Execute()
}
