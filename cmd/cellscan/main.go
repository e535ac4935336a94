// Package main provides the cellscan command.
//
// cellscan classifies thin blood smear cell images as Parasitized or
// Uninfected using a remote malaria detection service.
//
// Usage:
//
//	cellscan [paths...]             interactive terminal UI
//	cellscan predict [paths...]     one-shot prediction for scripts
//	cellscan download               save the service's CSV of past results
package main

func main() {
	Execute()
}
