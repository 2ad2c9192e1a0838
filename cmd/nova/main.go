// Command nova is a local-first project notebook with optional cloud sync.
package main

func main() {
	Execute()
}
