// Command budgetctl renders, exports and imports budget comparisons from
// the terminal.
package main

func main() {
	Execute()
}
