// Command umnpray lists prayer spaces from the terminal
package main

func main() {
	Execute()
}
