package main

import "appointment-booking/cmd"

func main() {
	cmd.Execute()
}
