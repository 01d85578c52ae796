package main

import "classifybot/internal/app"

func main() {
	app.Main()
}
