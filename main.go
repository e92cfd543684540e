package main

import "docforge/internal/app"

func main() {
	app.Main()
}
