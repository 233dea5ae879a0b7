package main

import "github.com/deusflow/newsdigest/internal/app"

func main() {
	app.Run()
}
